package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api/client"
	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/build"
	"github.com/blockchain-insights/insights/lib/insightslog"
	"github.com/blockchain-insights/insights/node"
	"github.com/blockchain-insights/insights/node/chain"
	"github.com/blockchain-insights/insights/node/config"
	"github.com/blockchain-insights/insights/node/validator"
	"github.com/blockchain-insights/insights/node/validator/db"
	"github.com/blockchain-insights/insights/node/validator/uptime"
)

var log = logging.Logger("main")

const (
	// FlagValidatorConfig Flag
	FlagValidatorConfig = "config"
)

func main() {
	insightslog.SetupLogLevels()

	app := &cli.App{
		Name:                 "insights-validator",
		Usage:                "Insights validator node",
		Version:              build.UserVersion(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    FlagValidatorConfig,
				EnvVars: []string{"INSIGHTS_VALIDATOR_CONFIG"},
				Value:   "./validator.toml",
				Usage:   "validator config file path",
			},
		},
		Commands: []*cli.Command{
			initCmd,
			runCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		log.Warnf("%+v", err)
		os.Exit(1)
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "Write a default validator config",
	Action: func(cctx *cli.Context) error {
		path := cctx.String(FlagValidatorConfig)
		if _, err := os.Stat(path); err == nil {
			return xerrors.Errorf("config %s already exists", path)
		}

		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close() //nolint:errcheck

		if err := toml.NewEncoder(file).Encode(config.DefaultValidatorCfg()); err != nil {
			return err
		}

		log.Infof("config written to %s", path)
		return nil
	},
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Run the validator",
	Action: func(cctx *cli.Context) error {
		cfg, err := config.FromFile(cctx.String(FlagValidatorConfig))
		if err != nil {
			return xerrors.Errorf("load config: %w", err)
		}

		ctx, cancel := context.WithCancel(cctx.Context)
		defer cancel()

		urls := make(map[types.Network]string, len(cfg.Networks))
		for _, networkCfg := range cfg.Networks {
			urls[types.Network(networkCfg.Name)] = networkCfg.RPCURL
		}

		nodes, err := chain.NewNodes(urls)
		if err != nil {
			return xerrors.Errorf("chain clients: %w", err)
		}

		uptimeStore, err := uptime.NewRedisStore(cfg.RedisAddress, cfg.UptimeWindow)
		if err != nil {
			return xerrors.Errorf("uptime store: %w", err)
		}

		var results *db.SqlDB
		if cfg.DatabaseAddress != "" {
			sqlDB, err := db.NewDB(cfg.DatabaseAddress)
			if err != nil {
				return xerrors.Errorf("result ledger: %w", err)
			}
			results = db.NewSqlDB(sqlDB)
		}

		registry, closer, err := client.NewRegistry(ctx, cfg.RegistryAddress, nil)
		if err != nil {
			return xerrors.Errorf("registry client: %w", err)
		}
		defer closer()

		transport := client.NewDendrite(cfg.QueryRateLimit)
		sink := validator.NewWeightUpdater(cfg.Alpha)

		v, err := validator.New(cfg, transport, registry, nodes, uptimeStore, results, sink)
		if err != nil {
			return err
		}

		rpcStopper, err := node.ServeRPC(validatorHandler(v), "insights-validator", cfg.ListenAddress)
		if err != nil {
			return xerrors.Errorf("start json-rpc endpoint: %w", err)
		}

		go v.Start(ctx)

		log.Info("validator listen with:", cfg.ListenAddress)

		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		log.Warn("shutting down...")
		if err := rpcStopper(ctx); err != nil {
			log.Errorf("stop rpc server: %v", err)
		}
		return v.Stop(ctx)
	},
}
