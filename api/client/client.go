package client

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"

	"github.com/blockchain-insights/insights/api"
)

// NewMiner creates a new http jsonrpc client for a miner.
func NewMiner(ctx context.Context, addr string, requestHeader http.Header, opts ...jsonrpc.Option) (api.Miner, jsonrpc.ClientCloser, error) {
	var res api.MinerStruct

	closer, err := jsonrpc.NewMergeClient(ctx, addr, "insights",
		[]interface{}{&res.Internal}, requestHeader, opts...)

	return &res, closer, err
}

// NewRegistry creates a new http jsonrpc client for the miner registry.
func NewRegistry(ctx context.Context, addr string, requestHeader http.Header, opts ...jsonrpc.Option) (api.Registry, jsonrpc.ClientCloser, error) {
	var res api.RegistryStruct

	closer, err := jsonrpc.NewMergeClient(ctx, addr, "insights",
		[]interface{}{&res.Internal}, requestHeader, opts...)

	return &res, closer, err
}
