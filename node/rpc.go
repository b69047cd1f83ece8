package node

import (
	"context"
	"net"
	"net/http"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var rpclog = logging.Logger("rpc")

// StopFunc terminates a running rpc endpoint
type StopFunc func(context.Context) error

// ServeRPC serves an HTTP handler over the supplied listen address.
//
// This function spawns a goroutine to run the server, and returns
// immediately. It returns the stop function to be called to terminate the
// endpoint.
func ServeRPC(h http.Handler, id, addr string) (StopFunc, error) {
	lst, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("could not listen: %w", err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		err := srv.Serve(lst)
		if err != http.ErrServerClosed {
			rpclog.Warnf("rpc server %s failed: %s", id, err)
		}
	}()

	return srv.Shutdown, nil
}
