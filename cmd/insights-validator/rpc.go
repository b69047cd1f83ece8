package main

import (
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"

	"github.com/blockchain-insights/insights/api"
)

func validatorHandler(a api.Validator) http.Handler {
	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()

	// expose only the api surface, not the round lifecycle
	var proxy api.ValidatorStruct
	proxy.Internal.Version = a.Version
	proxy.Internal.ListValidationResults = a.ListValidationResults
	proxy.Internal.LoadMinerResults = a.LoadMinerResults
	rpcServer.Register("insights", &proxy)

	router.Handle("/rpc/v0", rpcServer)

	return router
}
