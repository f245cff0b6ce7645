package main

import (
	"jpx-history/src/analysis"
	"jpx-history/src/app"
	"jpx-history/src/grpc_control"
	"jpx-history/src/interfaces"
	"jpx-history/src/server"
)

type servers struct {
	api     interfaces.IDataExchanger
	control *grpc_control.ControlService
	app     *app.App
}

// -----------------------------------------------------------------------------

// startServers starts the HTTP/WebSocket API and the gRPC health service and
// hooks them into the update pipeline.
func startServers(a *app.App) *servers {
	// 1. API server
	facade := analysis.NewAnalysisFacade(a.Logger.Named("Analysis"))
	api := server.NewAPIServer(a.Config.MConfig, a.Store, facade, a.Logger.Named("APIServer"))
	api.Status = a.Service.LastSummary
	a.Driver.Events = api

	go func() {
		if err := api.Start(); err != nil {
			a.Logger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC health service
	control := grpc_control.NewControlService(a.Config.MConfig, a.Logger.Named("ControlService"))
	a.Service.OnMaster = control.ReportMaster
	a.Service.OnSummary = control.ReportBatch

	go func() {
		if err := control.Start(); err != nil {
			a.Logger.Critical("failed to serve gRPC: %v", err)
		}
	}()

	return &servers{api: api, control: control, app: a}
}

// -----------------------------------------------------------------------------

func (s *servers) stop() {
	s.control.Stop()
	if err := s.api.Stop(); err != nil {
		s.app.Logger.Warning("server shutdown: %v", err)
	}
}
