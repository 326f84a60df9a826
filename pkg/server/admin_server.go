package server

import (
	"github.com/NeuralTrust/AltGuard/pkg/config"
	"github.com/NeuralTrust/AltGuard/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	AdminServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	AdminServer struct {
		*BaseServer
	}
)

func NewAdminServer(di AdminServerDI) *AdminServer {
	s := &AdminServer{
		BaseServer: NewBaseServer(di.Config, di.Logger),
	}
	s.setupHealthCheck()
	s.WithRouters(di.Routers...)
	return s
}

func (s *AdminServer) Run() error {
	addr := s.addr(s.Config.Server.AdminPort)
	s.Logger.WithField("addr", addr).Info("starting admin server")
	return s.Router.Listen(addr)
}

func (s *AdminServer) Shutdown() error {
	return s.Router.Shutdown()
}
