package server

import (
	"github.com/NeuralTrust/AltGuard/pkg/config"
	"github.com/NeuralTrust/AltGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

type MetricsServer struct {
	*BaseServer
}

// NewMetricsServer initializes the registry with cfg.Metrics and exposes it
// on server.metrics_port.
func NewMetricsServer(cfg *config.Config, logger *logrus.Logger) *MetricsServer {
	prometheus.Initialize(cfg.Metrics)
	return &MetricsServer{
		BaseServer: &BaseServer{
			Config: cfg,
			Logger: logger,
			Router: NewMetricsApp(),
		},
	}
}

func (s *MetricsServer) Run() error {
	addr := s.addr(s.Config.Server.MetricsPort)
	s.Logger.WithField("addr", addr).Info("starting metrics server")
	return s.Router.Listen(addr)
}

func (s *MetricsServer) Shutdown() error {
	return s.Router.Shutdown()
}
