package service

import (
	"os"
	"os/signal"
	"syscall"
)

type Server interface {
	Init() error
	Start() error
	Stop() error
}

// Run drives a server through init and start, then blocks until an
// interrupt or termination signal arrives.
func Run(s Server) error {
	if err := s.Init(); err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Stop()
}
