package main

import (
	"scandium/internal/config"
	"scandium/pkg/server"
)

var container *server.Container

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	container, err = server.NewContainer(cfg)
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}
}

func main() {
	if err := container.Start(); err != nil {
		container.Logger.WithError(err).Fatal("Failed to start function runtime")
	}
}
