package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/logx"
	"github.com/zulandar/switchboard/internal/switchboard"
)

const defaultConfigPath = "switchboard.yaml"

// buildSwitchboard loads configuration and assembles the delivery system.
func buildSwitchboard(configPath string) (*config.Config, *switchboard.Switchboard, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logx.New(os.Stderr, cfg.LogLevel)
	sb, err := switchboard.New(cfg, log, switchboard.Opts{})
	if err != nil {
		return nil, nil, err
	}
	return cfg, sb, nil
}

func daemonLogger(cfg *config.Config) zerolog.Logger {
	return logx.New(os.Stderr, cfg.LogLevel)
}
