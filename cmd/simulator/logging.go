package main

import (
	"github.com/cuemby/raftsim/pkg/log"
)

func initLoggerFromFlags(level string, jsonOut bool) {
	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: jsonOut,
	})
}
