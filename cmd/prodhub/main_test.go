package main

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupLogger_Defaults(t *testing.T) {
	t.Setenv("PRODHUB_LOG_LEVEL", "")
	setupLogger()

	if log.GetLevel() != log.InfoLevel {
		t.Errorf("expected info level by default, got %s", log.GetLevel())
	}
}

func TestSetupLogger_DebugLevel(t *testing.T) {
	t.Setenv("PRODHUB_LOG_LEVEL", "debug")
	setupLogger()
	defer log.SetLevel(log.InfoLevel)

	if log.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %s", log.GetLevel())
	}
}
