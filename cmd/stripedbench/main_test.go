package main

import (
	"testing"
)

func TestNewLoggerBuildsBothModes(t *testing.T) {
	for _, jsonOutput := range []bool{false, true} {
		logger, err := newLogger(jsonOutput)
		if err != nil {
			t.Fatalf("newLogger(%v): %v", jsonOutput, err)
		}
		if logger == nil {
			t.Fatalf("newLogger(%v) returned nil logger", jsonOutput)
		}
	}
}

func TestRunCmdFlagsHaveSaneDefaults(t *testing.T) {
	writers, err := runCmd.Flags().GetInt("writers")
	if err != nil || writers <= 0 {
		t.Fatalf("writers default = (%d, %v), want a positive int", writers, err)
	}
	readers, err := runCmd.Flags().GetInt("readers")
	if err != nil || readers <= 0 {
		t.Fatalf("readers default = (%d, %v), want a positive int", readers, err)
	}
	keys, err := runCmd.Flags().GetInt("keys")
	if err != nil || keys <= 0 {
		t.Fatalf("keys default = (%d, %v), want a positive int", keys, err)
	}
}

func TestRunBenchCompletesQuickly(t *testing.T) {
	runCmd.Flags().Set("writers", "2")
	runCmd.Flags().Set("readers", "2")
	runCmd.Flags().Set("keys", "100")
	runCmd.Flags().Set("duration", "10ms")
	runCmd.Flags().Set("metrics-addr", "")

	if err := runBench(runCmd, nil); err != nil {
		t.Fatalf("runBench: %v", err)
	}
}
