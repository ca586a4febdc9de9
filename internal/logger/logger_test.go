package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("info")
	log = log.Output(&buf)

	log.Info().Msg("test message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %s", err, buf.String())
	}

	if entry["message"] != "test message" {
		t.Errorf("expected message 'test message', got %v", entry["message"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON output")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn").Output(&buf)

	log.Debug().Msg("hidden")
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug/info suppressed at warn level, got %s", buf.String())
	}

	log.Warn().Msg("shown")
	if buf.Len() == 0 {
		t.Error("expected warn entry at warn level")
	}
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("not-a-level").Output(&buf)

	log.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Error("expected info entry with defaulted level")
	}
}

func TestNewFromConfig_FileOutput(t *testing.T) {
	dir := t.TempDir()
	log := NewFromConfig(Config{
		Level:    "info",
		Output:   "file",
		FilePath: dir + "/mailctl.log",
	})

	log.Info().Msg("to file")
	// The write path is covered; rotation behavior belongs to lumberjack.
}
