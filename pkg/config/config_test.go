package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.STTProvider != "groq" {
		t.Errorf("expected default stt provider 'groq', got %q", cfg.STTProvider)
	}
	if cfg.MaxConversationTurns != 50 {
		t.Errorf("expected default max turns 50, got %d", cfg.MaxConversationTurns)
	}
	if cfg.SilenceThreshold != 800*time.Millisecond {
		t.Errorf("expected default silence threshold 800ms, got %v", cfg.SilenceThreshold)
	}
}

func TestLoadReadsEnvOverride(t *testing.T) {
	os.Setenv("TELEPHONY_STT_PROVIDER", "deepgram")
	defer os.Unsetenv("TELEPHONY_STT_PROVIDER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.STTProvider != "deepgram" {
		t.Errorf("expected env override 'deepgram', got %q", cfg.STTProvider)
	}
}
