package audio

import "testing"

func TestIsSilenceEmpty(t *testing.T) {
	if !IsSilence(nil, DefaultSilenceThreshold) {
		t.Error("expected empty audio to be classified as silence")
	}
}

func TestIsSilenceQuiet(t *testing.T) {
	quiet := make([]byte, 160)
	for i := range quiet {
		quiet[i] = 0xFF
	}
	if !IsSilence(quiet, DefaultSilenceThreshold) {
		t.Error("expected mulaw-silence bytes to be classified as silence")
	}
}

func TestIsSilenceVoiced(t *testing.T) {
	loud := make([]byte, 160)
	for i := range loud {
		loud[i] = 0x00
	}
	if IsSilence(loud, DefaultSilenceThreshold) {
		t.Error("expected far-from-silence bytes to be classified as voiced")
	}
}
