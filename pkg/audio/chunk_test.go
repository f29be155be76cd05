package audio

import "testing"

func TestChunkAudioExact(t *testing.T) {
	data := make([]byte, 320) // exactly 2 frames at 160 bytes/frame
	chunks := ChunkAudio(data, 20, 8000, 1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) != 160 {
			t.Errorf("expected 160-byte chunk, got %d", len(c))
		}
	}
}

func TestChunkAudioPadsLastMulaw(t *testing.T) {
	data := make([]byte, 200) // 1 full 160-byte frame + 40 remaining
	chunks := ChunkAudio(data, 20, 8000, 1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	last := chunks[1]
	if len(last) != 160 {
		t.Fatalf("expected padded 160-byte chunk, got %d", len(last))
	}
	for i := 40; i < 160; i++ {
		if last[i] != 0xFF {
			t.Errorf("expected mulaw silence padding 0xFF at %d, got %x", i, last[i])
		}
	}
}

func TestChunkAudioPadsLastPCM(t *testing.T) {
	data := make([]byte, 100) // sample width 2, chunk size would be 320 bytes
	chunks := ChunkAudio(data, 20, 8000, 2)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	for i := 100; i < len(chunks[0]); i++ {
		if chunks[0][i] != 0x00 {
			t.Errorf("expected PCM silence padding 0x00 at %d", i)
		}
	}
}

func TestGenerateSilenceMulawZeroDuration(t *testing.T) {
	out := GenerateSilenceMulaw(0, 8000)
	if len(out) != 0 {
		t.Errorf("expected empty silence for zero duration, got %d bytes", len(out))
	}
}

func TestGenerateSilenceMulaw(t *testing.T) {
	out := GenerateSilenceMulaw(20, 8000)
	if len(out) != 160 {
		t.Fatalf("expected 160 bytes, got %d", len(out))
	}
	for _, b := range out {
		if b != 0xFF {
			t.Errorf("expected mulaw silence byte 0xFF, got %x", b)
		}
	}
}
