package audio

// ChunkAudio splits audio into fixed-duration frames for frame-paced outbound
// delivery. sampleWidth is bytes per sample: 1 for narrowband mulaw, 2 for
// wideband PCM16. The last chunk is padded with codec-silence if short.
func ChunkAudio(data []byte, chunkMS, sampleRate, sampleWidth int) [][]byte {
	bytesPerChunk := sampleRate * sampleWidth * chunkMS / 1000
	if bytesPerChunk <= 0 {
		return nil
	}

	var chunks [][]byte
	for i := 0; i < len(data); i += bytesPerChunk {
		end := i + bytesPerChunk
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		if len(chunk) == bytesPerChunk {
			chunks = append(chunks, chunk)
			continue
		}

		padded := make([]byte, bytesPerChunk)
		copy(padded, chunk)
		silenceByte := byte(0x00)
		if sampleWidth == 1 {
			silenceByte = 0xFF
		}
		for j := len(chunk); j < bytesPerChunk; j++ {
			padded[j] = silenceByte
		}
		chunks = append(chunks, padded)
	}
	return chunks
}

// GenerateSilenceMulaw produces durationMS worth of narrowband codec-silence.
func GenerateSilenceMulaw(durationMS, sampleRate int) []byte {
	numSamples := sampleRate * durationMS / 1000
	if numSamples <= 0 {
		return []byte{}
	}
	silence := make([]byte, numSamples)
	for i := range silence {
		silence[i] = 0xFF
	}
	return silence
}

// NarrowbandFrameBytes returns the number of bytes a fixed-duration narrowband
// frame occupies (e.g. 160 bytes for 20ms at 8kHz, 1 byte/sample).
func NarrowbandFrameBytes(frameMS int) int {
	return NarrowbandSampleRate * frameMS / 1000
}
