package audio

import "encoding/base64"

// NarrowbandSampleRate is the fixed sample rate of the telephony codec.
const NarrowbandSampleRate = 8000

// NarrowbandToWideband decodes narrowband mulaw audio and resamples it to the
// requested wideband PCM16 rate. targetRate == 8000 is a decode-only passthrough.
func NarrowbandToWideband(mulaw []byte, targetRate int) []byte {
	pcm := MulawToPCM(mulaw)
	if targetRate != NarrowbandSampleRate {
		pcm = Resample(pcm, NarrowbandSampleRate, targetRate)
	}
	return PCMToBytes(pcm)
}

// WidebandToNarrowband resamples wideband PCM16 audio down to 8kHz and
// mulaw-encodes it for the telephony codec.
func WidebandToNarrowband(pcm16 []byte, inputRate int) ([]byte, error) {
	samples, err := BytesToPCM(pcm16)
	if err != nil {
		return nil, err
	}
	if inputRate != NarrowbandSampleRate {
		samples = Resample(samples, inputRate, NarrowbandSampleRate)
	}
	return PCMToMulaw(samples), nil
}

// DecodeBase64Audio decodes a base64-encoded media payload as received over
// the telephony WebSocket transport.
func DecodeBase64Audio(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(payload)
}

// EncodeBase64Audio encodes audio bytes for the telephony WebSocket transport.
func EncodeBase64Audio(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
