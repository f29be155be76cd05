package audio

import (
	"encoding/binary"
	"fmt"
)

// Mulaw encode/decode tables and constants (standard G.711 companding law).
const (
	mulawBias = 0x84
	mulawClip = 32635
)

var mulawDecodeTable = [256]int16{
	-32124, -31100, -30076, -29052, -28028, -27004, -25980, -24956,
	-23932, -22908, -21884, -20860, -19836, -18812, -17788, -16764,
	-15996, -15484, -14972, -14460, -13948, -13436, -12924, -12412,
	-11900, -11388, -10876, -10364, -9852, -9340, -8828, -8316,
	-7932, -7676, -7420, -7164, -6908, -6652, -6396, -6140,
	-5884, -5628, -5372, -5116, -4860, -4604, -4348, -4092,
	-3900, -3772, -3644, -3516, -3388, -3260, -3132, -3004,
	-2876, -2748, -2620, -2492, -2364, -2236, -2108, -1980,
	-1884, -1820, -1756, -1692, -1628, -1564, -1500, -1436,
	-1372, -1308, -1244, -1180, -1116, -1052, -988, -924,
	-876, -844, -812, -780, -748, -716, -684, -652,
	-620, -588, -556, -524, -492, -460, -428, -396,
	-372, -356, -340, -324, -308, -292, -276, -260,
	-244, -228, -212, -196, -180, -164, -148, -132,
	-120, -112, -104, -96, -88, -80, -72, -64,
	-56, -48, -40, -32, -24, -16, -8, 0,
	32124, 31100, 30076, 29052, 28028, 27004, 25980, 24956,
	23932, 22908, 21884, 20860, 19836, 18812, 17788, 16764,
	15996, 15484, 14972, 14460, 13948, 13436, 12924, 12412,
	11900, 11388, 10876, 10364, 9852, 9340, 8828, 8316,
	7932, 7676, 7420, 7164, 6908, 6652, 6396, 6140,
	5884, 5628, 5372, 5116, 4860, 4604, 4348, 4092,
	3900, 3772, 3644, 3516, 3388, 3260, 3132, 3004,
	2876, 2748, 2620, 2492, 2364, 2236, 2108, 1980,
	1884, 1820, 1756, 1692, 1628, 1564, 1500, 1436,
	1372, 1308, 1244, 1180, 1116, 1052, 988, 924,
	876, 844, 812, 780, 748, 716, 684, 652,
	620, 588, 556, 524, 492, 460, 428, 396,
	372, 356, 340, 324, 308, 292, 276, 260,
	244, 228, 212, 196, 180, 164, 148, 132,
	120, 112, 104, 96, 88, 80, 72, 64,
	56, 48, 40, 32, 24, 16, 8, 0,
}

func mulawDecodeSample(b byte) int16 {
	return mulawDecodeTable[b]
}

func mulawEncodeSample(pcm int16) byte {
	sign := uint8(0)
	if pcm < 0 {
		sign = 0x80
		pcm = -max(pcm, -mulawClip) // clip first: -(-32768) overflows int16
	}

	if pcm > mulawClip {
		pcm = mulawClip
	}
	pcm += mulawBias

	var exponent, mantissa uint8
	switch {
	case pcm >= 0x4000:
		exponent = 7
		mantissa = uint8((pcm >> 10) & 0x0F)
	case pcm >= 0x2000:
		exponent = 6
		mantissa = uint8((pcm >> 9) & 0x0F)
	case pcm >= 0x1000:
		exponent = 5
		mantissa = uint8((pcm >> 8) & 0x0F)
	case pcm >= 0x800:
		exponent = 4
		mantissa = uint8((pcm >> 7) & 0x0F)
	case pcm >= 0x400:
		exponent = 3
		mantissa = uint8((pcm >> 6) & 0x0F)
	case pcm >= 0x200:
		exponent = 2
		mantissa = uint8((pcm >> 5) & 0x0F)
	case pcm >= 0x100:
		exponent = 1
		mantissa = uint8((pcm >> 4) & 0x0F)
	default:
		exponent = 0
		mantissa = uint8((pcm >> 3) & 0x0F)
	}

	mulaw := sign | (exponent << 4) | mantissa
	return ^mulaw
}

// MulawToPCM decodes a narrowband mulaw byte stream into linear PCM16 samples.
func MulawToPCM(mulaw []byte) []int16 {
	pcm := make([]int16, len(mulaw))
	for i, b := range mulaw {
		pcm[i] = mulawDecodeSample(b)
	}
	return pcm
}

// PCMToMulaw encodes linear PCM16 samples into narrowband mulaw bytes.
func PCMToMulaw(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = mulawEncodeSample(s)
	}
	return out
}

// BytesToPCM decodes little-endian 16-bit PCM bytes into samples.
func BytesToPCM(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("audio: odd-length PCM byte stream (%d bytes)", len(data))
	}
	pcm := make([]int16, len(data)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return pcm, nil
}

// PCMToBytes encodes samples into little-endian 16-bit PCM bytes.
func PCMToBytes(pcm []int16) []byte {
	data := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// Resample performs rational-factor linear-interpolation resampling between
// two sample rates. This is a basic implementation; a polyphase resampler
// would be preferable, but no such library is available in this module's
// dependency surface.
func Resample(input []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || len(input) == 0 {
		return input
	}

	ratio := float64(inputRate) / float64(outputRate)
	outputLen := int(float64(len(input)) / ratio)
	output := make([]int16, outputLen)

	for i := 0; i < outputLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		switch {
		case srcIdx+1 < len(input):
			s1 := float64(input[srcIdx])
			s2 := float64(input[srcIdx+1])
			output[i] = int16(s1 + (s2-s1)*frac)
		case srcIdx < len(input):
			output[i] = input[srcIdx]
		}
	}

	return output
}
