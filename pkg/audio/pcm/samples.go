package pcm

import (
	"encoding/binary"
	"math"
)

// EncodeL16 converts float32 samples in [-1, 1] to little-endian 16-bit
// PCM, clipping values outside the range. It appends to dst.
func EncodeL16(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(toInt16(s)))
	}
	return dst
}

// DecodeL16 converts little-endian 16-bit PCM to float32 samples. A
// trailing odd byte is ignored.
func DecodeL16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		out[i] = float32(v) / 32768
	}
	return out
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * math.MaxInt16)
	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var p float32
	for _, s := range samples {
		p = max(p, float32(math.Abs(float64(s))))
	}
	return p
}
