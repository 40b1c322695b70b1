// Package pcm handles 16-bit mono PCM audio: formats, conversion between
// L16 bytes and float32 samples in [-1, 1], and WAV encoding.
//
// Example usage:
//
//	format := pcm.L16Mono48K
//	n := format.SamplesInDuration(20 * time.Millisecond) // 960
//
//	var buf bytes.Buffer
//	err := pcm.WriteWAV(&buf, format, samples)
package pcm
