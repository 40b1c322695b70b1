package pcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrNotWAV is returned by ReadWAV for input that is not a RIFF/WAVE file.
var ErrNotWAV = errors.New("pcm: not a wav file")

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3

	streamedSize = 0xFFFFFFFF
)

// WriteWAV writes samples as a 16-bit mono WAV file in format f.
func WriteWAV(w io.Writer, f Format, samples []float32) error {
	data := EncodeL16(make([]byte, 0, 2*len(samples)), samples)

	var hdr bytes.Buffer
	hdr.WriteString("RIFF")
	binary.Write(&hdr, binary.LittleEndian, uint32(36+len(data)))
	hdr.WriteString("WAVE")
	hdr.WriteString("fmt ")
	binary.Write(&hdr, binary.LittleEndian, uint32(16))
	binary.Write(&hdr, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(&hdr, binary.LittleEndian, uint16(f.Channels()))
	binary.Write(&hdr, binary.LittleEndian, uint32(f.SampleRate()))
	binary.Write(&hdr, binary.LittleEndian, uint32(f.BytesRate()))            // avgBytesPerSec
	binary.Write(&hdr, binary.LittleEndian, uint16(f.Channels()*f.Depth()/8)) // blockAlign
	binary.Write(&hdr, binary.LittleEndian, uint16(f.Depth()))                // bits per sample
	hdr.WriteString("data")
	binary.Write(&hdr, binary.LittleEndian, uint32(len(data)))

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("pcm: write wav header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("pcm: write wav data: %w", err)
	}
	return nil
}

// ReadWAV decodes a PCM (8/16/24/32-bit) or IEEE float WAV file. Multiple
// channels are averaged down to mono.
func ReadWAV(r io.Reader) (samples []float32, sampleRate int, err error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[:4]) != "RIFF" || string(riff[8:]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		format, channels, bits int
		haveFmt                bool
	)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, 0, fmt.Errorf("pcm: wav has no data chunk: %w", err)
		}
		id := string(hdr[:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:]))

		switch id {
		case "fmt ":
			body, err := io.ReadAll(io.LimitReader(r, size))
			if err != nil {
				return nil, 0, fmt.Errorf("pcm: read fmt chunk: %w", err)
			}
			if int64(len(body)) != size {
				return nil, 0, fmt.Errorf("pcm: read fmt chunk: %w", io.ErrUnexpectedEOF)
			}
			if len(body) < 16 {
				return nil, 0, fmt.Errorf("pcm: fmt chunk too short (%d bytes)", len(body))
			}
			format = int(binary.LittleEndian.Uint16(body[0:]))
			channels = int(binary.LittleEndian.Uint16(body[2:]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:]))
			bits = int(binary.LittleEndian.Uint16(body[14:]))
			if format == 0xFFFE && len(body) >= 26 {
				// WAVE_FORMAT_EXTENSIBLE: the sub-format GUID starts
				// with the actual format code.
				format = int(binary.LittleEndian.Uint16(body[24:]))
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, errors.New("pcm: wav data before fmt chunk")
			}
			// Streaming writers leave the size at 0 or 0xFFFFFFFF.
			src := r
			if size != 0 && size != streamedSize {
				src = io.LimitReader(r, size)
			}
			data, err := io.ReadAll(src)
			if err != nil {
				return nil, 0, fmt.Errorf("pcm: read wav data: %w", err)
			}
			if format == wavFormatPCM && channels == 1 && bits == 16 {
				return DecodeL16(data), sampleRate, nil
			}
			samples, err := decodeFrames(data, format, channels, bits)
			return samples, sampleRate, err
		default:
			if _, err := io.CopyN(io.Discard, r, size+size%2); err != nil {
				return nil, 0, fmt.Errorf("pcm: skip %q chunk: %w", id, err)
			}
		}
		if size%2 == 1 && id == "fmt " {
			io.CopyN(io.Discard, r, 1)
		}
	}
}

func decodeFrames(data []byte, format, channels, bits int) ([]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("pcm: wav has %d channels", channels)
	}
	width := bits / 8
	switch {
	case format == wavFormatPCM && (bits == 8 || bits == 16 || bits == 24 || bits == 32):
	case format == wavFormatFloat && bits == 32:
	default:
		return nil, fmt.Errorf("pcm: unsupported wav encoding (format %d, %d bits)", format, bits)
	}

	frame := width * channels
	out := make([]float32, len(data)/frame)
	for i := range out {
		var sum float64
		for c := range channels {
			sum += decodeSample(data[i*frame+c*width:], format, bits)
		}
		out[i] = float32(sum / float64(channels))
	}
	return out, nil
}

func decodeSample(b []byte, format, bits int) float64 {
	if format == wavFormatFloat {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	switch bits {
	case 8:
		return (float64(b[0]) - 128) / 128
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / (1 << 15)
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		return float64(v) / (1 << 23)
	default:
		return float64(int32(binary.LittleEndian.Uint32(b))) / (1 << 31)
	}
}
