package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/haivivi/intone/pkg/audio/pcm"
	"github.com/haivivi/intone/pkg/audio/resampler"
	"github.com/haivivi/intone/pkg/pitch"
	"github.com/haivivi/intone/pkg/practice"
	"github.com/haivivi/intone/pkg/scoring"
)

// blockSize is the capture block fed to the tracker, matching its hop.
const blockSize = pitch.DefaultHopSize

// readTake decodes a WAV file, or stdin for "-", and resamples it to
// TrackRate.
func readTake(path string) ([]float32, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	samples, rate, err := pcm.ReadWAV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("read take",
		slog.String("file", path),
		slog.Int("rate", rate),
		slog.Int("samples", len(samples)))
	return resampler.Float32(samples, rate, TrackRate)
}

// runTake feeds samples block by block into a session that is recording
// and scores the take once the recorder stops or the audio runs out.
func runTake(s *practice.Session, samples []float32) (*scoring.Result, error) {
	for off := 0; off < len(samples); off += blockSize {
		_, stop, err := s.Push(samples[off:min(off+blockSize, len(samples))])
		if err != nil {
			return nil, err
		}
		if stop != practice.KeepRecording {
			slog.Debug("take stopped",
				slog.String("reason", stop.String()),
				slog.Float64("at", s.Recorder().Elapsed()))
			break
		}
	}
	return s.Finish()
}
