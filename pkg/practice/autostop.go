package practice

// Recording limits and auto-stop thresholds, in seconds.
const (
	CountdownSeconds         = 3.0
	AutoStopMinRecordSeconds = 1.0
	AutoStopSilenceSeconds   = 1.0
	MaxRecordingSeconds      = 10.0

	// FallbackSampleRate is used when the capture rate is unknown.
	FallbackSampleRate = 44100
)

// AutoStopInput is the bookkeeping ShouldAutoStop looks at. LastVoicedAt
// is only meaningful when HasVoiced is true.
type AutoStopInput struct {
	HasVoiced    bool
	LastVoicedAt float64
	Now          float64
	MinRecord    float64
	Silence      float64
}

// ShouldAutoStop reports whether a take should end because the singer
// has stopped: only after voicing started, never before MinRecord
// seconds, and once Silence seconds have passed since the last voiced
// frame.
func ShouldAutoStop(in AutoStopInput) bool {
	if !in.HasVoiced {
		return false
	}
	if in.Now < in.MinRecord {
		return false
	}
	return in.Now-in.LastVoicedAt >= in.Silence
}
