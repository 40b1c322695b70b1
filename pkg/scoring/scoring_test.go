package scoring

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/tonal"
)

const tonic = 130.8

// makeNotes lays out contiguous notes at the given semitones and lengths.
func makeNotes(semis []int, durs []float64) []tonal.Note {
	notes := make([]tonal.Note, len(semis))
	start := 0.0
	for i, s := range semis {
		notes[i] = tonal.Note{
			Index: i,
			Start: start,
			End:   start + durs[i],
			Semi:  s,
			Hz:    tonal.SemiToHz(float64(s), tonic),
			Label: tonal.DegreeLabel(s),
			Core:  tonal.IsCoreDegree(s),
		}
		start += durs[i]
	}
	return notes
}

func evenNotes(semis ...int) []tonal.Note {
	durs := make([]float64, len(semis))
	for i := range durs {
		durs[i] = 1
	}
	return makeNotes(semis, durs)
}

// sing samples notes every step seconds, detuned by cents and stretched
// by tempo.
func sing(notes []tonal.Note, step, cents, tempo float64) []tonal.RawSample {
	end := notes[len(notes)-1].End * tempo
	var out []tonal.RawSample
	for k := 0; ; k++ {
		t := float64(k) * step
		if t > end {
			break
		}
		hz := notes[len(notes)-1].Hz
		for _, n := range notes {
			if t/tempo < n.End {
				hz = n.Hz
				break
			}
		}
		out = append(out, tonal.RawSample{T: t, Hz: hz * math.Pow(2, cents/1200)})
	}
	return out
}

func evaluate(t *testing.T, notes []tonal.Note, samples []tonal.RawSample, mode tonal.Mode) *Result {
	t.Helper()
	res, err := Evaluate(Input{
		Samples: samples,
		Target:  exercise.SampleTarget(notes),
		Notes:   notes,
		TonicHz: tonic,
		Mode:    mode,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return res
}

func TestPerfectBeatsFlat(t *testing.T) {
	notes := evenNotes(0, 4, 7)
	perfect := evaluate(t, notes, sing(notes, 0.02, 0, 1), tonal.Absolute)
	flat := evaluate(t, notes, sing(notes, 0.02, -60, 1), tonal.Absolute)
	if !perfect.Valid || !flat.Valid {
		t.Fatalf("valid = %v, %v", perfect.Valid, flat.Valid)
	}
	if perfect.Score <= flat.Score {
		t.Errorf("perfect %d should beat flat %d", perfect.Score, flat.Score)
	}
	if perfect.Subscores.Accuracy < 95 {
		t.Errorf("perfect accuracy = %d", perfect.Subscores.Accuracy)
	}
	if flat.Subscores.Accuracy >= perfect.Subscores.Accuracy {
		t.Errorf("flat accuracy %d >= perfect %d", flat.Subscores.Accuracy, perfect.Subscores.Accuracy)
	}
}

func TestTrackerRateAttempt(t *testing.T) {
	// Samples on the tracker's block clock do not line up with the
	// target grid.
	notes := evenNotes(0, 2, 4, 5)
	res := evaluate(t, notes, sing(notes, 1024.0/48000, 0, 1), tonal.Absolute)
	if !res.Valid {
		t.Fatalf("invalid: %s", res.FailReason)
	}
	if res.Subscores.Accuracy < 90 || res.Subscores.Rhythm < 80 {
		t.Errorf("subscores = %+v", *res.Subscores)
	}
}

func TestTooShort(t *testing.T) {
	notes := evenNotes(0)
	samples := []tonal.RawSample{
		{T: 0, Hz: 130.8}, {T: 0.04, Hz: 130.8}, {T: 0.08, Hz: 130.8}, {T: 0.12, Hz: 130.8},
	}
	res := evaluate(t, notes, samples, tonal.Absolute)
	if res.Valid || res.FailReason != TooShort {
		t.Fatalf("got valid=%v reason=%q", res.Valid, res.FailReason)
	}
	if res.Subscores != nil {
		t.Error("too_short result should carry no subscores")
	}
	if len(res.Curve) != 4 {
		t.Errorf("partial curve has %d points", len(res.Curve))
	}
}

func TestLowCoverageIsTooShort(t *testing.T) {
	notes := evenNotes(0)
	var samples []tonal.RawSample
	// 1 s voiced followed by 4 s of silence.
	for k := range 250 {
		tm := float64(k) * 0.02
		hz := 0.0
		if tm < 1 {
			hz = 130.8
		}
		samples = append(samples, tonal.RawSample{T: tm, Hz: hz})
	}
	res := evaluate(t, notes, samples, tonal.Absolute)
	if res.FailReason != TooShort {
		t.Errorf("reason = %q", res.FailReason)
	}
}

func TestNoVoiced(t *testing.T) {
	notes := evenNotes(0)
	var samples []tonal.RawSample
	for k := range 10 {
		hz := 0.0
		if k%3 != 2 {
			hz = 130.8
		}
		samples = append(samples, tonal.RawSample{T: float64(k) * 0.5, Hz: hz})
	}
	res := evaluate(t, notes, samples, tonal.Absolute)
	if res.Valid || res.FailReason != NoVoiced {
		t.Fatalf("got valid=%v reason=%q", res.Valid, res.FailReason)
	}
	if len(res.Curve) != 0 {
		t.Error("no_voiced result should have an empty curve")
	}

	res = evaluate(t, notes, nil, tonal.Absolute)
	if res.FailReason != NoVoiced {
		t.Errorf("empty samples: reason = %q", res.FailReason)
	}
}

func TestRelativeCancelsTransposition(t *testing.T) {
	notes := evenNotes(0, 4, 2, 7)
	samples := sing(notes, 0.02, 200, 1)
	abs := evaluate(t, notes, samples, tonal.Absolute)
	rel := evaluate(t, notes, samples, tonal.Relative)
	if !abs.Valid || !rel.Valid {
		t.Fatal("expected valid results")
	}
	if rel.Score < abs.Score+30 {
		t.Errorf("relative %d should be well above absolute %d", rel.Score, abs.Score)
	}
	if math.Abs(rel.OffsetCents-200) > 1 {
		t.Errorf("offset = %v", rel.OffsetCents)
	}
	if rel.Subscores.Accuracy < 95 {
		t.Errorf("relative accuracy = %d", rel.Subscores.Accuracy)
	}
}

func TestRelativeContour(t *testing.T) {
	notes := evenNotes(0, 4, 7)
	right := evaluate(t, notes, sing(notes, 0.02, 300, 1), tonal.Relative)
	wrong := evaluate(t, notes, sing(evenNotes(7, 4, 0), 0.02, 0, 1), tonal.Relative)
	if right.Subscores.Accuracy <= wrong.Subscores.Accuracy+40 {
		t.Errorf("right contour %d vs reversed %d", right.Subscores.Accuracy, wrong.Subscores.Accuracy)
	}
}

func TestRelativeSingleNoteUsesAbsoluteAccuracy(t *testing.T) {
	notes := evenNotes(5)
	res := evaluate(t, notes, sing(notes, 0.02, 150, 1), tonal.Relative)
	if res.Subscores.Accuracy < 95 {
		t.Errorf("accuracy = %d", res.Subscores.Accuracy)
	}
}

func TestTwoOctavesLockZero(t *testing.T) {
	notes := evenNotes(0, 2)
	res := evaluate(t, notes, sing(notes, 0.02, 2400, 1), tonal.Absolute)
	if !res.Valid {
		t.Fatal("expected valid")
	}
	if res.Subscores.Lock != 0 {
		t.Errorf("lock = %d", res.Subscores.Lock)
	}
	if res.Subscores.Accuracy != int(accuracyFloor) {
		t.Errorf("accuracy = %d, want floor", res.Subscores.Accuracy)
	}
}

func TestLockTiers(t *testing.T) {
	tests := []struct {
		err  float64
		mode tonal.Mode
		want float64
	}{
		{0, tonal.Absolute, 1},
		{-25, tonal.Absolute, 1},
		{40, tonal.Absolute, 0.75},
		{99, tonal.Absolute, 0.45},
		{-150, tonal.Absolute, 0.15},
		{201, tonal.Absolute, 0},
		{30, tonal.Relative, 1},
		{60, tonal.Relative, 0.8},
		{110, tonal.Relative, 0.5},
		{210, tonal.Relative, 0.2},
		{230, tonal.Relative, 0},
	}
	for _, tt := range tests {
		tiers := absoluteTiers
		if tt.mode == tonal.Relative {
			tiers = relativeTiers
		}
		if got := lockCredit(tt.err, tiers); got != tt.want {
			t.Errorf("%s %v cents: credit %v, want %v", tt.mode, tt.err, got, tt.want)
		}
	}
}

func TestLockTimeWeighted(t *testing.T) {
	curve := []CurvePoint{
		{T: 0, CentErr: 0, Voiced: true},
		{T: 1, CentErr: 0, Voiced: true},
		{T: 2, CentErr: 0, Voiced: true},
		{T: 2.5},
		{T: 3, CentErr: 300, Voiced: true},
		{T: 4, CentErr: 300, Voiced: true},
	}
	// Two of three voiced seconds are fully locked.
	want := tonal.ClampScore(100 * math.Pow(2.0/3, lockExponent))
	if got := scoreLock(curve, tonal.Absolute); got != want {
		t.Errorf("lock = %d, want %d", got, want)
	}
}

func TestStability(t *testing.T) {
	if got := scoreStability([]float64{10, 10, 10}); got != 0 {
		t.Errorf("fewer than 4 samples = %d", got)
	}
	if got := scoreStability([]float64{-30, -30, -30, -30}); got != 100 {
		t.Errorf("constant error = %d", got)
	}
	steady := scoreStability([]float64{0, 5, 0, 5, 0, 5})
	shaky := scoreStability([]float64{0, 40, -40, 40, -40, 0})
	if steady <= shaky {
		t.Errorf("steady %d <= shaky %d", steady, shaky)
	}
}

func TestRhythmTempoDrift(t *testing.T) {
	notes := evenNotes(0, 4, 2)
	res := evaluate(t, notes, sing(notes, 0.02, 0, 1.1), tonal.Absolute)
	if res.Subscores.Rhythm < 50 {
		t.Errorf("rhythm under 10%% drift = %d", res.Subscores.Rhythm)
	}
}

func TestRhythmMisaligned(t *testing.T) {
	notes := evenNotes(0, 4, 7)
	aligned := evaluate(t, notes, sing(notes, 0.02, 0, 1), tonal.Absolute)
	sung := makeNotes([]int{0, 4, 7}, []float64{0.5, 2, 0.5})
	misaligned := evaluate(t, notes, sing(sung, 0.02, 0, 1), tonal.Absolute)
	if misaligned.Subscores.Rhythm >= aligned.Subscores.Rhythm-30 {
		t.Errorf("misaligned rhythm %d vs aligned %d", misaligned.Subscores.Rhythm, aligned.Subscores.Rhythm)
	}
}

func TestRhythmSingleNoteIsTempo(t *testing.T) {
	notes := evenNotes(0)
	notes[0].End = 2
	onTime := evaluate(t, notes, sing(notes, 0.02, 0, 1), tonal.Absolute)
	if onTime.Subscores.Rhythm != 100 {
		t.Errorf("on time rhythm = %d", onTime.Subscores.Rhythm)
	}
	slow := evaluate(t, notes, sing(notes, 0.02, 0, 1.6), tonal.Absolute)
	if slow.Subscores.Rhythm >= 50 {
		t.Errorf("60%% slow rhythm = %d", slow.Subscores.Rhythm)
	}
}

func TestBridgeGaps(t *testing.T) {
	in := []tonal.RawSample{
		{T: 0, Hz: 200}, {T: 0.1}, {T: 0.2}, {T: 0.3}, {T: 0.4, Hz: 210}, {T: 0.5},
	}
	out := bridgeGaps(in, GapBridgeSeconds)
	want := []float64{200, 200, 200, 0, 210, 210}
	for i, w := range want {
		if out[i].Hz != w {
			t.Errorf("sample %d: hz %v, want %v", i, out[i].Hz, w)
		}
	}
	if in[1].Hz != 0 {
		t.Error("bridgeGaps modified its input")
	}
}

func TestVoiceStart(t *testing.T) {
	in := []tonal.RawSample{
		{T: 0, Hz: 200}, {T: 1}, {T: 2, Hz: 200}, {T: 3, Hz: 200}, {T: 4, Hz: 200}, {T: 5, Hz: 200},
	}
	if i, ok := voiceStart(in, 3); !ok || i != 2 {
		t.Errorf("voiceStart = %d, %v", i, ok)
	}
	if _, ok := voiceStart(in[:4], 3); ok {
		t.Error("run of two should not start voicing")
	}
}

func TestVoiceStartRebases(t *testing.T) {
	notes := evenNotes(0, 4)
	samples := []tonal.RawSample{{T: 0}, {T: 0.3}}
	for _, s := range sing(notes, 0.02, 0, 1) {
		s.T += 0.6
		samples = append(samples, s)
	}
	res := evaluate(t, notes, samples, tonal.Absolute)
	if math.Abs(res.VoiceStart-0.6) > 1e-9 {
		t.Errorf("voice start = %v", res.VoiceStart)
	}
	if res.Curve[0].T != 0 {
		t.Errorf("curve starts at %v", res.Curve[0].T)
	}
	if res.Subscores.Accuracy < 95 {
		t.Errorf("rebased accuracy = %d", res.Subscores.Accuracy)
	}
}

func TestDisplayWindow(t *testing.T) {
	notes := evenNotes(0)
	notes[0].End = 12
	res := evaluate(t, notes, sing(notes, 0.05, 0, 1), tonal.Absolute)
	if last := res.Curve[len(res.Curve)-1].T; last > MaxDisplaySeconds {
		t.Errorf("curve extends to %v", last)
	}
}

func TestEvaluateInvalidInput(t *testing.T) {
	notes := evenNotes(0)
	target := exercise.SampleTarget(notes)
	samples := sing(notes, 0.02, 0, 1)
	tests := map[string]Input{
		"empty target": {Samples: samples, TonicHz: tonic},
		"zero tonic":   {Samples: samples, Target: target},
		"bad mode":     {Samples: samples, Target: target, TonicHz: tonic, Mode: "loose"},
		"unordered": {
			Samples: []tonal.RawSample{{T: 1, Hz: 200}, {T: 0.5, Hz: 200}},
			Target:  target, TonicHz: tonic,
		},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Evaluate(in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestNotesFromTarget(t *testing.T) {
	notes := makeNotes([]int{0, 4, 4, 7}, []float64{0.5, 0.5, 0.5, 1})
	got := NotesFromTarget(exercise.SampleTarget(notes), tonic)
	// Repeated pitches merge into one note.
	if len(got) != 3 {
		t.Fatalf("got %d notes", len(got))
	}
	if got[1].Semi != 4 || math.Abs(got[1].Start-0.5) > 1e-9 || math.Abs(got[1].End-1.5) > 1e-9 {
		t.Errorf("note 1 = %+v", got[1])
	}
	if got[2].End != 2.5 {
		t.Errorf("last note ends at %v", got[2].End)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	for _, d := range exercise.Difficulties {
		for _, tuning := range []tonal.Tuning{tonal.EqualTemperament, tonal.JustIntonation} {
			cfg := exercise.DefaultConfig(exercise.Female)
			cfg.Difficulty, cfg.Tuning = d, tuning
			spec, err := exercise.Generate(cfg, rng)
			if err != nil {
				t.Fatal(err)
			}
			samples := make([]tonal.RawSample, len(spec.Target))
			for i, p := range spec.Target {
				samples[i] = tonal.RawSample{T: p.T, Hz: p.Hz}
			}
			res, err := Evaluate(Input{
				Samples: samples,
				Target:  spec.Target,
				Notes:   spec.Notes,
				TonicHz: spec.TonicHz,
				Mode:    tonal.Absolute,
			})
			if err != nil {
				t.Fatal(err)
			}
			if !res.Valid || res.Subscores.Accuracy < 95 {
				t.Errorf("%s/%s: valid=%v subscores=%+v", d, tuning, res.Valid, res.Subscores)
			}
		}
	}
}

func TestIsAttemptBetter(t *testing.T) {
	valid := func(idx, score, acc int) *Result {
		return &Result{AttemptIndex: idx, Valid: true, Score: score, Subscores: &Subscores{Accuracy: acc}}
	}
	invalid := &Result{AttemptIndex: 0, FailReason: TooShort}

	tests := []struct {
		name      string
		candidate *Result
		baseline  *Result
		want      bool
	}{
		{"invalid never wins", invalid, nil, false},
		{"nil candidate", nil, valid(0, 50, 50), false},
		{"valid beats nil", valid(3, 10, 10), nil, true},
		{"valid beats invalid", valid(3, 10, 10), invalid, true},
		{"higher score", valid(2, 80, 60), valid(1, 70, 90), true},
		{"lower score", valid(1, 70, 90), valid(2, 80, 60), false},
		{"tie on score, higher accuracy", valid(2, 80, 85), valid(1, 80, 80), true},
		{"full tie, earlier attempt", valid(1, 80, 80), valid(2, 80, 80), true},
		{"full tie, later attempt", valid(2, 80, 80), valid(1, 80, 80), false},
		{"same attempt", valid(1, 80, 80), valid(1, 80, 80), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAttemptBetter(tt.candidate, tt.baseline); got != tt.want {
				t.Errorf("IsAttemptBetter = %v, want %v", got, tt.want)
			}
		})
	}
}
