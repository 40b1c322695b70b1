// Package midiexport writes exercises as Standard MIDI Files so they can
// be opened in a DAW or notation program.
//
// The file runs at 60 BPM with 960 ticks per quarter note, so one beat is
// one second and exercise times map directly onto ticks. Notes that fall
// between equal-tempered keys (just intonation) carry a pitch bend.
package midiexport

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/haivivi/intone/pkg/tonal"
)

const (
	// TicksPerSecond is the resolution of exported files.
	TicksPerSecond = 960
	tempoBPM       = 60

	melodyChannel = 0
	clickChannel  = 9

	// General MIDI percussion keys for the count-in.
	accentKey = 76 // high wood block
	clickKey  = 77 // low wood block

	// Default pitch-bend range of a General MIDI synth, in cents.
	bendRangeCents = 200
)

// Options configures an export.
type Options struct {
	Name     string  // Track name; the exercise ID is a good choice
	Velocity uint8   // Note velocity (default: 100)
	CountIn  int     // Percussion clicks before the melody
	Beat     float64 // Seconds between clicks (default: 1)
}

// Key returns the nearest MIDI key for hz and the remaining offset in
// cents.
func Key(hz float64) (key uint8, cents float64) {
	exact := 69 + 12*math.Log2(hz/440)
	k := math.Round(exact)
	k = tonal.Clamp(k, 0, 127)
	return uint8(k), (exact - k) * 100
}

// bend converts a cent offset to a 14-bit pitch-bend value.
func bend(cents float64) int16 {
	v := math.Round(cents / bendRangeCents * 8192)
	return int16(tonal.Clamp(v, -8192, 8191))
}

func ticks(seconds float64) uint32 {
	if seconds <= 0 {
		return 0
	}
	return uint32(math.Round(seconds * TicksPerSecond))
}

// Write encodes notes as a single-track SMF to w.
func Write(w io.Writer, notes []tonal.Note, opts Options) error {
	if opts.Velocity == 0 {
		opts.Velocity = 100
	}
	if opts.Beat <= 0 {
		opts.Beat = 1
	}

	var tr smf.Track
	if opts.Name != "" {
		tr.Add(0, smf.MetaTrackSequenceName(opts.Name))
	}
	tr.Add(0, smf.MetaTempo(tempoBPM))

	var now uint32
	at := func(tick uint32, msg midi.Message) {
		if tick < now {
			tick = now
		}
		tr.Add(tick-now, msg)
		now = tick
	}

	lead := float64(max(opts.CountIn, 0)) * opts.Beat
	for i := range max(opts.CountIn, 0) {
		key := uint8(clickKey)
		if i == 0 {
			key = accentKey
		}
		start := float64(i) * opts.Beat
		at(ticks(start), midi.NoteOn(clickChannel, key, opts.Velocity))
		at(ticks(start+min(0.1, opts.Beat/2)), midi.NoteOff(clickChannel, key))
	}

	for _, n := range notes {
		if !tonal.ValidHz(n.Hz) || n.End <= n.Start {
			continue
		}
		key, cents := Key(n.Hz)
		start := ticks(lead + n.Start)
		at(start, midi.Pitchbend(melodyChannel, bend(cents)))
		at(start, midi.NoteOn(melodyChannel, key, opts.Velocity))
		at(ticks(lead+n.End), midi.NoteOff(melodyChannel, key))
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerSecond)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("midiexport: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("midiexport: write: %w", err)
	}
	return nil
}

// Event is a melody note read back from a file written by Write.
type Event struct {
	Start float64 // Seconds from the start of the file
	End   float64
	Key   uint8
	Cents float64 // Pitch bend in effect when the note started
}

// Hz returns the sounding frequency of the event.
func (e Event) Hz() float64 {
	return 440 * math.Pow(2, (float64(e.Key)-69+e.Cents/100)/12)
}

// Read decodes the melody channel of an SMF written by Write. Percussion
// is ignored.
func Read(r io.Reader) ([]Event, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("midiexport: read: %w", err)
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return nil, fmt.Errorf("midiexport: unsupported time format %v", s.TimeFormat)
	}
	perSecond := float64(mt) * tempoBPM / 60

	var (
		events []Event
		open   = map[uint8]int{}
		cents  float64
	)
	for _, tr := range s.Tracks {
		var tick uint64
		for _, ev := range tr {
			tick += uint64(ev.Delta)
			t := float64(tick) / perSecond
			msg := midi.Message(ev.Message)

			var ch, key, vel uint8
			var rel int16
			var abs uint16
			switch {
			case msg.GetPitchBend(&ch, &rel, &abs) && ch == melodyChannel:
				cents = float64(rel) / 8192 * bendRangeCents
			case msg.GetNoteOn(&ch, &key, &vel) && ch == melodyChannel && vel > 0:
				open[key] = len(events)
				events = append(events, Event{Start: t, Key: key, Cents: cents})
			case (msg.GetNoteOff(&ch, &key, &vel) || msg.GetNoteOn(&ch, &key, &vel)) && ch == melodyChannel:
				if i, ok := open[key]; ok {
					events[i].End = t
					delete(open, key)
				}
			}
		}
	}
	return events, nil
}
