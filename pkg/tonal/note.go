package tonal

import "fmt"

// Mode selects how an attempt is matched against its target.
type Mode string

const (
	// Absolute compares sung pitch with the target pitch directly.
	Absolute Mode = "absolute"
	// Relative cancels a constant offset and compares melodic contour.
	Relative Mode = "relative"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == Absolute || m == Relative
}

// ParseMode parses a mode name; the empty string means Absolute.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Absolute:
		return Absolute, nil
	case Relative:
		return Relative, nil
	}
	return "", fmt.Errorf("tonal: unknown mode %q", s)
}

// Note is one note of an exercise. Notes of an exercise are contiguous:
// the End of one note is the Start of the next.
type Note struct {
	Index int     `json:"index" yaml:"index" msgpack:"index"`
	Start float64 `json:"start" yaml:"start" msgpack:"start"`
	End   float64 `json:"end" yaml:"end" msgpack:"end"`
	Semi  int     `json:"semi" yaml:"semi" msgpack:"semi"`
	Hz    float64 `json:"hz" yaml:"hz" msgpack:"hz"`
	Label string  `json:"label" yaml:"label" msgpack:"label"`
	Core  bool    `json:"core" yaml:"core" msgpack:"core"`
}

// Duration returns the length of the note in seconds.
func (n Note) Duration() float64 {
	return n.End - n.Start
}
