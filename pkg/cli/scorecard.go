package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/scoring"
	"github.com/haivivi/intone/pkg/tonal"
)

// Carder is implemented by values that render as a terminal card.
type Carder interface {
	Card() string
}

// Theme is the card color scheme.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Good    lipgloss.Color
	Fair    lipgloss.Color
	Poor    lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Good:    lipgloss.Color("#3fb950"),
	Fair:    lipgloss.Color("#d29922"),
	Poor:    lipgloss.Color("#f85149"),
}

// Styles are derived from a Theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Dim    lipgloss.Style
	theme  Theme
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
		theme:  t,
	}
}

// scoreStyle colors a 0..100 score.
func (s Styles) scoreStyle(score int) lipgloss.Style {
	c := s.theme.Poor
	switch {
	case score >= 80:
		c = s.theme.Good
	case score >= 50:
		c = s.theme.Fair
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// cardWidth is the outer width of a rendered card.
const cardWidth = 48

// ResultCard renders one attempt with its exercise and the question's
// first and best attempts.
type ResultCard struct {
	Result   *scoring.Result
	Exercise *exercise.Spec
	First    *scoring.Result
	Best     *scoring.Result
	Styles   Styles
}

// NewResultCard returns a card with the default theme.
func NewResultCard(r *scoring.Result, ex *exercise.Spec) *ResultCard {
	return &ResultCard{Result: r, Exercise: ex, Styles: NewStyles(DefaultTheme)}
}

// Card implements Carder.
func (c *ResultCard) Card() string {
	title := "attempt"
	status := ""
	if c.Result != nil {
		title = fmt.Sprintf("attempt %d", c.Result.AttemptIndex)
		status = string(c.Result.Mode)
	}
	if c.Exercise != nil {
		status = c.Exercise.ID + " " + status
	}

	b := newCardBuilder(c.Styles, cardWidth)
	b.title(title, strings.TrimSpace(status))
	b.section("score", c.scoreLines())
	if c.Exercise != nil {
		b.section("exercise", c.exerciseLines())
	}
	if lines := c.attemptLines(); len(lines) > 0 {
		b.section("attempts", lines)
	}
	if c.Result != nil && c.Result.Valid && len(c.Result.Curve) > 0 {
		b.section("pitch error", []string{Sparkline(c.Result.Curve, cardWidth-4)})
	}
	return b.String()
}

func (c *ResultCard) scoreLines() []string {
	r := c.Result
	if r == nil {
		return []string{c.Styles.Dim.Render("no attempt")}
	}
	if !r.Valid {
		return []string{c.Styles.scoreStyle(0).Render("not scored: " + string(r.FailReason))}
	}
	lines := []string{
		fmt.Sprintf("%-10s %s", "total", c.Styles.scoreStyle(r.Score).Render(fmt.Sprintf("%3d", r.Score))),
	}
	if s := r.Subscores; s != nil {
		for _, row := range []struct {
			name  string
			value int
		}{
			{"accuracy", s.Accuracy},
			{"stability", s.Stability},
			{"lock", s.Lock},
			{"rhythm", s.Rhythm},
		} {
			lines = append(lines, fmt.Sprintf("%-10s %3d %s", row.name, row.value,
				c.Styles.scoreStyle(row.value).Render(Bar(row.value, 24))))
		}
	}
	if r.Mode == tonal.Relative && r.OffsetCents != 0 {
		lines = append(lines, c.Styles.Dim.Render("offset "+FormatCents(r.OffsetCents)))
	}
	lines = append(lines, c.Styles.Dim.Render("voice start "+FormatSeconds(r.VoiceStart)))
	return lines
}

func (c *ResultCard) exerciseLines() []string {
	ex := c.Exercise
	labels := make([]string, len(ex.Notes))
	for i, n := range ex.Notes {
		labels[i] = n.Label
	}
	return []string{
		fmt.Sprintf("%s  %s  %s", ex.Difficulty, ex.Tuning, FormatSeconds(ex.Duration)),
		strings.Join(labels, " "),
	}
}

func (c *ResultCard) attemptLines() []string {
	var lines []string
	if c.First != nil {
		lines = append(lines, "first "+summary(c.First))
	}
	if c.Best != nil {
		lines = append(lines, "best  "+summary(c.Best))
	}
	return lines
}

func summary(r *scoring.Result) string {
	if !r.Valid {
		return fmt.Sprintf("#%d %s", r.AttemptIndex, r.FailReason)
	}
	return fmt.Sprintf("#%d %d", r.AttemptIndex, r.Score)
}

// Bar renders score as a bar of width cells.
func Bar(score, width int) string {
	score = max(0, min(100, score))
	full := int(math.Round(float64(score) * float64(width) / 100))
	return strings.Repeat("█", full) + strings.Repeat("░", width-full)
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the absolute cent error of the voiced points in
// curve, averaged into width columns, with 0¢ at the bottom and 100¢ or
// more at the top. Columns without voice are blank.
func Sparkline(curve []scoring.CurvePoint, width int) string {
	if len(curve) == 0 || width <= 0 {
		return ""
	}
	width = min(width, len(curve))
	out := make([]rune, width)
	for col := range width {
		lo := col * len(curve) / width
		hi := (col + 1) * len(curve) / width
		var sum float64
		var n int
		for _, p := range curve[lo:hi] {
			if p.Voiced {
				sum += math.Abs(p.CentErr)
				n++
			}
		}
		if n == 0 {
			out[col] = ' '
			continue
		}
		level := int(math.Min(sum/float64(n), 100) / 100 * float64(len(sparkLevels)-1))
		out[col] = sparkLevels[level]
	}
	return string(out)
}

// cardBuilder draws a box with a title line and labeled sections.
type cardBuilder struct {
	styles Styles
	width  int
	lines  []string
}

func newCardBuilder(s Styles, width int) *cardBuilder {
	b := &cardBuilder{styles: s, width: width}
	b.lines = append(b.lines, s.Border.Render("╭"+strings.Repeat("─", width-2)+"╮"))
	return b
}

func (b *cardBuilder) title(title, status string) {
	t := b.styles.Title.Render(title)
	st := ""
	if status != "" {
		st = b.styles.Dim.Render("[" + status + "]")
	}
	b.row(t + " " + st)
}

func (b *cardBuilder) section(label string, content []string) {
	l := b.styles.Label.Render(label)
	pad := max(0, b.width-3-lipgloss.Width(l))
	b.lines = append(b.lines, b.styles.Border.Render("├─")+l+
		b.styles.Border.Render(strings.Repeat("─", pad)+"┤"))
	for _, text := range content {
		b.row(text)
	}
}

func (b *cardBuilder) row(text string) {
	inner := b.width - 4
	if lipgloss.Width(text) > inner {
		text = truncate(text, inner-1) + "…"
	}
	bc := b.styles.Border
	b.lines = append(b.lines, bc.Render("│")+" "+text+
		strings.Repeat(" ", max(0, inner-lipgloss.Width(text)))+" "+bc.Render("│"))
}

func (b *cardBuilder) String() string {
	return strings.Join(append(b.lines,
		b.styles.Border.Render("╰"+strings.Repeat("─", b.width-2)+"╯")), "\n")
}

// truncate cuts s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := 0
	for i, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			return s[:i]
		}
		w += rw
	}
	return s
}
