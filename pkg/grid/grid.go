// Package grid builds energy grids out of arange-style segments and literal
// value lists, and parses them from command-line strings.
package grid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

var (
	// ErrEmpty indicates a grid with no points.
	ErrEmpty = errors.New("grid: empty")

	// ErrStep indicates a range segment with a zero or non-finite step.
	ErrStep = errors.New("grid: invalid step")

	// ErrSyntax indicates a malformed grid expression.
	ErrSyntax = errors.New("grid: syntax error")
)

// Segment is either a half-open range [Start, Stop) walked with Step, or a
// literal list of Values when Values is non-empty.
type Segment struct {
	Start  float64   `mapstructure:"start" json:"start,omitempty"`
	Stop   float64   `mapstructure:"stop" json:"stop,omitempty"`
	Step   float64   `mapstructure:"step" json:"step,omitempty"`
	Values []float64 `mapstructure:"values" json:"values,omitempty"`
}

// Range returns the segment [start, stop) with the given step.
func Range(start, stop, step float64) Segment {
	return Segment{Start: start, Stop: stop, Step: step}
}

// Values returns a literal segment.
func Values(v ...float64) Segment {
	return Segment{Values: v}
}

// Points expands the segment. Ranges follow arange semantics: the stop value
// is excluded and the count is ceil((Stop-Start)/Step).
func (s Segment) Points() ([]float64, error) {
	if len(s.Values) > 0 {
		return append([]float64(nil), s.Values...), nil
	}
	if s.Step == 0 || math.IsNaN(s.Step) || math.IsInf(s.Step, 0) {
		return nil, fmt.Errorf("%w: %g in %s", ErrStep, s.Step, s)
	}
	n := int(math.Ceil((s.Stop - s.Start) / s.Step))
	if n <= 0 {
		return nil, nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Start + float64(i)*s.Step
	}
	return out, nil
}

func (s Segment) String() string {
	if len(s.Values) > 0 {
		parts := make([]string, len(s.Values))
		for i, v := range s.Values {
			parts[i] = fmtFloat(v)
		}
		return strings.Join(parts, ",")
	}
	return fmtFloat(s.Start) + ":" + fmtFloat(s.Stop) + ":" + fmtFloat(s.Step)
}

// Build concatenates the expanded segments in order. Duplicate points where
// segments overlap are kept.
func Build(segs []Segment) ([]float64, error) {
	var out []float64
	for _, s := range segs {
		pts, err := s.Points()
		if err != nil {
			return nil, err
		}
		out = append(out, pts...)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Default returns the kinetic energy grid (cm⁻¹) used for the CO–N2 runs:
// 1..50 by 1, 50..100 by 2, 100..300 by 5, 300..500 by 10, 500..1000 by 100,
// then 1500 and 2000.
func Default() []Segment {
	return []Segment{
		Range(1, 51, 1),
		Range(50, 101, 2),
		Range(100, 301, 5),
		Range(300, 501, 10),
		Range(500, 1001, 100),
		Values(1500, 2000),
	}
}

// Parse reads a comma-separated grid expression. Each item is either a
// number or start:stop[:step] (step defaults to 1), e.g.
//
//	1:51:1,50:101:2,1500,2000
func Parse(expr string) ([]Segment, error) {
	var (
		segs    []Segment
		literal []float64
	)
	flush := func() {
		if len(literal) > 0 {
			segs = append(segs, Values(literal...))
			literal = nil
		}
	}

	for _, item := range strings.Split(expr, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, ":") {
			v, err := strconv.ParseFloat(item, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrSyntax, item, err)
			}
			literal = append(literal, v)
			continue
		}

		flush()
		parts := strings.Split(item, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("%w: %q: want start:stop[:step]", ErrSyntax, item)
		}
		nums := []float64{0, 0, 1}
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrSyntax, item, err)
			}
			nums[i] = v
		}
		seg := Range(nums[0], nums[1], nums[2])
		if _, err := seg.Points(); err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	flush()

	if len(segs) == 0 {
		return nil, ErrEmpty
	}
	return segs, nil
}

// Flag is a pflag.Value holding grid segments. The first Set replaces the
// initial segments; later Sets append, so the flag may be repeated.
type Flag struct {
	Segments []Segment
	changed  bool
}

var _ pflag.Value = (*Flag)(nil)

// NewFlag returns a Flag pre-filled with def.
func NewFlag(def []Segment) *Flag {
	return &Flag{Segments: def}
}

func (f *Flag) String() string {
	parts := make([]string, len(f.Segments))
	for i, s := range f.Segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

func (f *Flag) Set(v string) error {
	segs, err := Parse(v)
	if err != nil {
		return err
	}
	if !f.changed {
		f.Segments = nil
		f.changed = true
	}
	f.Segments = append(f.Segments, segs...)
	return nil
}

func (f *Flag) Type() string { return "grid" }

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
