package tam

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Observation is one tabulated (energy, TAM_max) point.
type Observation struct {
	Energy float64
	TAMMax float64
}

// ReadObservations loads the first two columns of a whitespace- or
// tab-delimited numeric table. Blank lines and '#' comments are skipped;
// every data row must have the same number of columns (at least two).
func ReadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	defer func() {
		_ = f.Close()
	}()

	obs, err := ParseObservations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ParseObservations is ReadObservations over an io.Reader.
func ParseObservations(r io.Reader) ([]Observation, error) {
	var (
		obs  []Observation
		cols int
		line int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		if cols == 0 {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: need at least 2 columns, got %d", ErrFile, line, len(fields))
			}
			cols = len(fields)
		}
		if len(fields) != cols {
			return nil, fmt.Errorf("%w: line %d: got %d columns, expected %d", ErrFile, line, len(fields), cols)
		}

		vals := make([]float64, len(fields))
		for i, fld := range fields {
			v, err := strconv.ParseFloat(fld, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %q is not a number", ErrFile, line, i+1, fld)
			}
			vals[i] = v
		}
		obs = append(obs, Observation{Energy: vals[0], TAMMax: vals[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrFile)
	}
	return obs, nil
}

// Filter returns the observations with energy strictly above minEnergy,
// in input order.
func Filter(obs []Observation, minEnergy float64) []Observation {
	var out []Observation
	for _, o := range obs {
		if o.Energy > minEnergy {
			out = append(out, o)
		}
	}
	return out
}

func columns(obs []Observation) (energy, tam []float64) {
	energy = make([]float64, len(obs))
	tam = make([]float64, len(obs))
	for i, o := range obs {
		energy[i], tam[i] = o.Energy, o.TAMMax
	}
	return energy, tam
}
