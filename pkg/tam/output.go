package tam

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Header names the two output columns. It is written as a comment line so
// the file can be reloaded by the same table readers.
const Header = "Energy TAM_max"

// Row is one line of the prediction file.
type Row struct {
	Energy float64
	TAMMax int
}

// WritePredictions writes the header and one "<energy %.4f> <TAM_max %d>"
// line per prediction, in grid order.
func WritePredictions(path string, preds []Prediction) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrOutput, cerr)
		}
	}()

	if err := WritePredictionsTo(f, preds); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutput, path, err)
	}
	return nil
}

// WritePredictionsTo is WritePredictions over an io.Writer.
func WritePredictionsTo(w io.Writer, preds []Prediction) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "# %s\n", Header); err != nil {
		return err
	}
	for _, p := range preds {
		if _, err := fmt.Fprintf(bw, "%.4f %d\n", p.Energy, p.TAMMax); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPredictions parses a file produced by WritePredictions.
func ReadPredictions(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var (
		rows []Row
		line int
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s:%d: got %d columns, expected 2", ErrFile, path, line, len(fields))
		}
		e, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrFile, path, line, err)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrFile, path, line, err)
		}
		rows = append(rows, Row{Energy: e, TAMMax: n})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	return rows, nil
}
