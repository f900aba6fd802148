// Package report writes a run's fit summary and per-grid predictions as
// CSV, JSON or HTML.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ja7ad/tamtrack/pkg/tam"
)

// Summary describes the fit.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Input       string    `json:"input"`
	MinEnergy   float64   `json:"min_energy_for_fitting"`
	Offset      float64   `json:"energy_offset"`
	Solver      string    `json:"solver"`
	A           float64   `json:"a"`
	B           float64   `json:"b"`
	StdErrA     *float64  `json:"a_stderr,omitempty"`
	StdErrB     *float64  `json:"b_stderr,omitempty"`
	SSR         float64   `json:"ssr"`
	RMSE        float64   `json:"rmse"`
	RSquared    *float64  `json:"r_squared,omitempty"`
	Iterations  int       `json:"iterations"`
	Fitted      int       `json:"points_fitted"`
	Total       int       `json:"points_total"`
}

// Row is one grid point.
type Row struct {
	Energy     float64 `json:"energy"`
	HighEnergy float64 `json:"shifted_energy"`
	Raw        float64 `json:"raw"`
	TAMMax     int     `json:"tam_max"`
}

// Report is a complete run.
type Report struct {
	Summary Summary `json:"summary"`
	Rows    []Row   `json:"predictions"`
}

// New builds a report from a finished run.
func New(input string, minEnergy, offset float64, res *tam.Result) *Report {
	s := Summary{
		GeneratedAt: time.Now().UTC(),
		Input:       input,
		MinEnergy:   minEnergy,
		Offset:      offset,
		Solver:      res.Fit.Solver,
		A:           res.A,
		B:           res.B,
		SSR:         res.Fit.SSR,
		RMSE:        res.Fit.RMSE,
		RSquared:    finite(res.Fit.RSquared),
		Iterations:  res.Fit.Iterations,
		Fitted:      len(res.Fitted),
		Total:       len(res.Observations),
	}
	if len(res.Fit.StdErr) == 2 {
		s.StdErrA = finite(res.Fit.StdErr[0])
		s.StdErrB = finite(res.Fit.StdErr[1])
	}

	rows := make([]Row, len(res.Predictions))
	for i, p := range res.Predictions {
		rows[i] = Row{Energy: p.Energy, HighEnergy: p.HighEnergy, Raw: p.Raw, TAMMax: p.TAMMax}
	}
	return &Report{Summary: s, Rows: rows}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Writer renders a report into w.
type Writer func(w io.Writer, r *Report) error

// Save creates path (and its directory) and writes r with fn.
func Save(path string, r *Report, fn Writer) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("report: %w", cerr)
		}
	}()
	return fn(f, r)
}

// CSV writes one row per grid point after a header row.
func CSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"energy", "shifted_energy", "raw", "tam_max"}); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write([]string{
			fmtFloat(row.Energy), fmtFloat(row.HighEnergy), fmtFloat(row.Raw),
			strconv.Itoa(row.TAMMax),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON writes the indented report.
func JSON(w io.Writer, r *Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// HTML writes a standalone page with the summary and prediction table.
func HTML(w io.Writer, r *Report) error {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, r); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

var tpl = template.Must(template.New("rep").Funcs(template.FuncMap{
	"deref": func(p *float64) float64 { return *p },
}).Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>TAM_max Prediction Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
ul{margin:6px 0 14px;padding-left:20px}
.small{color:#555}
</style>

<h1>TAM_max Prediction Report</h1>

<p class="small">
Input: {{.Summary.Input}} &nbsp;|&nbsp;
Rows: {{len .Rows}} &nbsp;|&nbsp;
Generated: {{.Summary.GeneratedAt.Format "2006-01-02 15:04:05"}} UTC
</p>

<h2>Fit</h2>
<ul>
<li>Model: TAM_max = a &middot; E<sup>b</sup> ({{.Summary.Solver}})</li>
<li>a = {{printf "%.6f" .Summary.A}}{{if .Summary.StdErrA}} &plusmn; {{printf "%.6f" (deref .Summary.StdErrA)}}{{end}}</li>
<li>b = {{printf "%.6f" .Summary.B}}{{if .Summary.StdErrB}} &plusmn; {{printf "%.6f" (deref .Summary.StdErrB)}}{{end}}</li>
<li>Points fitted: {{.Summary.Fitted}} of {{.Summary.Total}} (E &gt; {{printf "%.4f" .Summary.MinEnergy}})</li>
<li>Energy offset: {{printf "%.4f" .Summary.Offset}}</li>
<li>SSR: {{printf "%.6g" .Summary.SSR}}, RMSE: {{printf "%.6g" .Summary.RMSE}}{{if .Summary.RSquared}}, R&sup2;: {{printf "%.6f" (deref .Summary.RSquared)}}{{end}}</li>
</ul>

<h2>Predictions</h2>
<table>
<thead>
<tr><th>Energy</th><th>E + offset</th><th>a(E+offset)<sup>b</sup></th><th>TAM_max</th></tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
<td>{{printf "%.4f" .Energy}}</td>
<td>{{printf "%.4f" .HighEnergy}}</td>
<td>{{printf "%.4f" .Raw}}</td>
<td>{{.TAMMax}}</td>
</tr>
{{end}}
</tbody>
</table>
</html>`))
