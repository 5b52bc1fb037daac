package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// reportRow is one tick's worth of output, independent of the field
// expression language: every requested pid's raw load, plus power/energy
// when the energy extension was requested.
type reportRow struct {
	At     time.Time `json:"time"`
	Pid    int32     `json:"pid"`
	Load   float32   `json:"load"`
	Watts  float32   `json:"watts,omitempty"`
	Joules float32   `json:"joules_cum,omitempty"`
}

// reporter optionally mirrors each tick's values to CSV/JSON/HTML files,
// adapted from cmd/consumption/main.go's file-output plumbing.
type reporter struct {
	pids []int32

	csvFile *os.File
	csvW    *csv.Writer

	jsonFile  *os.File
	jsonCount int

	htmlFile *os.File
	rows     []reportRow
}

func newReporter(csvPath, jsonPath, htmlPath string, pids []int32) (*reporter, error) {
	r := &reporter{pids: pids}

	if csvPath != "" {
		if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
			return nil, fmt.Errorf("report: csv dir: %w", err)
		}
		f, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("report: create csv: %w", err)
		}
		r.csvFile = f
		r.csvW = csv.NewWriter(f)
		_ = r.csvW.Write([]string{"time", "pid", "load", "watts", "joules_cum"})
		r.csvW.Flush()
	}

	if jsonPath != "" {
		if err := os.MkdirAll(filepath.Dir(jsonPath), 0o755); err != nil {
			return nil, fmt.Errorf("report: json dir: %w", err)
		}
		f, err := os.Create(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("report: create json: %w", err)
		}
		r.jsonFile = f
		_, _ = f.WriteString("[\n")
	}

	if htmlPath != "" {
		if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
			return nil, fmt.Errorf("report: html dir: %w", err)
		}
		f, err := os.Create(htmlPath)
		if err != nil {
			return nil, fmt.Errorf("report: create html: %w", err)
		}
		r.htmlFile = f
	}

	return r, nil
}

// writeRow records one tick. power/joules may be nil when the energy
// extension wasn't requested.
func (r *reporter) writeRow(at time.Time, loads, power, joules []float32) {
	if r.csvW == nil && r.jsonFile == nil && r.htmlFile == nil {
		return
	}
	for i, pid := range r.pids {
		row := reportRow{At: at, Pid: pid, Load: loads[i]}
		if i < len(power) {
			row.Watts = power[i]
		}
		if i < len(joules) {
			row.Joules = joules[i]
		}

		if r.csvW != nil {
			_ = r.csvW.Write([]string{
				at.Format(time.RFC3339),
				strconv.Itoa(int(pid)),
				strconv.FormatFloat(float64(row.Load), 'f', 6, 32),
				strconv.FormatFloat(float64(row.Watts), 'f', 6, 32),
				strconv.FormatFloat(float64(row.Joules), 'f', 6, 32),
			})
		}
		if r.jsonFile != nil {
			b, _ := json.MarshalIndent(row, "  ", "  ")
			if r.jsonCount > 0 {
				_, _ = r.jsonFile.WriteString(",\n")
			}
			_, _ = r.jsonFile.Write(b)
			r.jsonCount++
		}
		if r.htmlFile != nil {
			r.rows = append(r.rows, row)
		}
	}
	if r.csvW != nil {
		r.csvW.Flush()
	}
}

func (r *reporter) close() {
	if r.csvW != nil {
		r.csvW.Flush()
	}
	if r.csvFile != nil {
		_ = r.csvFile.Close()
	}
	if r.jsonFile != nil {
		_, _ = r.jsonFile.WriteString("\n]\n")
		_ = r.jsonFile.Close()
	}
	if r.htmlFile != nil {
		var buf bytes.Buffer
		_ = reportTemplate.Execute(&buf, r.rows)
		_, _ = r.htmlFile.Write(buf.Bytes())
		_ = r.htmlFile.Close()
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>treeload report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
</style>
<h1>treeload report</h1>
<table>
<thead><tr><th>time</th><th>pid</th><th>load</th><th>watts</th><th>joules (cum)</th></tr></thead>
<tbody>
{{range .}}
<tr>
<td style="text-align:left">{{.At.Format "2006-01-02 15:04:05"}}</td>
<td>{{.Pid}}</td>
<td>{{printf "%.4f" .Load}}</td>
<td>{{printf "%.3f" .Watts}}</td>
<td>{{printf "%.3f" .Joules}}</td>
</tr>
{{end}}
</tbody>
</table>
</html>`))
