package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"pairbench/internal/loadtest"
)

// WriteHTML renders the comparison report as a standalone HTML page
// with per-scenario metric tables and CSS bar charts.
func WriteHTML(r *loadtest.Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return htmlTmpl.Execute(f, newHTMLData(r))
}

type htmlData struct {
	Report    *loadtest.Report
	Generated string
	Rows      []htmlRow
}

type htmlRow struct {
	Entry loadtest.Entry

	AvgAMs, AvgBMs float64
	P95AMs, P95BMs float64
	QPSA, QPSB     float64

	// Bar widths in percent, scaled against the row maximum.
	AvgABar, AvgBBar float64
	QPSABar, QPSBBar float64
}

func newHTMLData(r *loadtest.Report) htmlData {
	d := htmlData{
		Report:    r,
		Generated: time.Now().Format(time.RFC1123),
	}
	for _, e := range r.Entries {
		row := htmlRow{
			Entry:  e,
			AvgAMs: ms(e.A.Avg), AvgBMs: ms(e.B.Avg),
			P95AMs: ms(e.A.P95), P95BMs: ms(e.B.P95),
			QPSA: e.A.ThroughputQPS, QPSB: e.B.ThroughputQPS,
		}
		row.AvgABar, row.AvgBBar = scalePair(row.AvgAMs, row.AvgBMs)
		row.QPSABar, row.QPSBBar = scalePair(row.QPSA, row.QPSB)
		d.Rows = append(d.Rows, row)
	}
	return d
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func scalePair(a, b float64) (float64, float64) {
	max := a
	if b > max {
		max = b
	}
	if max <= 0 {
		return 0, 0
	}
	return a / max * 100, b / max * 100
}

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"f2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"dur": func(d time.Duration) string { return fmt.Sprintf("%.2fms", ms(d)) },
}).Parse(htmlPage))

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Report.Target}}: {{.Report.BackendA}} vs {{.Report.BackendB}}</title>
<style>
  body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem; color: #222; }
  h1 { font-size: 1.4rem; }
  h2 { font-size: 1.1rem; margin-top: 2rem; }
  table { border-collapse: collapse; margin-top: 0.5rem; }
  th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
  th:first-child, td:first-child { text-align: left; }
  .skipped { color: #b00; font-style: italic; }
  .bars { margin: 0.4rem 0 1rem; }
  .bar { height: 14px; margin: 2px 0; border-radius: 2px; }
  .bar.a { background: #4472c4; }
  .bar.b { background: #70ad47; }
  .legend span { display: inline-block; margin-right: 1.5rem; font-size: 0.85rem; }
  .swatch { display: inline-block; width: 12px; height: 12px; margin-right: 4px; border-radius: 2px; }
  .errors { font-size: 0.85rem; color: #666; }
</style>
</head>
<body>
<h1>Load comparison: {{.Report.Target}}</h1>
<p>
  {{.Report.BackendA}} vs {{.Report.BackendB}} &middot;
  query <code>{{.Report.Query.Type}}</code> &middot;
  run {{.Report.ID}} &middot; generated {{.Generated}}
</p>
<p class="legend">
  <span><span class="swatch" style="background:#4472c4"></span>{{.Report.BackendA}}</span>
  <span><span class="swatch" style="background:#70ad47"></span>{{.Report.BackendB}}</span>
</p>

{{range .Rows}}
<h2>{{.Entry.Spec.Users}} concurrent users</h2>
{{if .Entry.Skipped}}
<p class="skipped">Scenario skipped: {{.Entry.Err}}</p>
{{else}}
<table>
  <tr><th>Metric</th><th>{{$.Report.BackendA}}</th><th>{{$.Report.BackendB}}</th></tr>
  <tr><td>Total queries</td><td>{{.Entry.A.TotalQueries}}</td><td>{{.Entry.B.TotalQueries}}</td></tr>
  <tr><td>Success rate</td><td>{{pct .Entry.A.SuccessRate}}</td><td>{{pct .Entry.B.SuccessRate}}</td></tr>
  <tr><td>Avg latency</td><td>{{dur .Entry.A.Avg}}</td><td>{{dur .Entry.B.Avg}}</td></tr>
  <tr><td>Median</td><td>{{dur .Entry.A.Median}}</td><td>{{dur .Entry.B.Median}}</td></tr>
  <tr><td>p95</td><td>{{dur .Entry.A.P95}}</td><td>{{dur .Entry.B.P95}}</td></tr>
  <tr><td>p99</td><td>{{dur .Entry.A.P99}}</td><td>{{dur .Entry.B.P99}}</td></tr>
  <tr><td>Min / Max</td><td>{{dur .Entry.A.Min}} / {{dur .Entry.A.Max}}</td><td>{{dur .Entry.B.Min}} / {{dur .Entry.B.Max}}</td></tr>
  <tr><td>Throughput (QPS)</td><td>{{f2 .Entry.A.ThroughputQPS}}</td><td>{{f2 .Entry.B.ThroughputQPS}}</td></tr>
  <tr><td>Records returned</td><td>{{.Entry.A.TotalRecords}}</td><td>{{.Entry.B.TotalRecords}}</td></tr>
</table>
<div class="bars">
  <div>Avg latency</div>
  <div class="bar a" style="width: {{f2 .AvgABar}}%"></div>
  <div class="bar b" style="width: {{f2 .AvgBBar}}%"></div>
  <div>Throughput</div>
  <div class="bar a" style="width: {{f2 .QPSABar}}%"></div>
  <div class="bar b" style="width: {{f2 .QPSBBar}}%"></div>
</div>
{{if .Entry.A.Errors}}<p class="errors">{{$.Report.BackendA}} errors: {{range .Entry.A.Errors}}{{.}}; {{end}}</p>{{end}}
{{if .Entry.B.Errors}}<p class="errors">{{$.Report.BackendB}} errors: {{range .Entry.B.Errors}}{{.}}; {{end}}</p>{{end}}
{{end}}
{{end}}
</body>
</html>
`
