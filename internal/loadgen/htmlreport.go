package loadgen

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/util"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Load test {{.RunID}}</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; margin: 2rem; color: #1e293b; }
table { border-collapse: collapse; margin-top: 1rem; }
th, td { border: 1px solid #e2e8f0; padding: 0.4rem 0.8rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
.failed { color: #ef4444; }
</style>
</head>
<body>
<h1>Load test report</h1>
<p>Run {{.RunID}}, {{.Start}} to {{.End}} ({{.Duration}})</p>
<ul>
<li>Successful requests: {{.Successes}}</li>
<li>Failed requests: <span class="{{if .Failures}}failed{{end}}">{{.Failures}}</span></li>
<li>Average RPS: {{.AverageRPS}}</li>
<li>Data received: {{.Received}}</li>
</ul>
<table>
<tr><th>Name</th><th>Requests</th><th>Failures</th><th>p50</th><th>p90</th><th>p95</th><th>p99</th><th>Max</th><th>Received</th></tr>
{{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Requests}}</td><td>{{.Failures}}</td><td>{{.P50}}</td><td>{{.P90}}</td><td>{{.P95}}</td><td>{{.P99}}</td><td>{{.Max}}</td><td>{{.Received}}</td></tr>
{{end}}</table>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type reportRow struct {
	Name               string
	Requests, Failures string
	P50, P90, P95, P99 string
	Max, Received      string
}

type reportData struct {
	RunID      string
	Start, End string
	Duration   string
	Successes  string
	Failures   int64
	AverageRPS string
	Received   string
	Rows       []reportRow
}

func row(name string, requests, failures, bytes int64, l LatencyStats) reportRow {
	return reportRow{
		Name:     name,
		Requests: output.FormatNumber(requests),
		Failures: output.FormatNumber(failures),
		P50:      output.FormatLatency(l.P50),
		P90:      output.FormatLatency(l.P90),
		P95:      output.FormatLatency(l.P95),
		P99:      output.FormatLatency(l.P99),
		Max:      output.FormatLatency(l.Max),
		Received: output.FormatBytes(uint64(bytes)),
	}
}

// GenerateHTMLString renders a self-contained HTML page for the report.
func GenerateHTMLString(r *Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report cannot be nil")
	}

	data := reportData{
		RunID:      r.RunID,
		Start:      r.Start.Format(util.DisplayLayout),
		End:        r.End.Format(util.DisplayLayout),
		Duration:   output.FormatDuration(r.Duration),
		Successes:  output.FormatNumber(r.TotalRequests),
		Failures:   r.Totals.Failed,
		AverageRPS: "N/A",
		Received:   output.FormatBytes(uint64(r.Totals.Bytes)),
	}
	if rps, ok := r.AverageRPS(); ok {
		data.AverageRPS = fmt.Sprintf("%.2f", rps)
	}
	for _, t := range r.Totals.Tasks {
		data.Rows = append(data.Rows, row(t.Name, t.Requests, t.Failures, t.Bytes, t.Latency))
	}
	data.Rows = append(data.Rows, row("Aggregated", r.Totals.Requests, r.Totals.Failed, r.Totals.Bytes, r.Totals.Latency))

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GenerateHTML writes the HTML report to path.
func GenerateHTML(r *Report, path string) error {
	html, err := GenerateHTMLString(r)
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}
