package server

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/wesleyorama2/htmlbench/internal/catalog"
)

const usageMarkdown = `### Usage:

Browser: click one of the links above.

Command line: ` + "`curl %s/api/html/small`" + `

### Endpoints:

- ` + "`GET /api/html/<size>`" + ` - Download HTML file
- ` + "`GET /api/info`" + ` - File information
- ` + "`GET /api/status`" + ` - Server status
- ` + "`GET /metrics`" + ` - Prometheus metrics
`

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>HTML File Server</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
        h1 { color: #333; }
        h3 { color: #666; margin-top: 25px; }
        a { color: #0066cc; text-decoration: none; }
        a:hover { text-decoration: underline; }
        .files { margin: 15px 0; }
        .files a { display: inline-block; margin: 5px 10px 5px 0; padding: 8px 12px; background: #f0f0f0; border-radius: 4px; }
        .info { background: #f9f9f9; padding: 15px; border-radius: 4px; margin: 20px 0; }
        code { background: #eee; padding: 2px 4px; border-radius: 2px; }
    </style>
</head>
<body>
    <h1>HTML File Server</h1>
    <p>Simple API serving HTML files of different sizes.</p>

    <h3>Available Files:</h3>
    <div class="files">
{{- range .Sizes}}
        <a href="{{.Endpoint}}">{{.Label}}</a>
{{- end}}
    </div>

    <h3>API Info:</h3>
    <div class="files">
        <a href="/api/info">File Info</a>
        <a href="/api/status">Server Status</a>
    </div>

    <div class="info">
{{.Usage}}
    </div>

    <p><small>Server time: {{.ServerTime}}</small></p>
</body>
</html>
`))

type homeData struct {
	Sizes      []catalog.Size
	Usage      template.HTML
	ServerTime string
}

// renderUsage converts the usage prose to HTML. baseURL appears in the curl
// example.
func renderUsage(baseURL string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(fmt.Sprintf(usageMarkdown, baseURL)), &buf); err != nil {
		return "", fmt.Errorf("cannot render usage: %w", err)
	}
	return template.HTML(buf.String()), nil
}
