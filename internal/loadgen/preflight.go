package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/htmlbench/internal/catalog"
)

const statusSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status", "server", "timestamp", "endpoints", "sizes"],
  "properties": {
    "status": {"const": "ok"},
    "server": {"type": "string"},
    "timestamp": {"type": "string"},
    "endpoints": {"type": "array", "items": {"type": "string"}},
    "sizes": {"type": "array", "items": {"type": "string"}, "minItems": 1}
  }
}`

const maxPreflightBody = 1 << 20

var compiledStatusSchema = mustCompileSchema("status.json", statusSchema)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("invalid schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// PreflightResult describes the target server before load starts.
type PreflightResult struct {
	StatusOK     bool
	TotalFiles   int64
	MissingSizes []string
	Warnings     []string
}

// Preflight checks that the target looks like the HTML file server: the
// status document must match its schema and the inventory should list the
// files. Problems are collected as warnings; only a malformed base URL is
// an error.
func Preflight(ctx context.Context, client *http.Client, baseURL string) (*PreflightResult, error) {
	if _, err := http.NewRequest(http.MethodGet, baseURL, nil); err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", baseURL, err)
	}

	res := &PreflightResult{}

	if body, err := fetch(ctx, client, baseURL+"/api/status"); err != nil {
		res.warn("status check failed: %v", err)
	} else if err := validateStatus(body); err != nil {
		res.warn("unexpected /api/status response: %v", err)
	} else {
		res.StatusOK = true
	}

	body, err := fetch(ctx, client, baseURL+"/api/info")
	if err != nil {
		res.warn("info check failed: %v", err)
		return res, nil
	}

	total := gjson.GetBytes(body, "total_files")
	if !total.Exists() {
		res.warn("/api/info has no total_files field")
		return res, nil
	}
	res.TotalFiles = total.Int()

	for _, key := range catalog.Keys() {
		if !gjson.GetBytes(body, "files."+key+".exists").Bool() {
			res.MissingSizes = append(res.MissingSizes, key)
		}
	}
	if res.TotalFiles == 0 {
		res.warn("server has no HTML files; run 'htmlbench generate' on the server host")
	} else if len(res.MissingSizes) > 0 {
		res.warn("server is missing sizes %s; requests for them will fail", strings.Join(res.MissingSizes, ", "))
	}

	return res, nil
}

func (r *PreflightResult) warn(format string, a ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

func validateStatus(body []byte) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return compiledStatusSchema.Validate(doc)
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPreflightBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return body, nil
}
