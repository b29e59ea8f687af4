package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const (
	pageTail      = "</body>\n</html>\n"
	commentFrame  = len("<!---->")
	paragraphText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
)

// Page renders a valid HTML document of exactly n bytes.
func Page(title string, n int64) ([]byte, error) {
	head := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", title, title)
	if n < int64(len(head)+len(pageTail)) {
		return nil, fmt.Errorf("page of %d bytes is too small for %q", n, title)
	}

	var buf bytes.Buffer
	buf.Grow(int(n))
	buf.WriteString(head)

	budget := int(n) - len(pageTail)
	for i := 1; ; i++ {
		line := fmt.Sprintf("<p id=\"p%d\">%s</p>\n", i, paragraphText)
		if buf.Len()+len(line) > budget {
			break
		}
		buf.WriteString(line)
	}

	// Fill the remainder exactly.
	rest := budget - buf.Len()
	if rest >= commentFrame {
		buf.WriteString("<!--" + strings.Repeat("x", rest-commentFrame) + "-->")
	} else {
		buf.WriteString(strings.Repeat(" ", rest))
	}

	buf.WriteString(pageTail)
	return buf.Bytes(), nil
}

// Generate writes every file of the table into dir, creating it if needed.
// Existing files are overwritten.
func Generate(fs afero.Fs, dir string) ([]string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", dir, err)
	}

	written := make([]string, 0, len(sizes))
	for _, s := range sizes {
		data, err := Page(s.Label, s.Bytes)
		if err != nil {
			return written, err
		}

		path := Path(dir, s)
		if err := afero.WriteFile(fs, path, data, os.FileMode(0o644)); err != nil {
			return written, fmt.Errorf("cannot write %s: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}
