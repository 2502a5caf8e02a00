// Package pdftext extracts machine-readable text from filing PDFs.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls the text stream out of a PDF. An empty result with a nil
// error means the document carries no extractable text (an analog filing).
type Extractor interface {
	Text(data []byte) (string, error)
}

// PlainText extracts row-oriented text with ledongthuc/pdf, keeping one
// trade line per output line so downstream regex scanning can anchor on
// line starts.
type PlainText struct{}

var _ Extractor = PlainText{}

// Text extracts all pages. The pdf library panics on some malformed or
// image-only files, so extraction failures are recovered and reported as
// errors rather than crashing the worker.
func (PlainText) Text(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction crashed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					builder.WriteByte(' ')
				}
				builder.WriteString(word.S)
			}
			builder.WriteByte('\n')
		}
	}
	return builder.String(), nil
}
