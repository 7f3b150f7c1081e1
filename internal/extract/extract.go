package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

var (
	// ErrUnsupported is returned for payloads that are not PDF documents.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrMalformed is returned when the PDF cannot be parsed.
	ErrMalformed = errors.New("malformed pdf")
)

var pdfMagic = []byte("%PDF-")

// Text extracts the plain text of a PDF résumé held in memory.
// Glyphs are read page by page in content order and grouped into lines by baseline.
// Words are percent-decoded, and lines are joined with single spaces.
// A document without any text yields "" and a nil error.
func Text(ctx context.Context, data []byte, mediaType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !isPDF(data, mediaType, fileName) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, describe(mediaType, fileName))
	}
	return extractPDF(ctx, data)
}

func isPDF(data []byte, mediaType string, fileName string) bool {
	if bytes.HasPrefix(data, pdfMagic) {
		return true
	}
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	if clean == mimePDF {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

func describe(mediaType, fileName string) string {
	if mediaType != "" {
		return mediaType
	}
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return "unknown"
}

func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		writeGlyphs(&b, page.Content().Text)
		b.WriteByte(' ')
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = decodeRun(w)
	}
	return collapseSpace(strings.Join(words, " ")), nil
}

// writeGlyphs appends glyphs in content order. A baseline change starts a new line and a
// horizontal jump wider than a fifth of the font size starts a new word; both become a space.
func writeGlyphs(b *strings.Builder, glyphs []pdf.Text) {
	var prev *pdf.Text
	for i := range glyphs {
		g := &glyphs[i]
		if prev != nil {
			size := math.Max(math.Abs(prev.FontSize), 1)
			newLine := math.Abs(g.Y-prev.Y) > size/2
			gap := g.X - (prev.X + prev.W)
			if newLine || gap > size/5 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		prev = g
	}
}

// decodeRun undoes percent-encoding some producers leave in text.
// A word that does not decode cleanly is kept verbatim.
func decodeRun(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == unicode.ReplacementChar || r == 0 {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
