// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// PDF returns a minimal, well-formed PDF with one page per element of pages. Each page
// shows its lines top to bottom in Helvetica. A page with no lines carries no text.
func PDF(pages ...[]string) []byte {
	return build(0, streams(pages))
}

// PDFStreams is PDF with one raw content stream per page, for layouts such as TJ arrays
// or Tm positioning. Font /F1 is Helvetica.
func PDFStreams(pages ...string) []byte {
	return build(0, pages)
}

// PaddedPDF is PDF padded with comment bytes so the result is at least minSize bytes.
func PaddedPDF(minSize int, pages ...[]string) []byte {
	doc := build(0, streams(pages))
	if len(doc) >= minSize {
		return doc
	}
	return build(minSize-len(doc), streams(pages))
}

func streams(pages [][]string) []string {
	if len(pages) == 0 {
		pages = [][]string{nil}
	}
	out := make([]string, len(pages))
	for i, lines := range pages {
		out[i] = contentStream(lines)
	}
	return out
}

func build(padding int, pages []string) []byte {

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	if padding > 0 {
		// each comment line costs its content plus "%" and "\n"
		for padding > 0 {
			n := padding - 2
			if n > 70 {
				n = 70
			}
			if n < 0 {
				n = 0
			}
			buf.WriteString("%" + strings.Repeat("x", n) + "\n")
			padding -= n + 2
		}
	}

	total := 3 + 2*len(pages)
	offsets := make([]int, total+1)
	writeObj := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, stream := range pages {
		pageID, contentID := 4+2*i, 5+2*i
		writeObj(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentID))
		writeObj(contentID, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= total; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return buf.Bytes()
}

func contentStream(lines []string) string {
	if len(lines) == 0 {
		return "q Q"
	}
	var b strings.Builder
	b.WriteString("BT /F1 12 Tf 72 720 Td")
	for i, line := range lines {
		if i > 0 {
			b.WriteString(" 0 -16 Td")
		}
		fmt.Fprintf(&b, " (%s) Tj", escape(line))
	}
	b.WriteString(" ET")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
