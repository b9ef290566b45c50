package parser

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"testing"

	"github.com/wudi/pdfobj/filters"
)

// pdfBuilder writes test files object by object and records offsets.
type pdfBuilder struct {
	buf  bytes.Buffer
	offs map[int]int64
}

func newPDF(version string) *pdfBuilder {
	b := &pdfBuilder{offs: map[int]int64{}}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

func (b *pdfBuilder) obj(num int, body string) {
	b.offs[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *pdfBuilder) stream(num int, dict string, data []byte) {
	b.offs[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nstream\n", num, dict)
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
}

// table writes a classic xref table listing the recorded objects, one
// subsection each, and the trailer.
func (b *pdfBuilder) table(size int, trailerExtra string) []byte {
	at := b.buf.Len()
	b.buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		if off, ok := b.offs[n]; ok {
			fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", n, off)
		}
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d%s >>\nstartxref\n%d\n%%%%EOF\n", size, trailerExtra, at)
	return b.buf.Bytes()
}

func zlibBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib: %v", err)
	}
	return buf.Bytes()
}

type xrefRow struct {
	kind   byte
	field2 int64
	field3 byte
}

// xrefStream writes a /W [1 3 1] cross-reference stream with Up-filtered
// rows as object num and finishes the file.
func (b *pdfBuilder) xrefStream(t *testing.T, num int, rows []xrefRow, trailerExtra string) []byte {
	t.Helper()
	at := int64(b.buf.Len())
	var recs []byte
	for _, r := range rows {
		f2 := r.field2
		if r.kind == 1 && f2 < 0 {
			f2 = at
		}
		recs = append(recs, r.kind, byte(f2>>16), byte(f2>>8), byte(f2), r.field3)
	}
	enc, err := filters.EncodeUp(recs, 5)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	body := zlibBytes(t, enc)
	dict := fmt.Sprintf("<< /Type /XRef /Size %d /W [1 3 1] /Filter /FlateDecode /DecodeParms << /Columns 5 /Predictor 12 >> /Length %d%s >>",
		len(rows), len(body), trailerExtra)
	b.stream(num, dict, body)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", at)
	return b.buf.Bytes()
}
