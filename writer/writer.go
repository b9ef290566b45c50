// Package writer is the output side of the object registry: it appends
// bytes to a sink, numbers objects in call order, remembers where each
// object starts and finishes the file with the cross-reference table and
// trailer.
//
// A Writer belongs to one goroutine. Callers that build several documents
// concurrently use one Writer per document.
package writer

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wudi/pdfobj/ir/raw"
)

type PDFVersion string

const (
	PDF14 PDFVersion = "1.4"
	PDF17 PDFVersion = "1.7"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("writer: closed")

// Trailer carries the references written into the trailer dictionary.
type Trailer struct {
	Root int
	// Info is omitted when 0.
	Info int
	ID   [2][]byte
}

// Writer is an append-only PDF byte sink. The first I/O error sticks: every
// later call is a no-op and Err reports it.
type Writer struct {
	out     io.Writer
	n       int64
	offsets []int64
	err     error
	closed  bool
}

func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Header writes the version line followed by a binary comment.
func (w *Writer) Header(v PDFVersion) {
	if v == "" {
		v = PDF17
	}
	w.WriteString("%PDF-" + string(v) + "\n%\xe2\xe3\xcf\xd3\n")
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		w.err = ErrClosed
		return 0, w.err
	}
	n, err := w.out.Write(p)
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *Writer) WriteString(s string) {
	_, _ = io.WriteString(w, s)
}

func (w *Writer) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// Offset is the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.n }

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

// NewObject starts the next object: it records the current offset and
// writes "N 0 obj". N is one more than the previous object number.
func (w *Writer) NewObject() int {
	w.offsets = append(w.offsets, w.n)
	n := len(w.offsets)
	w.WriteString(strconv.Itoa(n) + " 0 obj\n")
	return n
}

// CurrentObjectNumber is the number of the most recently started object.
func (w *Writer) CurrentObjectNumber() int { return len(w.offsets) }

// EndObject closes the current object.
func (w *Writer) EndObject() {
	w.WriteString("endobj\n")
}

// WriteDict writes tokens as one line.
func (w *Writer) WriteDict(toks []string) {
	w.WriteString(raw.Join(toks))
	w.WriteString("\n")
}

// WriteStream writes dict with /Length set to len(data), then the stream.
func (w *Writer) WriteStream(dict []string, data []byte) {
	o := raw.NewObject(append([]string(nil), dict...), data)
	o.Edit().SetInt("/Length", len(data))
	w.WriteDict(o.Dict)
	w.WriteString("stream\n")
	_, _ = w.Write(data)
	w.WriteString("\nendstream\n")
}

// WriteObject emits obj as the next object and updates its Number and
// Offset. References inside obj must already use final numbers.
func (w *Writer) WriteObject(obj *raw.Object) int {
	obj.Offset = w.n
	obj.Number = w.NewObject()
	if obj.HasStream() {
		w.WriteStream(obj.Dict, obj.Stream)
	} else {
		w.WriteDict(obj.Dict)
	}
	w.EndObject()
	return obj.Number
}

// Offsets returns the recorded offsets; index i belongs to object i+1.
func (w *Writer) Offsets() []int64 {
	return append([]int64(nil), w.offsets...)
}

// Close writes the cross-reference table, trailer and startxref. Nothing
// is written when an earlier write failed.
func (w *Writer) Close(t Trailer) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrClosed
	}
	if t.Root <= 0 || t.Root > len(w.offsets) {
		return fmt.Errorf("writer: root object %d was never written", t.Root)
	}
	if t.Info < 0 || t.Info > len(w.offsets) {
		return fmt.Errorf("writer: info object %d was never written", t.Info)
	}
	xrefAt := w.n
	size := len(w.offsets) + 1
	w.Printf("xref\n0 %d\n", size)
	w.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		w.Printf("%010d 00000 n \n", off)
	}
	w.WriteString("trailer\n")
	w.WriteDict(TrailerDict(size, t))
	w.Printf("startxref\n%d\n%%%%EOF\n", xrefAt)
	w.closed = true
	return w.err
}

// TrailerDict returns the trailer dictionary tokens: /Size, /ID, /Info, /Root.
func TrailerDict(size int, t Trailer) []string {
	d := []string{"<<", "/Size", strconv.Itoa(size)}
	if t.ID[0] != nil {
		d = append(d, "/ID", "[", HexString(t.ID[0]), HexString(t.ID[1]), "]")
	}
	if t.Info > 0 {
		d = append(d, "/Info")
		d = append(d, raw.RefTokens(t.Info)...)
	}
	d = append(d, "/Root")
	d = append(d, raw.RefTokens(t.Root)...)
	return append(d, ">>")
}
