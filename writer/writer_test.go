package writer

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/wudi/pdfobj/ir/raw"
)

func TestObjectNumbersAndOffsets(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Header(PDF17)
	for i := 1; i <= 3; i++ {
		n := w.NewObject()
		if n != i || w.CurrentObjectNumber() != i {
			t.Fatalf("object %d numbered %d", i, n)
		}
		w.WriteDict([]string{"<<", "/Index", strconv.Itoa(i), ">>"})
		w.EndObject()
	}
	if err := w.Close(Trailer{Root: 1}); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.Bytes()
	for i, off := range w.Offsets() {
		want := fmt.Sprintf("%d 0 obj", i+1)
		if !bytes.HasPrefix(out[off:], []byte(want)) {
			t.Fatalf("offset %d of object %d points at %q", off, i+1, out[off:off+10])
		}
	}
}

func TestXRefEntriesAreTwentyBytes(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Header(PDF14)
	w.WriteObject(raw.NewObject([]string{"<<", "/Type", "/Catalog", ">>"}, nil))
	w.WriteObject(raw.NewObject([]string{"<<", ">>"}, []byte("q Q")))
	if err := w.Close(Trailer{Root: 1, Info: 2, ID: DocumentID(true, []byte("x"))}); err != nil {
		t.Fatalf("close: %v", err)
	}
	s := buf.String()
	start := strings.Index(s, "xref\n0 3\n")
	if start < 0 {
		t.Fatalf("xref header missing:\n%s", s)
	}
	table := s[start+len("xref\n0 3\n"):]
	end := strings.Index(table, "trailer")
	if end != 3*20 {
		t.Fatalf("table is %d bytes, want 60", end)
	}
	if table[:20] != "0000000000 65535 f \n" {
		t.Fatalf("free head %q", table[:20])
	}
	re := regexp.MustCompile(`^\d{10} 00000 n \n$`)
	for i := 1; i < 3; i++ {
		if !re.MatchString(table[i*20 : (i+1)*20]) {
			t.Fatalf("entry %d = %q", i, table[i*20:(i+1)*20])
		}
	}
	tr := regexp.MustCompile(`trailer\n<< /Size 3 /ID \[ <[0-9A-F]{32}> <[0-9A-F]{32}> \] /Info 2 0 R /Root 1 0 R >>\nstartxref\n(\d+)\n%%EOF\n$`)
	m := tr.FindStringSubmatch(s)
	if m == nil {
		t.Fatalf("trailer mismatch:\n%s", s[start:])
	}
	if m[1] != strconv.Itoa(start) {
		t.Fatalf("startxref %s, xref at %d", m[1], start)
	}
}

func TestWriteStreamSetsLength(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.WriteObject(raw.NewObject([]string{"<<", "/Length", "9", "0", "R", ">>"}, []byte("abcd")))
	if got := buf.String(); got != "1 0 obj\n<< /Length 4 >>\nstream\nabcd\nendstream\nendobj\n" {
		t.Fatalf("got %q", got)
	}
}

type failAfter struct {
	n   int
	err error
}

func (f *failAfter) Write(p []byte) (int, error) {
	if f.n <= 0 {
		return 0, f.err
	}
	f.n--
	return len(p), nil
}

func TestStickyError(t *testing.T) {
	boom := errors.New("disk full")
	w := New(&failAfter{n: 2, err: boom})
	w.Header(PDF17)
	w.NewObject()
	w.WriteDict([]string{"<<", ">>"})
	w.EndObject()
	if !errors.Is(w.Err(), boom) {
		t.Fatalf("expected sticky error, got %v", w.Err())
	}
	before := w.Offset()
	w.WriteString("more")
	if w.Offset() != before {
		t.Fatal("write after failure changed the offset")
	}
	if err := w.Close(Trailer{Root: 1}); !errors.Is(err, boom) {
		t.Fatalf("close should report the first error, got %v", err)
	}
}

func TestCloseRejectsUnknownRoot(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Header(PDF17)
	if err := w.Close(Trailer{Root: 1}); err == nil {
		t.Fatal("expected error for missing root")
	}
	if strings.Contains(buf.String(), "trailer") {
		t.Fatal("trailer written after failed close")
	}
}

func TestWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.WriteObject(raw.NewObject([]string{"<<", ">>"}, nil))
	if err := w.Close(Trailer{Root: 1}); err != nil {
		t.Fatalf("close: %v", err)
	}
	w.NewObject()
	if !errors.Is(w.Err(), ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", w.Err())
	}
}

func TestStringEncoders(t *testing.T) {
	if got := LiteralString([]byte("a(b)\\c\n\x01")); got != `(a\(b\)\\c\n\001)` {
		t.Fatalf("literal %q", got)
	}
	if got := UTF16Hex("Hé"); got != "<FEFF004800E9>" {
		t.Fatalf("utf16 %q", got)
	}
	if got := UTF16Hex(""); got != "<FEFF>" {
		t.Fatalf("empty utf16 %q", got)
	}
	if got := TextString("Plain"); got != "(Plain)" {
		t.Fatalf("text %q", got)
	}
	if got := TextString("日本"); got != "<FEFF65E5672C>" {
		t.Fatalf("text %q", got)
	}
	if got := Name("My Font#1"); got != "/My#20Font#231" {
		t.Fatalf("name %q", got)
	}
	if got := HexString([]byte{0xab, 0x01}); got != "<AB01>" {
		t.Fatalf("hex %q", got)
	}
}

func TestReal(t *testing.T) {
	cases := map[float64]string{0: "0", 612: "612", 1.5: "1.5", 0.12346: "0.1235", -0.00001: "0", -2.25: "-2.25"}
	for in, want := range cases {
		if got := Real(in); got != want {
			t.Fatalf("Real(%v) = %q want %q", in, got, want)
		}
	}
}

func TestDate(t *testing.T) {
	utc := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	if got := Date(utc); got != "(D:20240305140709Z)" {
		t.Fatalf("utc %q", got)
	}
	zone := time.FixedZone("x", -(5*3600 + 30*60))
	if got := Date(utc.In(zone)); got != "(D:20240305083709-05'30')" {
		t.Fatalf("zoned %q", got)
	}
}

func TestDocumentID(t *testing.T) {
	a := DocumentID(true, []byte("title"), []byte("1.7"))
	b := DocumentID(true, []byte("title"), []byte("1.7"))
	if !bytes.Equal(a[0], b[0]) || len(a[0]) != 16 {
		t.Fatalf("deterministic ids differ: %x %x", a[0], b[0])
	}
	if !bytes.Equal(a[0], a[1]) {
		t.Fatal("halves differ for a new file")
	}
	c := DocumentID(false, []byte("title"), []byte("1.7"))
	if bytes.Equal(a[0], c[0]) {
		t.Fatal("random id equals deterministic id")
	}
}
