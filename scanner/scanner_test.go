package scanner

import (
	"errors"
	"reflect"
	"testing"

	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/recovery"
)

func TestTokenizeDictionary(t *testing.T) {
	src := []byte("1 0 obj\n<< /Type /Page /MediaBox [0 0 612 792] /Parent 2 0 R >>\nendobj\n")
	res, err := Tokenize(src, 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"1", "0", "obj", "<<", "/Type", "/Page", "/MediaBox", "[", "0", "0", "612", "792", "]", "/Parent", "2", "0", "R", ">>"}
	if !reflect.DeepEqual(res.Tokens, want) {
		t.Fatalf("tokens mismatch:\n got %q\nwant %q", res.Tokens, want)
	}
	if res.Terminator != KeywordEndObj {
		t.Fatalf("expected endobj terminator, got %q", res.Terminator)
	}
	if res.Stream != -1 {
		t.Fatalf("unexpected stream offset %d", res.Stream)
	}
}

func TestLiteralStringEscapedParen(t *testing.T) {
	res, err := Tokenize([]byte(`<< /T (a\)b) /U 1 >> endobj`), 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if res.Tokens[2] != `(a\)b)` {
		t.Fatalf("escaped paren terminated string early: %q", res.Tokens)
	}
	if res.Tokens[3] != "/U" {
		t.Fatalf("unexpected token after string: %q", res.Tokens[3])
	}
}

func TestLiteralStringNestedParens(t *testing.T) {
	res, err := Tokenize([]byte("[(a(b)c) (d e)] endobj"), 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"[", "(a(b)c)", "(d e)", "]"}
	if !reflect.DeepEqual(res.Tokens, want) {
		t.Fatalf("got %q want %q", res.Tokens, want)
	}
}

func TestHexStringAndDictMarkers(t *testing.T) {
	res, err := Tokenize([]byte("<</ID[<0A 1B><2C3D>]>>"), 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"<<", "/ID", "[", "<0A1B>", "<2C3D>", "]", ">>"}
	if !reflect.DeepEqual(res.Tokens, want) {
		t.Fatalf("got %q want %q", res.Tokens, want)
	}
}

func TestNestedDictionaryClosers(t *testing.T) {
	res, err := Tokenize([]byte("<</A<</B 1>>>>"), 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"<<", "/A", "<<", "/B", "1", ">>", ">>"}
	if !reflect.DeepEqual(res.Tokens, want) {
		t.Fatalf("got %q want %q", res.Tokens, want)
	}
}

func TestStreamOffsetSkipsLineFeed(t *testing.T) {
	src := []byte("4 0 obj\n<< /Length 3 >>\nstream\nabc\nendstream\nendobj\n")
	res, err := Tokenize(src, 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if res.Terminator != KeywordStream {
		t.Fatalf("expected stream terminator, got %q", res.Terminator)
	}
	if got := string(src[res.Stream : res.Stream+3]); got != "abc" {
		t.Fatalf("stream offset points at %q", got)
	}
}

func TestStreamOffsetSkipsCRLF(t *testing.T) {
	src := []byte("<< /Length 3 >> stream\r\nxyz\r\nendstream")
	res, err := Tokenize(src, 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if got := string(src[res.Stream : res.Stream+3]); got != "xyz" {
		t.Fatalf("stream offset points at %q", got)
	}
}

func TestWhitespaceClasses(t *testing.T) {
	src := []byte("/A\x001\x092\x0c3\r4\n5 6")
	toks := Split(string(src))
	want := []string{"/A", "1", "2", "3", "4", "5", "6"}
	if !reflect.DeepEqual(toks, want) {
		t.Fatalf("got %q want %q", toks, want)
	}
	// Vertical tab is not PDF white-space.
	if IsWhitespace(0x0b) {
		t.Fatal("0x0b must not be white-space")
	}
}

func TestCommentsSkipped(t *testing.T) {
	toks := Split("<< /A 1 % comment with ( and <<\n/B 2 >>")
	want := []string{"<<", "/A", "1", "/B", "2", ">>"}
	if !reflect.DeepEqual(toks, want) {
		t.Fatalf("got %q want %q", toks, want)
	}
}

func TestStartXRefTerminates(t *testing.T) {
	src := []byte("xref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 1 >>\nstartxref\n9\n%%EOF")
	res, err := Tokenize(src, 0, Config{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if res.Terminator != KeywordStartXRef {
		t.Fatalf("expected startxref terminator, got %q", res.Terminator)
	}
	if res.Tokens[0] != "xref" || res.Tokens[len(res.Tokens)-1] != ">>" {
		t.Fatalf("unexpected tokens %q", res.Tokens)
	}
}

func TestUnterminatedLiteralStrict(t *testing.T) {
	_, err := Tokenize([]byte("<< /T (never closed >>"), 0, Config{})
	var pe *raw.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", pe.Offset)
	}
}

func TestUnterminatedLiteralLenient(t *testing.T) {
	rec := recovery.NewLenientStrategy()
	res, err := Tokenize([]byte("<< /T (never closed"), 0, Config{Recovery: rec})
	if err != nil {
		t.Fatalf("lenient tokenize failed: %v", err)
	}
	if res.Tokens[2] != "(never closed)" {
		t.Fatalf("expected closed literal, got %q", res.Tokens)
	}
	if len(rec.Recorded()) != 2 {
		t.Fatalf("expected literal and dictionary errors, got %v", rec.Recorded())
	}
}

func TestSeekOutOfRange(t *testing.T) {
	if _, err := Tokenize([]byte("abc"), 10, Config{}); err == nil {
		t.Fatal("expected error for offset past input")
	}
}

func TestReadObjectStream(t *testing.T) {
	src := []byte("7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj\n")
	obj, err := ReadObject(src, 0, Config{}, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if obj.Number != 7 || string(obj.Stream) != "hello" {
		t.Fatalf("got object %d stream %q", obj.Number, obj.Stream)
	}
	if raw.Join(obj.Dict) != "<< /Length 5 >>" {
		t.Fatalf("dict %q", raw.Join(obj.Dict))
	}
}

func TestReadObjectIndirectLength(t *testing.T) {
	src := []byte("3 0 obj\n<< /Length 9 0 R >>\nstream\r\nabc\r\nendstream\nendobj\n")
	var asked int
	obj, err := ReadObject(src, 0, Config{}, func(num int) (int64, error) {
		asked = num
		return 3, nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if asked != 9 || string(obj.Stream) != "abc" {
		t.Fatalf("asked %d, stream %q", asked, obj.Stream)
	}
	if _, err := ReadObject(src, 0, Config{}, nil); err == nil {
		t.Fatal("expected error without a length resolver")
	}
}

func TestReadObjectMissingLength(t *testing.T) {
	src := []byte("3 0 obj\n<< >>\nstream\nq Q\nendstream\nendobj\n")
	obj, err := ReadObject(src, 0, Config{}, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(obj.Stream) != "q Q" {
		t.Fatalf("stream %q", obj.Stream)
	}
}

func TestReadObjectTruncated(t *testing.T) {
	src := []byte("3 0 obj\n<< /Length 100 >>\nstream\nabc\nendstream\nendobj\n")
	_, err := ReadObject(src, 0, Config{}, nil)
	if !errors.Is(err, raw.ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestReadObjectLengthOverflow(t *testing.T) {
	src := []byte("3 0 obj\n<< /Length 9223372036854775807 >>\nstream\nabc\nendstream\nendobj\n")
	_, err := ReadObject(src, 0, Config{}, nil)
	if !errors.Is(err, raw.ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
	var pe *raw.ParseError
	if !errors.As(err, &pe) || pe.Object != 3 {
		t.Fatalf("expected ParseError for object 3, got %v", err)
	}

	src = []byte("3 0 obj\n<< /Length 4 0 R >>\nstream\nabc\nendstream\nendobj\n")
	_, err = ReadObject(src, 0, Config{}, func(int) (int64, error) { return 1<<63 - 1, nil })
	if !errors.Is(err, raw.ErrTruncatedStream) {
		t.Fatalf("indirect length: expected ErrTruncatedStream, got %v", err)
	}
}

func TestReadObjectMissingEndobj(t *testing.T) {
	src := []byte("1 0 obj\n<< /A 1 >>\n2 0 obj\n<< /B 2 >>\nendobj\n")
	if _, err := ReadObject(src, 0, Config{}, nil); err == nil {
		t.Fatal("strict read should fail")
	}
	obj, err := ReadObject(src, 0, Config{Recovery: recovery.NewLenientStrategy()}, nil)
	if err != nil {
		t.Fatalf("lenient read: %v", err)
	}
	if raw.Join(obj.Dict) != "<< /A 1 >>" {
		t.Fatalf("dict %q", raw.Join(obj.Dict))
	}
}

func TestReadObjectBadHeader(t *testing.T) {
	_, err := ReadObject([]byte("<< /A 1 >> endobj"), 0, Config{}, nil)
	var pe *raw.ParseError
	if !errors.As(err, &pe) || pe.Offset != 0 {
		t.Fatalf("expected ParseError at 0, got %v", err)
	}
}

func TestSplit(t *testing.T) {
	got := Split("<< /Type /Font /BaseFont /Helvetica /W [ 0 [ 500 ] ] >>")
	if len(got) != 13 || got[0] != "<<" || got[len(got)-1] != ">>" {
		t.Fatalf("split %q", got)
	}
}
