package filters

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/wudi/pdfobj/ir/raw"
)

func TestDeflateRoundTrip(t *testing.T) {
	big := make([]byte, 200*1024)
	rand.New(rand.NewSource(1)).Read(big)
	cases := map[string][]byte{
		"empty":  {},
		"short":  []byte("BT /F1 12 Tf (hello) Tj ET"),
		"random": big,
		"repeat": bytes.Repeat([]byte("0 0 m 100 100 l S\n"), 10000),
	}
	for name, in := range cases {
		out, err := Inflate(Deflate(in), 0)
		if err != nil {
			t.Fatalf("%s: inflate: %v", name, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("%s: round trip mismatch (%d vs %d bytes)", name, len(out), len(in))
		}
	}
}

func TestDeflateLevelRejectsBadLevel(t *testing.T) {
	if _, err := DeflateLevel([]byte("x"), 42); err == nil {
		t.Fatal("expected error for level 42")
	}
}

func TestInflateLimit(t *testing.T) {
	comp := Deflate(bytes.Repeat([]byte{'a'}, 4096))
	if _, err := Inflate(comp, 1024); err == nil {
		t.Fatal("expected size limit error")
	}
	if _, err := Inflate(comp, 4096); err != nil {
		t.Fatalf("limit equal to size should pass: %v", err)
	}
}

func TestInflateGarbage(t *testing.T) {
	if _, err := Inflate([]byte("not zlib"), 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestPredictorRoundTrip(t *testing.T) {
	// three 5-byte xref records, /W [1 3 1]
	rows := []byte{
		1, 0, 0, 15, 0,
		1, 0, 0, 74, 0,
		2, 0, 0, 3, 1,
	}
	enc, err := EncodeUp(rows, 5)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc) != len(rows)+3 || enc[0] != 2 || enc[6] != 2 {
		t.Fatalf("unexpected encoded layout %v", enc)
	}
	dec, err := DecodePredictor(enc, Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 5})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, rows) {
		t.Fatalf("got %v want %v", dec, rows)
	}
}

func TestPredictorNoneRow(t *testing.T) {
	out, err := DecodePredictor([]byte{0, 1, 2, 3, 2, 1, 1, 1}, Params{Predictor: 12, Columns: 3})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out, []byte{1, 2, 3, 2, 3, 4}) {
		t.Fatalf("got %v", out)
	}
}

func TestPredictorUnsupported(t *testing.T) {
	if _, err := DecodePredictor([]byte{1, 2}, Params{Predictor: 2, Columns: 2}); !errors.Is(err, raw.ErrUnsupportedPredictor) {
		t.Fatalf("TIFF predictor: expected ErrUnsupportedPredictor, got %v", err)
	}
	// Paeth row filter
	if _, err := DecodePredictor([]byte{4, 1, 2}, Params{Predictor: 15, Columns: 2}); !errors.Is(err, raw.ErrUnsupportedPredictor) {
		t.Fatalf("Paeth row: expected ErrUnsupportedPredictor, got %v", err)
	}
}

func TestPredictorRejectsOversizedRows(t *testing.T) {
	cases := map[string]struct {
		data   []byte
		params Params
	}{
		"huge columns":      {[]byte{2, 0, 0}, Params{Predictor: 12, Columns: 1125899906842624}},
		"overflowing width": {[]byte{2, 0, 0}, Params{Predictor: 12, Colors: 32, BitsPerComponent: 16, Columns: 1 << 62}},
		"too many colors":   {[]byte{2, 0, 0}, Params{Predictor: 12, Colors: 1 << 40, Columns: 1}},
		"odd depth":         {[]byte{2, 0, 0}, Params{Predictor: 12, BitsPerComponent: 3, Columns: 2}},
		"row past data":     {[]byte{2, 0, 0}, Params{Predictor: 12, Columns: 3}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodePredictor(tc.data, tc.params); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	out, err := DecodePredictor(nil, Params{Predictor: 12, Columns: 1125899906842624})
	if err != nil || len(out) != 0 {
		t.Fatalf("empty body: got %v, %v", out, err)
	}
}

func TestPredictorPassThrough(t *testing.T) {
	in := []byte{9, 8, 7}
	out, err := DecodePredictor(in, Params{Predictor: 1})
	if err != nil || !bytes.Equal(out, in) {
		t.Fatalf("got %v, %v", out, err)
	}
}

func TestDecodeObjectFlateWithParms(t *testing.T) {
	rows := []byte{1, 0, 10, 0, 1, 0, 20, 0}
	enc, _ := EncodeUp(rows, 4)
	obj := raw.NewObject(strings.Fields("<< /Type /XRef /Filter /FlateDecode /DecodeParms << /Columns 4 /Predictor 12 >> /W [ 1 2 1 ] >>"), Deflate(enc))
	out, err := DecodeObject(context.Background(), obj, DefaultPipeline(Limits{}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out, rows) || !bytes.Equal(obj.Data, rows) {
		t.Fatalf("got %v", out)
	}
}

func TestDecodeObjectFilterArray(t *testing.T) {
	obj := raw.NewObject(strings.Fields("<< /Filter [ /FlateDecode ] /DecodeParms [ null ] >>"), Deflate([]byte("abc")))
	out, err := DecodeObject(context.Background(), obj, DefaultPipeline(Limits{}))
	if err != nil || string(out) != "abc" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestDecodeObjectUnsupportedFilter(t *testing.T) {
	obj := raw.NewObject(strings.Fields("<< /Filter /LZWDecode >>"), []byte{0x80})
	obj.Number = 12
	_, err := DecodeObject(context.Background(), obj, DefaultPipeline(Limits{}))
	if !errors.Is(err, raw.ErrUnsupportedFilter) {
		t.Fatalf("expected ErrUnsupportedFilter, got %v", err)
	}
	var pe *raw.ParseError
	if !errors.As(err, &pe) || pe.Object != 12 {
		t.Fatalf("expected object 12 in error, got %v", err)
	}
	if DefaultPipeline(Limits{}).Decodable(obj) {
		t.Fatal("LZW reported decodable")
	}
}

func TestDecodeObjectWithoutFilter(t *testing.T) {
	obj := raw.NewObject(strings.Fields("<< /Length 3 >>"), []byte("xyz"))
	out, err := DecodeObject(context.Background(), obj, DefaultPipeline(Limits{}))
	if err != nil || string(out) != "xyz" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestPipelineHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DefaultPipeline(Limits{}).Decode(ctx, Deflate([]byte("a")), []string{"FlateDecode"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
