// Package filters implements the stream codec: FlateDecode compression in
// both directions and the PNG predictors used by cross-reference streams.
package filters

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/wudi/pdfobj/ir/raw"
)

// Params is the subset of /DecodeParms the codec understands.
type Params struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

// Decoder undoes one named filter.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params Params) ([]byte, error)
}

type Limits struct {
	MaxDecompressedSize int64
	MaxDecodeTime       time.Duration
}

// Pipeline applies a stream's filter chain in order.
type Pipeline struct {
	decoders []Decoder
	limits   Limits
}

// NewPipeline constructs a pipeline with provided decoders and limits.
func NewPipeline(decoders []Decoder, limits Limits) *Pipeline {
	return &Pipeline{decoders: decoders, limits: limits}
}

// DefaultPipeline knows FlateDecode only.
func DefaultPipeline(limits Limits) *Pipeline {
	return NewPipeline([]Decoder{NewFlateDecoder(limits.MaxDecompressedSize)}, limits)
}

func (p *Pipeline) findDecoder(name string) Decoder {
	for _, d := range p.decoders {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Decode runs input through filterNames. params[i] belongs to filterNames[i]
// and may be missing.
func (p *Pipeline) Decode(ctx context.Context, input []byte, filterNames []string, params []Params) ([]byte, error) {
	if p.limits.MaxDecodeTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.limits.MaxDecodeTime)
		defer cancel()
	}
	data := input
	for i, name := range filterNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dec := p.findDecoder(name)
		if dec == nil {
			return nil, fmt.Errorf("%w: %s", raw.ErrUnsupportedFilter, name)
		}
		var param Params
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		data = out
	}
	return data, nil
}

type flateDecoder struct{ max int64 }

// NewFlateDecoder returns the FlateDecode decoder. max caps the inflated
// size, 0 means unlimited.
func NewFlateDecoder(max int64) Decoder { return flateDecoder{max: max} }

func (flateDecoder) Name() string { return "FlateDecode" }

func (d flateDecoder) Decode(ctx context.Context, in []byte, params Params) ([]byte, error) {
	out, err := Inflate(in, d.max)
	if err != nil {
		return nil, err
	}
	return DecodePredictor(out, params)
}

// Deflate compresses data into a zlib stream at the default level.
func Deflate(data []byte) []byte {
	out, _ := DeflateLevel(data, zlib.DefaultCompression)
	return out
}

// DeflateLevel compresses data at a zlib level (-1..9).
func DeflateLevel(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Inflate decompresses a zlib stream. When max is positive, output beyond
// max bytes is an error.
func Inflate(data []byte, max int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer r.Close()
	var src io.Reader = r
	if max > 0 {
		src = io.LimitReader(r, max+1)
	}
	var out bytes.Buffer
	if _, err := io.Copy(&out, src); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if max > 0 && int64(out.Len()) > max {
		return nil, fmt.Errorf("inflate: decompressed size exceeds %d bytes", max)
	}
	return out.Bytes(), nil
}

// ObjectFilters reads /Filter and /DecodeParms from a stream dictionary.
// Filter names come back without the leading slash.
func ObjectFilters(obj *raw.Object) ([]string, []Params) {
	d := obj.Dict
	var names []string
	fi := raw.FindKey(d, 0, "/Filter")
	if fi < 0 {
		return nil, nil
	}
	for _, tok := range d[fi+1 : raw.ValueEnd(d, fi+1)] {
		if len(tok) > 1 && tok[0] == '/' {
			names = append(names, expandAbbrev(tok[1:]))
		}
	}

	var params []Params
	pi := raw.FindKey(d, 0, "/DecodeParms")
	if pi < 0 {
		pi = raw.FindKey(d, 0, "/DP")
	}
	if pi >= 0 {
		val := d[pi+1 : raw.ValueEnd(d, pi+1)]
		if len(val) > 0 && val[0] == "[" {
			// array of dictionaries or nulls
			for i := 1; i < len(val)-1; {
				end := raw.ValueEnd(val, i)
				params = append(params, paramsFrom(val[i:end]))
				i = end
			}
		} else {
			params = append(params, paramsFrom(val))
		}
	}
	return names, params
}

func expandAbbrev(name string) string {
	if name == "Fl" {
		return "FlateDecode"
	}
	return name
}

func paramsFrom(dict []string) Params {
	get := func(key string, def int) int {
		i := raw.FindKey(dict, 0, key)
		if i < 0 || i+1 >= len(dict) {
			return def
		}
		n, err := strconv.Atoi(dict[i+1])
		if err != nil {
			return def
		}
		return n
	}
	return Params{
		Predictor:        get("/Predictor", 1),
		Colors:           get("/Colors", 1),
		BitsPerComponent: get("/BitsPerComponent", 8),
		Columns:          get("/Columns", 1),
	}
}

// DecodeObject decodes obj.Stream through its filter chain, stores the
// result in obj.Data and returns it. Streams without /Filter decode to their
// stored bytes.
func DecodeObject(ctx context.Context, obj *raw.Object, p *Pipeline) ([]byte, error) {
	if obj.Data != nil {
		return obj.Data, nil
	}
	names, params := ObjectFilters(obj)
	if len(names) == 0 {
		obj.Data = obj.Stream
		return obj.Data, nil
	}
	out, err := p.Decode(ctx, obj.Stream, names, params)
	if err != nil {
		return nil, raw.AtObject(obj.Number, err, "decode stream")
	}
	obj.Data = out
	return out, nil
}

// Decodable reports whether every filter on obj is one p can undo.
func (p *Pipeline) Decodable(obj *raw.Object) bool {
	names, _ := ObjectFilters(obj)
	for _, n := range names {
		if p.findDecoder(n) == nil {
			return false
		}
	}
	return true
}
