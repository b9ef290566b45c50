// Package xref walks cross-reference sections, classic tables and
// cross-reference streams, and expands object streams.
package xref

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/recovery"
	"github.com/wudi/pdfobj/scanner"
)

// EntryKind is the type field of a cross-reference record.
type EntryKind int

const (
	Free       EntryKind = 0
	Direct     EntryKind = 1
	Compressed EntryKind = 2
)

func (k EntryKind) String() string {
	switch k {
	case Free:
		return "free"
	case Direct:
		return "direct"
	case Compressed:
		return "compressed"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Entry locates one object.
type Entry struct {
	Number int
	Kind   EntryKind
	// Offset is the header's byte offset for Direct entries.
	Offset int64
	Gen    int
	// Container and Index locate Compressed entries inside an object stream.
	Container int
	Index     int
}

// Section is one cross-reference table or stream together with its trailer.
type Section struct {
	Offset  int64
	Stream  bool
	Entries []Entry
	// Trailer is the trailer dictionary, or the xref stream's dictionary.
	Trailer []string
}

type ResolverConfig struct {
	MaxXRefDepth int
	Recovery     recovery.Strategy
	Pipeline     *filters.Pipeline
	Logger       observability.Logger
}

// Resolver reads cross-reference data out of an in-memory PDF.
type Resolver struct {
	data []byte
	cfg  ResolverConfig
}

func NewResolver(data []byte, cfg ResolverConfig) *Resolver {
	if cfg.Pipeline == nil {
		cfg.Pipeline = filters.DefaultPipeline(filters.Limits{})
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &Resolver{data: data, cfg: cfg}
}

const startXRefWindow = 1024

// StartXRef returns the offset named by the last startxref keyword, which
// must sit in the final 1024 bytes.
func (r *Resolver) StartXRef() (int64, error) {
	tail := r.data
	base := 0
	if len(tail) > startXRefWindow {
		base = len(tail) - startXRefWindow
		tail = tail[base:]
	}
	i := bytes.LastIndex(tail, []byte(scanner.KeywordStartXRef))
	if i < 0 {
		return 0, raw.AtOffset(int64(len(r.data)), raw.ErrMissingStartXRef, "")
	}
	at := int64(base + i + len(scanner.KeywordStartXRef))
	s := scanner.New(r.data, scanner.Config{})
	_ = s.Seek(at)
	tok, err := s.Next()
	if err != nil {
		return 0, raw.AtOffset(at, raw.ErrMissingStartXRef, "no offset after startxref")
	}
	off, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || off < 0 || off >= int64(len(r.data)) {
		return 0, raw.AtOffset(at, nil, "startxref offset %q out of range", tok)
	}
	return off, nil
}

// Sections returns every section reachable from startxref, newest first.
// A /Prev chain that revisits an offset fails with raw.ErrCircularPrev.
func (r *Resolver) Sections(ctx context.Context) ([]Section, error) {
	start, err := r.StartXRef()
	if err != nil {
		return nil, err
	}
	var out []Section
	visited := map[int64]bool{}
	if err := r.walk(ctx, start, visited, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) walk(ctx context.Context, off int64, visited map[int64]bool, depth int, out *[]Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if visited[off] {
		return raw.AtOffset(off, raw.ErrCircularPrev, "")
	}
	if r.cfg.MaxXRefDepth > 0 && depth >= r.cfg.MaxXRefDepth {
		return raw.AtOffset(off, nil, "xref chain deeper than %d sections", r.cfg.MaxXRefDepth)
	}
	visited[off] = true

	sec, err := r.ReadSection(ctx, off)
	if err != nil {
		if depth > 0 {
			return raw.AtOffset(off, fmt.Errorf("%w: %w", raw.ErrBadPrev, err), "")
		}
		return err
	}
	r.cfg.Logger.Debug("xref section",
		observability.Offset(off),
		observability.Bool("stream", sec.Stream),
		observability.Int("entries", len(sec.Entries)))
	*out = append(*out, sec)

	trailer := raw.NewObject(sec.Trailer, nil)
	// Hybrid files: the table's entries win over its companion stream.
	if stm, ok := trailer.Int("/XRefStm"); ok && !sec.Stream && !visited[int64(stm)] {
		visited[int64(stm)] = true
		hybrid, err := r.ReadSection(ctx, int64(stm))
		if err != nil {
			return raw.AtOffset(int64(stm), err, "/XRefStm section")
		}
		*out = append(*out, hybrid)
	}
	prev := trailer.Value("/Prev")
	if prev == "" {
		return nil
	}
	p, err := strconv.ParseInt(prev, 10, 64)
	if err != nil || p < 0 || p >= int64(len(r.data)) {
		return raw.AtOffset(off, raw.ErrBadPrev, "/Prev %s", prev)
	}
	return r.walk(ctx, p, visited, depth+1, out)
}

// ReadSection parses the section at off: a classic table when the first
// token is "xref", a cross-reference stream otherwise.
func (r *Resolver) ReadSection(ctx context.Context, off int64) (Section, error) {
	res, err := scanner.Tokenize(r.data, off, scanner.Config{Recovery: r.cfg.Recovery})
	if err != nil {
		return Section{}, err
	}
	if len(res.Tokens) > 0 && res.Tokens[0] == "xref" {
		return parseTable(off, res.Tokens)
	}
	return r.parseStream(ctx, off)
}

func parseTable(off int64, toks []string) (Section, error) {
	sec := Section{Offset: off}
	i := 1
	for i < len(toks) && toks[i] != "trailer" {
		if i+1 >= len(toks) {
			return sec, raw.AtOffset(off, nil, "truncated xref subsection header")
		}
		first, err1 := strconv.Atoi(toks[i])
		count, err2 := strconv.Atoi(toks[i+1])
		if err1 != nil || err2 != nil || first < 0 || count < 0 {
			return sec, raw.AtOffset(off, nil, "invalid xref subsection header %q %q", toks[i], toks[i+1])
		}
		i += 2
		if count > (len(toks)-i)/3 {
			return sec, raw.AtOffset(off, nil, "xref subsection %d %d runs past the table", first, count)
		}
		for k := 0; k < count; k++ {
			f := toks[i : i+3]
			i += 3
			o, err1 := strconv.ParseInt(f[0], 10, 64)
			gen, err2 := strconv.Atoi(f[1])
			if err1 != nil || err2 != nil || (f[2] != "n" && f[2] != "f") {
				return sec, raw.AtOffset(off, nil, "invalid xref entry %q", raw.Join(f))
			}
			e := Entry{Number: first + k, Gen: gen}
			if f[2] == "n" {
				e.Kind = Direct
				e.Offset = o
			}
			sec.Entries = append(sec.Entries, e)
		}
	}
	if i >= len(toks) {
		return sec, raw.AtOffset(off, nil, "xref table without trailer")
	}
	sec.Trailer = toks[i+1:]
	if len(sec.Trailer) == 0 || sec.Trailer[0] != "<<" {
		return sec, raw.AtOffset(off, nil, "trailer is not a dictionary")
	}
	return sec, nil
}

func (r *Resolver) parseStream(ctx context.Context, off int64) (Section, error) {
	obj, err := scanner.ReadObject(r.data, off, scanner.Config{Recovery: r.cfg.Recovery}, nil)
	if err != nil {
		return Section{}, err
	}
	if obj.Type() != "/XRef" {
		return Section{}, raw.AtOffset(off, nil, "expected xref table or /XRef stream, found %s", obj.Type())
	}
	data, err := filters.DecodeObject(ctx, obj, r.cfg.Pipeline)
	if err != nil {
		return Section{}, err
	}
	w := intsOf(obj, "/W")
	if len(w) != 3 {
		return Section{}, raw.AtObject(obj.Number, nil, "/W must hold three widths")
	}
	for _, n := range w {
		if n < 0 || n > 8 {
			return Section{}, raw.AtObject(obj.Number, nil, "unsupported /W width %d", n)
		}
	}
	size, _ := obj.Int("/Size")
	index := intsOf(obj, "/Index")
	if index == nil {
		index = []int{0, size}
	}
	if len(index)%2 != 0 {
		return Section{}, raw.AtObject(obj.Number, nil, "odd-length /Index")
	}
	recLen := w[0] + w[1] + w[2]
	if recLen == 0 {
		return Section{}, raw.AtObject(obj.Number, nil, "/W widths sum to zero")
	}
	sec := Section{Offset: off, Stream: true, Trailer: obj.Dict}
	pos := 0
	for k := 0; k < len(index); k += 2 {
		first, count := index[k], index[k+1]
		if first < 0 || count < 0 {
			return sec, raw.AtObject(obj.Number, nil, "invalid /Index pair %d %d", first, count)
		}
		for j := 0; j < count; j++ {
			if pos+recLen > len(data) {
				return sec, raw.AtObject(obj.Number, raw.ErrTruncatedStream, "xref stream holds %d bytes, record %d needs %d", len(data), first+j, pos+recLen)
			}
			rec := data[pos : pos+recLen]
			pos += recLen
			kind := int64(1) // a zero-width type field defaults to 1
			if w[0] > 0 {
				kind = field(rec[:w[0]])
			}
			f2 := field(rec[w[0] : w[0]+w[1]])
			f3 := field(rec[w[0]+w[1]:])
			e := Entry{Number: first + j}
			switch kind {
			case 0:
				e.Kind = Free
			case 1:
				e.Kind = Direct
				e.Offset = f2
				e.Gen = int(f3)
			case 2:
				e.Kind = Compressed
				e.Container = int(f2)
				e.Index = int(f3)
			default:
				// unknown types are treated as null references
				continue
			}
			sec.Entries = append(sec.Entries, e)
		}
	}
	return sec, nil
}

func field(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

func intsOf(obj *raw.Object, key string) []int {
	i := raw.FindKey(obj.Dict, 0, key)
	if i < 0 || i+1 >= len(obj.Dict) || obj.Dict[i+1] != "[" {
		return nil
	}
	end := raw.Close(obj.Dict, i+1)
	out := []int{}
	for _, tok := range obj.Dict[i+2 : end] {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// Merge flattens sections given newest first into one entry per object
// number. The first occurrence of a number wins, so a newer section
// overrides older ones, including when the newer entry marks the object
// free. Free entries are dropped from the result, which is sorted by number.
func Merge(sections []Section) []Entry {
	seen := map[int]bool{}
	var out []Entry
	for _, sec := range sections {
		for _, e := range sec.Entries {
			if seen[e.Number] {
				continue
			}
			seen[e.Number] = true
			if e.Kind != Free && e.Number > 0 {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
