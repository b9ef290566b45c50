// Package parser turns the bytes of an existing PDF into a raw.Document:
// it walks the cross-reference chain, loads every in-use object, expands
// object streams and drops the structural xref and container objects.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/recovery"
	"github.com/wudi/pdfobj/scanner"
	"github.com/wudi/pdfobj/security"
	"github.com/wudi/pdfobj/xref"
)

// Config controls parsing.
type Config struct {
	Limits security.Limits
	// Recovery decides what happens on malformed tokens. Nil is strict.
	Recovery recovery.Strategy `validate:"-"`
	// Workers bounds parallel object tokenization. 0 uses one worker per
	// 64 objects, capped at 8.
	Workers int                  `validate:"gte=0,lte=256"`
	Logger  observability.Logger `validate:"-"`
	Tracer  observability.Tracer `validate:"-"`
}

var validate = validator.New()

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("parser config: %w", err)
	}
	return nil
}

// DocumentParser builds a raw.Document from cross-reference data and the
// objects it points at. A DocumentParser may be shared by goroutines.
type DocumentParser struct {
	cfg      Config
	pipeline *filters.Pipeline
}

func NewDocumentParser(cfg Config) (*DocumentParser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewStrictStrategy()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	cfg.Recovery = &loggingStrategy{inner: cfg.Recovery, log: cfg.Logger}
	return &DocumentParser{
		cfg: cfg,
		pipeline: filters.DefaultPipeline(filters.Limits{
			MaxDecompressedSize: cfg.Limits.MaxDecompressedSize,
			MaxDecodeTime:       cfg.Limits.MaxDecodeTime,
		}),
	}, nil
}

// Parse reads all of r with the default configuration.
func Parse(ctx context.Context, r io.Reader) (*raw.Document, error) {
	p, err := NewDocumentParser(Config{Limits: security.DefaultLimits()})
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, r)
}

// Parse reads all of r and parses it. Read errors are returned unchanged.
func (p *DocumentParser) Parse(ctx context.Context, r io.Reader) (*raw.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(ctx, data)
}

// ParseBytes parses an in-memory PDF. data must not change while the
// returned document is in use; stream bytes alias it.
func (p *DocumentParser) ParseBytes(ctx context.Context, data []byte) (*raw.Document, error) {
	if p.cfg.Limits.MaxParseTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Limits.MaxParseTime)
		defer cancel()
	}
	ctx, span := p.cfg.Tracer.StartSpan(ctx, observability.SpanParse)
	defer span.Finish()

	doc, err := p.parse(ctx, data)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("objects", len(doc.Objects))
	p.cfg.Logger.Info("parsed document",
		observability.String("version", doc.Version),
		observability.Int("objects", len(doc.Objects)))
	return doc, nil
}

func (p *DocumentParser) parse(ctx context.Context, data []byte) (*raw.Document, error) {
	version, err := headerVersion(data)
	if err != nil {
		return nil, err
	}

	resolver := xref.NewResolver(data, xref.ResolverConfig{
		MaxXRefDepth: p.cfg.Limits.MaxXRefDepth,
		Recovery:     p.cfg.Recovery,
		Pipeline:     p.pipeline,
		Logger:       p.cfg.Logger,
	})
	xctx, span := p.cfg.Tracer.StartSpan(ctx, observability.SpanXRef)
	sections, err := resolver.Sections(xctx)
	if err != nil {
		span.SetError(err)
		span.Finish()
		return nil, err
	}
	span.SetTag("sections", len(sections))
	span.Finish()
	trailer := raw.NewObject(sections[0].Trailer, nil)
	if trailer.Value("/Encrypt") != "" {
		return nil, raw.AtOffset(sections[0].Offset, raw.ErrEncrypted, "")
	}
	entries := xref.Merge(sections)

	l := &loader{
		data:      data,
		entries:   make(map[int]xref.Entry, len(entries)),
		scan:      scanner.Config{MaxStringLength: p.cfg.Limits.MaxStringLength, Recovery: p.cfg.Recovery},
		maxStream: p.cfg.Limits.MaxStreamLength,
		ctx:       ctx,
		pipeline:  p.pipeline,
	}
	for _, e := range entries {
		l.entries[e.Number] = e
	}

	octx, span := p.cfg.Tracer.StartSpan(ctx, observability.SpanObjects)
	defer span.Finish()
	direct, err := p.loadDirect(octx, l, entries)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	objs, err := p.expand(octx, l, direct)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("objects", len(objs))
	return raw.NewDocument(version, objs, trailer.Dict), nil
}

// loadDirect tokenizes every object with a byte offset. Tokenizing only
// reads the shared buffer, so objects are loaded in parallel.
func (p *DocumentParser) loadDirect(ctx context.Context, l *loader, entries []xref.Entry) ([]*raw.Object, error) {
	var todo []xref.Entry
	for _, e := range entries {
		if e.Kind == xref.Direct {
			todo = append(todo, e)
		}
	}
	out := make([]*raw.Object, len(todo))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers(len(todo)))
	for i, e := range todo {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			obj, err := l.load(e)
			if err != nil {
				return err
			}
			out[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *DocumentParser) workers(n int) int {
	if p.cfg.Workers > 0 {
		return p.cfg.Workers
	}
	w := n/64 + 1
	if w > 8 {
		w = 8
	}
	return w
}

// expand replaces object streams by their members and drops cross-reference
// streams. It runs sequentially: which copy of an object survives depends on
// the merged xref entries.
func (p *DocumentParser) expand(ctx context.Context, l *loader, direct []*raw.Object) ([]*raw.Object, error) {
	var out []*raw.Object
	found := map[int]bool{}
	for _, obj := range direct {
		switch obj.Type() {
		case "/XRef":
			continue
		case "/ObjStm":
			members, err := xref.ExpandObjectStream(ctx, obj, p.pipeline, l.scan)
			if err != nil {
				return nil, err
			}
			p.cfg.Logger.Debug("expanded object stream",
				observability.Int("container", obj.Number),
				observability.Int("objects", len(members)))
			for _, m := range members {
				e, listed := l.entries[m.Number]
				if listed && (e.Kind != xref.Compressed || e.Container != obj.Number) {
					// a newer revision or another container owns this number
					continue
				}
				if found[m.Number] {
					continue
				}
				found[m.Number] = true
				out = append(out, m)
			}
		default:
			found[obj.Number] = true
			out = append(out, obj)
		}
	}

	var missing []int
	for num, e := range l.entries {
		if e.Kind == xref.Compressed && !found[num] {
			missing = append(missing, num)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		e := l.entries[missing[0]]
		return nil, raw.AtObject(e.Number, nil, "not found in object stream %d", e.Container)
	}
	return out, nil
}

type loader struct {
	data      []byte
	entries   map[int]xref.Entry
	scan      scanner.Config
	maxStream int64

	// ctx and pipeline decode object streams holding length objects.
	ctx      context.Context
	pipeline *filters.Pipeline

	lengthMu sync.Mutex
	lengths  map[int]int64
	members  map[int][]*raw.Object
}

func (l *loader) load(e xref.Entry) (*raw.Object, error) {
	if e.Offset < 0 || e.Offset >= int64(len(l.data)) {
		return nil, &raw.ParseError{Offset: e.Offset, Object: e.Number, Msg: "xref offset out of range"}
	}
	obj, err := scanner.ReadObject(l.data, e.Offset, l.scan, l.length)
	if err != nil {
		return nil, err
	}
	if obj.Number != e.Number {
		return nil, &raw.ParseError{Offset: e.Offset, Object: e.Number,
			Msg: fmt.Sprintf("xref entry points at object %d", obj.Number)}
	}
	if l.maxStream > 0 && int64(len(obj.Stream)) > l.maxStream {
		return nil, &raw.ParseError{Offset: e.Offset, Object: e.Number,
			Msg: fmt.Sprintf("stream of %d bytes exceeds limit %d", len(obj.Stream), l.maxStream)}
	}
	return obj, nil
}

// length resolves an indirect /Length: the referenced object is looked up
// through the xref entries and must be a bare integer. A length object
// packed in an object stream is read from its expanded container; when the
// container cannot be read, -1 sends the caller to scan for endstream.
func (l *loader) length(num int) (int64, error) {
	l.lengthMu.Lock()
	defer l.lengthMu.Unlock()
	if n, ok := l.lengths[num]; ok {
		return n, nil
	}
	n, err := l.resolveLength(num, true)
	if err != nil {
		return 0, err
	}
	if l.lengths == nil {
		l.lengths = map[int]int64{}
	}
	l.lengths[num] = n
	return n, nil
}

// resolveLength expects lengthMu held. packed allows following the length
// into an object stream; a container's own /Length must be direct.
func (l *loader) resolveLength(num int, packed bool) (int64, error) {
	e, ok := l.entries[num]
	switch {
	case ok && e.Kind == xref.Direct:
		res, err := scanner.Tokenize(l.data, e.Offset, l.scan)
		if err != nil {
			return 0, err
		}
		if len(res.Tokens) != 4 || res.Tokens[2] != "obj" {
			return 0, raw.AtObject(num, nil, "length object is not an integer")
		}
		return lengthValue(num, res.Tokens[3])
	case ok && e.Kind == xref.Compressed && packed:
		return l.packedLength(e)
	}
	return 0, raw.AtObject(num, nil, "length object is not a direct object")
}

func (l *loader) packedLength(e xref.Entry) (int64, error) {
	members, ok := l.members[e.Container]
	if !ok {
		members = l.expandContainer(e.Container)
		if l.members == nil {
			l.members = map[int][]*raw.Object{}
		}
		l.members[e.Container] = members
	}
	var m *raw.Object
	if e.Index >= 0 && e.Index < len(members) && members[e.Index].Number == e.Number {
		m = members[e.Index]
	} else {
		for _, cand := range members {
			if cand.Number == e.Number {
				m = cand
				break
			}
		}
	}
	if m == nil {
		return -1, nil
	}
	if len(m.Dict) != 1 {
		return 0, raw.AtObject(e.Number, nil, "length object is not an integer")
	}
	return lengthValue(e.Number, m.Dict[0])
}

// expandContainer returns nil when the container is unreadable; loading
// it later reports the actual error.
func (l *loader) expandContainer(num int) []*raw.Object {
	c, ok := l.entries[num]
	if !ok || c.Kind != xref.Direct || c.Offset < 0 || c.Offset >= int64(len(l.data)) {
		return nil
	}
	obj, err := scanner.ReadObject(l.data, c.Offset, l.scan, func(n int) (int64, error) {
		return l.resolveLength(n, false)
	})
	if err != nil || obj.Number != num {
		return nil
	}
	members, err := xref.ExpandObjectStream(l.ctx, obj, l.pipeline, l.scan)
	if err != nil {
		return nil
	}
	return members
}

func lengthValue(num int, tok string) (int64, error) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || n < 0 {
		return 0, raw.AtObject(num, nil, "length object is not an integer")
	}
	return n, nil
}

// headerVersion reads "x.y" from the %PDF-x.y header, which may be preceded
// by junk within the first kilobyte.
func headerVersion(data []byte) (string, error) {
	window := data
	if len(window) > 1024 {
		window = window[:1024]
	}
	i := bytes.Index(window, []byte("%PDF-"))
	if i < 0 {
		return "", raw.AtOffset(0, nil, "missing %%PDF- header")
	}
	rest := data[i+5:]
	end := 0
	for end < len(rest) && end < 8 && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	if end == 0 {
		return "", raw.AtOffset(int64(i), nil, "malformed header version")
	}
	return string(rest[:end]), nil
}

// loggingStrategy reports recovered tokenizer errors before passing the
// decision through.
type loggingStrategy struct {
	inner recovery.Strategy
	log   observability.Logger
}

func (s *loggingStrategy) OnError(ctx recovery.Context, err error, loc recovery.Location) recovery.Action {
	action := s.inner.OnError(ctx, err, loc)
	if action.Recovered() {
		s.log.Warn("recovered malformed input",
			observability.String("component", loc.Component),
			observability.Offset(loc.ByteOffset),
			observability.Error("error", err))
	}
	return action
}
