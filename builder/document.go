// Package builder is the document serializer. It writes fonts, images and
// other shared resources as they are registered, buffers page content,
// and on Close emits the rest of the object graph in dependency order
// followed by the cross-reference table and trailer. It also rewrites
// parsed documents.
//
// A Document belongs to one goroutine.
package builder

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wudi/pdfobj/compliance"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/writer"
)

// Document is a PDF under construction.
type Document struct {
	cfg Config
	w   *writer.Writer
	log observability.Logger

	arena   map[fontKey]*fontRecord
	fonts   []*fontRecord
	images  []*Image
	gstates []*GraphicsState
	ocgs    []*OptionalContent
	pages   []*Page
	dests   map[string]Destination
	outline *Bookmark
	scripts []script
	closed  bool
}

// New validates cfg and writes the file header to out.
func New(out io.Writer, cfg Config) (*Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	d := &Document{
		cfg:     cfg,
		w:       writer.New(out),
		log:     cfg.Logger,
		arena:   map[fontKey]*fontRecord{},
		dests:   map[string]Destination{},
		outline: &Bookmark{},
	}
	d.w.Header(cfg.Version)
	if err := d.w.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// Pages returns the pages added so far.
func (d *Document) Pages() []*Page { return d.pages }

// Tagged reports whether the document carries a structure tree.
func (d *Document) Tagged() bool { return d.cfg.Tagged }

// ObjectCount is the number of objects written so far.
func (d *Document) ObjectCount() int { return d.w.CurrentObjectNumber() }

func (d *Document) usable() error {
	if d.closed {
		return writer.ErrClosed
	}
	return d.w.Err()
}

// layout holds the forward-computed numbers of the page section.
type layout struct {
	resources int
	contents  [][]int
	annots    [][]int
	pages     []int
	pagesTree int
}

func (l *layout) pageNum(i int) int { return l.pages[i] }

// Close writes everything not yet written, in this order: metadata,
// output intent, resources, content streams, annotations, pages, page
// tree, structure tree, outlines, scripts, info, catalog, then the
// cross-reference table and trailer. Problems found before the first
// byte is written leave the output untouched.
func (d *Document) Close() error {
	if d.closed {
		return writer.ErrClosed
	}
	if err := d.w.Err(); err != nil {
		return err
	}
	if err := d.check(); err != nil {
		return err
	}
	d.closed = true
	s := writerSink{d.w}

	var metadata, intent int
	if d.cfg.Compliance.NeedsMetadata() {
		metadata = s.next()
		xmp := compliance.XMP(d.cfg.Compliance, compliance.Metadata{
			Title: d.cfg.Title, Author: d.cfg.Author, Subject: d.cfg.Subject, Keywords: d.cfg.Keywords,
			Creator: d.cfg.Creator, Producer: d.cfg.Producer, Lang: d.cfg.Lang,
			Created: d.cfg.CreationDate, Modified: d.cfg.CreationDate,
		})
		obj, _ := streamObject(CompressNone, dict("<< /Type /Metadata /Subtype /XML >>"), xmp)
		if err := s.put(obj); err != nil {
			return err
		}
	}
	if d.cfg.Compliance.NeedsOutputIntent() {
		profile, err := streamObject(d.cfg.Compression, dict("<< /N 3 >>"), d.cfg.ICCProfile)
		if err != nil {
			return err
		}
		if err := s.put(profile); err != nil {
			return err
		}
		intent = s.next()
		oi := raw.NewObject(dict("<< /Type /OutputIntent /S /GTS_PDFA1 /OutputConditionIdentifier (sRGB IEC61966-2.1) /Info (sRGB IEC61966-2.1) /DestOutputProfile %s >>", ref(profile.Number)), nil)
		if err := s.put(oi); err != nil {
			return err
		}
	}

	l := &layout{resources: s.next()}
	if err := s.put(raw.NewObject(d.resourcesDict(), nil)); err != nil {
		return err
	}
	for _, p := range d.pages {
		var nums []int
		for _, b := range p.contents {
			obj, err := streamObject(d.cfg.Compression, []string{"<<", ">>"}, b.Bytes())
			if err != nil {
				return err
			}
			nums = append(nums, s.next())
			if err := s.put(obj); err != nil {
				return err
			}
		}
		l.contents = append(l.contents, nums)
		p.contents = nil
	}

	// Pages refer to their parent and annotations to pages, so every page
	// number is fixed before the first annotation is written.
	next := s.next()
	for _, p := range d.pages {
		var nums []int
		for range p.annots {
			nums = append(nums, next)
			next++
		}
		l.annots = append(l.annots, nums)
	}
	for range d.pages {
		l.pages = append(l.pages, next)
		next++
	}
	l.pagesTree = next

	for _, p := range d.pages {
		for _, a := range p.annots {
			if err := s.put(raw.NewObject(a.dict(l.pageNum), nil)); err != nil {
				return err
			}
		}
	}
	for i, p := range d.pages {
		if err := s.put(raw.NewObject(p.dict(l.pagesTree, l.resources, l.contents[i], l.annots[i], d.cfg.Tagged), nil)); err != nil {
			return err
		}
		d.log.Debug("page completed", observability.Int("page", i+1), observability.Object(l.pages[i]))
	}
	if err := s.put(raw.NewObject(dict("<< /Type /Pages /Kids %s /Count %d >>", refArray(l.pages), len(l.pages)), nil)); err != nil {
		return err
	}

	var structRoot int
	if d.cfg.Tagged {
		structRoot = s.next()
		if err := putAll(s, d.structTree(structRoot, l.pages)); err != nil {
			return err
		}
	}
	var outlines int
	if len(d.outline.children) > 0 {
		outlines = s.next()
		if err := putAll(s, d.outlineObjects(outlines, l.pageNum)); err != nil {
			return err
		}
	}
	for i := range d.scripts {
		d.scripts[i].num = s.next()
		js := raw.NewObject(dict("<< /S /JavaScript /JS %s >>", writer.LiteralString([]byte(d.scripts[i].src))), nil)
		if err := s.put(js); err != nil {
			return err
		}
	}

	info := s.next()
	if err := s.put(raw.NewObject(d.infoDict(), nil)); err != nil {
		return err
	}
	root := s.next()
	catalog := d.catalogDict(l, metadata, intent, structRoot, outlines)
	if err := s.put(raw.NewObject(catalog, nil)); err != nil {
		return err
	}

	id := writer.DocumentID(d.cfg.Deterministic,
		[]byte(d.cfg.Title), []byte(d.cfg.Author), []byte(d.cfg.Producer),
		[]byte(strconv.FormatInt(d.w.Offset(), 10)))
	if err := d.w.Close(writer.Trailer{Root: root, Info: info, ID: id}); err != nil {
		return err
	}
	d.log.Info("document written",
		observability.Int("objects", d.w.CurrentObjectNumber()),
		observability.Int("pages", len(d.pages)),
		observability.Int64("bytes", d.w.Offset()))
	return nil
}

// check validates cross references and compliance before Close writes.
func (d *Document) check() error {
	if len(d.pages) == 0 {
		return errors.New("builder: document has no pages")
	}
	pageOK := func(i int) bool { return i >= 0 && i < len(d.pages) }
	for _, p := range d.pages {
		if len(p.open) > 0 || p.optDepth > 0 {
			return fmt.Errorf("builder: page %d has unclosed marked content", p.index+1)
		}
		for _, a := range p.annots {
			if a.Dest != nil && !pageOK(a.Dest.Page) {
				return &raw.UnsupportedError{Feature: "link target page", Value: itoa(a.Dest.Page)}
			}
			if a.Named != "" {
				if _, ok := d.dests[a.Named]; !ok {
					return &raw.UnsupportedError{Feature: "named destination", Value: a.Named}
				}
			}
		}
	}
	for name, dst := range d.dests {
		if !pageOK(dst.Page) {
			return &raw.UnsupportedError{Feature: "destination page for " + name, Value: itoa(dst.Page)}
		}
	}
	var bad error
	d.outline.walk(func(b *Bookmark) {
		if bad != nil {
			return
		}
		if b.Named != "" {
			if _, ok := d.dests[b.Named]; !ok {
				bad = &raw.UnsupportedError{Feature: "bookmark destination", Value: b.Named}
			}
		} else if !pageOK(b.Dest.Page) {
			bad = &raw.UnsupportedError{Feature: "bookmark page", Value: itoa(b.Dest.Page)}
		}
	})
	if bad != nil {
		return bad
	}
	return compliance.Check(d.cfg.Compliance, d.facts()).Err()
}

func (d *Document) facts() compliance.Facts {
	f := compliance.Facts{
		Title:           d.cfg.Title,
		Lang:            d.cfg.Lang,
		Tagged:          d.cfg.Tagged,
		OutputICC:       len(d.cfg.ICCProfile) > 0,
		JavaScript:      len(d.scripts) > 0,
		OptionalContent: len(d.ocgs) > 0,
	}
	for _, rec := range d.fonts {
		if rec.prog == nil {
			f.UnembeddedFonts = append(f.UnembeddedFonts, rec.name)
		}
	}
	for _, g := range d.gstates {
		f.Transparency = f.Transparency || g.transparent()
	}
	for _, im := range d.images {
		f.Transparency = f.Transparency || im.smask != 0
	}
	for _, p := range d.pages {
		for _, e := range p.elems {
			if e.Role == "Figure" && e.Alt == "" {
				f.FiguresWithoutAlt = append(f.FiguresWithoutAlt, p.index+1)
				break
			}
		}
	}
	return f
}

func (d *Document) resourcesDict() []string {
	var b strings.Builder
	b.WriteString("<< /ProcSet [ /PDF /Text /ImageB /ImageC /ImageI ]")
	sub := func(key string, names []string, nums []int) {
		if len(names) == 0 {
			return
		}
		b.WriteString(" " + key + " <<")
		for i := range names {
			b.WriteString(" " + names[i] + " " + ref(nums[i]))
		}
		b.WriteString(" >>")
	}
	var names []string
	var nums []int
	for _, rec := range d.fonts {
		f := &Font{rec: rec}
		names, nums = append(names, f.ResourceName()), append(nums, rec.font)
	}
	sub("/Font", names, nums)
	names, nums = nil, nil
	for _, im := range d.images {
		names, nums = append(names, im.ResourceName()), append(nums, im.num)
	}
	sub("/XObject", names, nums)
	names, nums = nil, nil
	for _, g := range d.gstates {
		names, nums = append(names, g.ResourceName()), append(nums, g.num)
	}
	sub("/ExtGState", names, nums)
	names, nums = nil, nil
	for _, oc := range d.ocgs {
		names, nums = append(names, oc.ResourceName()), append(nums, oc.num)
	}
	sub("/Properties", names, nums)
	b.WriteString(" >>")
	return dict("%s", b.String())
}

func (d *Document) infoDict() []string {
	c := d.cfg
	var b strings.Builder
	b.WriteString("<<")
	for _, kv := range [][2]string{
		{"/Title", c.Title}, {"/Author", c.Author}, {"/Subject", c.Subject},
		{"/Keywords", c.Keywords}, {"/Creator", c.Creator}, {"/Producer", c.Producer},
	} {
		if kv[1] != "" {
			b.WriteString(" " + kv[0] + " " + writer.TextString(kv[1]))
		}
	}
	if !c.CreationDate.IsZero() {
		date := writer.Date(c.CreationDate)
		b.WriteString(" /CreationDate " + date + " /ModDate " + date)
	}
	b.WriteString(" >>")
	return dict("%s", b.String())
}

func (d *Document) catalogDict(l *layout, metadata, intent, structRoot, outlines int) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Catalog /Pages %s", ref(l.pagesTree))
	if metadata != 0 {
		fmt.Fprintf(&b, " /Metadata %s", ref(metadata))
	}
	if intent != 0 {
		fmt.Fprintf(&b, " /OutputIntents %s", refArray([]int{intent}))
	}
	if outlines != 0 {
		fmt.Fprintf(&b, " /Outlines %s /PageMode /UseOutlines", ref(outlines))
	}
	if names := d.namesDict(l.pageNum); names != "" {
		b.WriteString(" /Names " + names)
	}
	if len(d.ocgs) > 0 {
		b.WriteString(" /OCProperties " + d.ocProperties())
	}
	if structRoot != 0 {
		fmt.Fprintf(&b, " /MarkInfo << /Marked true >> /StructTreeRoot %s", ref(structRoot))
	}
	if d.cfg.Lang != "" {
		b.WriteString(" /Lang " + writer.LiteralString([]byte(d.cfg.Lang)))
	}
	if d.cfg.Compliance == compliance.PDFUA1 {
		b.WriteString(" /ViewerPreferences << /DisplayDocTitle true >>")
	}
	b.WriteString(" >>")
	return dict("%s", b.String())
}
