package builder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/wudi/pdfobj/fonts"
	"github.com/wudi/pdfobj/images"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/writer"
)

// Rewrite renumbers doc densely and writes it as a new file with a fresh
// cross-reference table. Only Version, Deterministic and Logger of cfg are
// used. doc is modified: objects get their new numbers and offsets.
func Rewrite(out io.Writer, doc *raw.Document, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := cfg.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	if doc.Get(doc.Root()) == nil {
		return fmt.Errorf("builder: document root %d not found", doc.Root())
	}
	remap := doc.Renumber()

	version := cfg.Version
	if version == "" {
		version = writer.PDFVersion(doc.Version)
		if version == "" {
			version = writer.PDF17
		}
	}
	w := writer.New(out)
	w.Header(version)
	s := writerSink{w}
	for _, o := range doc.Objects {
		if err := s.put(o); err != nil {
			return err
		}
	}

	id := writer.DocumentID(cfg.Deterministic, []byte(raw.Join(doc.Trailer)), []byte(strconv.Itoa(len(doc.Objects))))
	if err := w.Close(writer.Trailer{Root: doc.Root(), Info: doc.Info(), ID: id}); err != nil {
		return err
	}
	log.Info("document rewritten",
		observability.Int("objects", len(doc.Objects)),
		observability.Int("renumbered", len(remap)),
		observability.Int64("bytes", w.Offset()))
	return nil
}

// findFont returns the font dictionary with the given subtype and base
// font name, or 0.
func findFont(doc *raw.Document, subtype, base string) int {
	for _, o := range doc.Objects {
		if o.Type() == "/Font" && o.Value("/Subtype") == subtype && o.Value("/BaseFont") == base {
			return o.Number
		}
	}
	return 0
}

// AddFontTo embeds p into a parsed document and returns the number of its
// Type0 font dictionary. A Type0 font with the same base name is reused.
func AddFontTo(doc *raw.Document, p *fonts.Program) (int, error) {
	if p == nil || p.Name == "" {
		return 0, &raw.UnsupportedError{Feature: "font program", Value: "unnamed"}
	}
	if n := findFont(doc, "/Type0", writer.Name(p.Name)); n != 0 {
		return n, nil
	}
	s := docSink{doc}
	objs, rec, err := embeddedFont(p, s.next(), CompressDefault)
	if err != nil {
		return 0, err
	}
	if err := putAll(s, objs); err != nil {
		return 0, err
	}
	return rec.font, nil
}

// AddCoreFontTo adds a standard 14 font to a parsed document, reusing an
// existing Type1 dictionary for the same font.
func AddCoreFontTo(doc *raw.Document, name string) (int, error) {
	core, err := fonts.Core(name)
	if err != nil {
		return 0, err
	}
	if n := findFont(doc, "/Type1", writer.Name(name)); n != 0 {
		return n, nil
	}
	return doc.Add(raw.NewObject(coreFontDict(core), nil)), nil
}

// AddImageTo adds img, and its soft mask, to a parsed document and returns
// the image XObject number.
func AddImageTo(doc *raw.Document, img *images.Image) (int, error) {
	s := docSink{doc}
	objs, im, err := imageObjects(img, s.next(), CompressDefault)
	if err != nil {
		return 0, err
	}
	if err := putAll(s, objs); err != nil {
		return 0, err
	}
	return im.num, nil
}

// AddGraphicsStateTo adds gs to a parsed document and returns its object
// number.
func AddGraphicsStateTo(doc *raw.Document, gs GraphicsState) (int, error) {
	if err := gs.normalize(); err != nil {
		return 0, err
	}
	seq := 1
	for _, o := range doc.Objects {
		if o.GState >= seq {
			seq = o.GState + 1
		}
	}
	return doc.Add(gs.object(seq)), nil
}
