package builder

import (
	"fmt"
	"io"

	"github.com/wudi/pdfobj/fonts"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/writer"
)

// fontRecord is one entry of the embedded-font arena. Object numbers of
// parts a font does not have are 0.
type fontRecord struct {
	name       string
	font       int
	file       int
	descriptor int
	cidFont    int
	toUnicode  int
	prog       *fonts.Program
	core       *fonts.CoreFont
}

// fontKey separates a standard font from an embedded program that carries
// the same PostScript name.
type fontKey struct {
	name     string
	embedded bool
}

func (r *fontRecord) key() fontKey { return fontKey{name: r.name, embedded: r.prog != nil} }

// Font is a handle on a registered font. Fonts of the same kind registered
// under the same name share one record, so they share every object number.
type Font struct {
	rec *fontRecord
}

func (f *Font) Name() string { return f.rec.name }

// ObjNumber is the font dictionary referenced from resources.
func (f *Font) ObjNumber() int           { return f.rec.font }
func (f *Font) FileObjNumber() int       { return f.rec.file }
func (f *Font) DescriptorObjNumber() int { return f.rec.descriptor }
func (f *Font) CIDFontObjNumber() int    { return f.rec.cidFont }
func (f *Font) ToUnicodeObjNumber() int  { return f.rec.toUnicode }

// Embedded reports whether the font program is in the file.
func (f *Font) Embedded() bool { return f.rec.prog != nil }

// ResourceName is the key under /Font in the resource dictionary.
func (f *Font) ResourceName() string { return "/F" + itoa(f.rec.font) }

// Encode returns text as the string operand of Tj.
func (f *Font) Encode(text string) (string, error) {
	if f.rec.prog != nil {
		return f.rec.prog.Encode(text)
	}
	return f.rec.core.Encode(text)
}

// StringWidth is the advance of text at size points.
func (f *Font) StringWidth(text string, size float64) float64 {
	if f.rec.prog != nil {
		return f.rec.prog.StringWidth(text, size)
	}
	return f.rec.core.StringWidth(text, size)
}

// Descent is the distance below the baseline at size points, negative.
func (f *Font) Descent(size float64) float64 {
	if p := f.rec.prog; p != nil {
		return float64(p.Scale(p.Descent)) * size / 1000
	}
	return -0.2 * size
}

// AddCoreFont registers one of the standard 14 fonts. Nothing is written
// when name is not one of them.
func (d *Document) AddCoreFont(name string) (*Font, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if rec, ok := d.arena[fontKey{name: name}]; ok {
		d.log.Debug("font reused", observability.String("font", name))
		return &Font{rec: rec}, nil
	}
	core, err := fonts.Core(name)
	if err != nil {
		return nil, err
	}
	s := writerSink{d.w}
	rec := &fontRecord{name: name, core: core, font: s.next()}
	if err := s.put(raw.NewObject(coreFontDict(core), nil)); err != nil {
		return nil, err
	}
	return d.register(rec), nil
}

// AddFont embeds p as a Type0 font with Identity-H encoding. A second
// program with the same name returns the first registration and writes
// nothing.
func (d *Document) AddFont(p *fonts.Program) (*Font, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if p == nil || p.Name == "" {
		return nil, &raw.UnsupportedError{Feature: "font program", Value: "unnamed"}
	}
	if rec, ok := d.arena[fontKey{name: p.Name, embedded: true}]; ok {
		d.log.Debug("font reused", observability.String("font", p.Name))
		return &Font{rec: rec}, nil
	}
	s := writerSink{d.w}
	objs, rec, err := embeddedFont(p, s.next(), d.cfg.Compression)
	if err != nil {
		return nil, err
	}
	if err := putAll(s, objs); err != nil {
		return nil, err
	}
	return d.register(rec), nil
}

// AddFontFile embeds a TrueType or OpenType file.
func (d *Document) AddFontFile(name string, data []byte) (*Font, error) {
	p, err := fonts.LoadOpenType(name, data)
	if err != nil {
		return nil, err
	}
	return d.AddFont(p)
}

// AddFontStream embeds a font read from the font-stream container.
func (d *Document) AddFontStream(r io.Reader) (*Font, error) {
	p, err := fonts.DecodeStream(r)
	if err != nil {
		return nil, err
	}
	return d.AddFont(p)
}

func (d *Document) register(rec *fontRecord) *Font {
	d.arena[rec.key()] = rec
	d.fonts = append(d.fonts, rec)
	d.log.Debug("font registered", observability.String("font", rec.name), observability.Object(rec.font))
	return &Font{rec: rec}
}

func coreFontDict(c *fonts.CoreFont) []string {
	if c.Symbolic() {
		return dict("<< /Type /Font /Subtype /Type1 /BaseFont %s >>", writer.Name(c.Name))
	}
	return dict("<< /Type /Font /Subtype /Type1 /BaseFont %s /Encoding /WinAnsiEncoding >>", writer.Name(c.Name))
}

// embeddedFont builds the five objects of a composite font numbered from
// first: file, descriptor, CID font, ToUnicode CMap, Type0 font.
func embeddedFont(p *fonts.Program, first int, c Compression) ([]*raw.Object, *fontRecord, error) {
	if p.UnitsPerEm <= 0 || len(p.Data) == 0 {
		return nil, nil, &raw.UnsupportedError{Feature: "font program", Value: p.Name}
	}
	rec := &fontRecord{
		name:       p.Name,
		prog:       p,
		file:       first,
		descriptor: first + 1,
		cidFont:    first + 2,
		toUnicode:  first + 3,
		font:       first + 4,
	}
	base := writer.Name(p.Name)

	fileDict, fileKey := dict("<< /Length1 %d >>", len(p.Data)), "/FontFile2"
	cidType := "/CIDFontType2"
	cidMap := "/CIDToGIDMap /Identity"
	if p.CFF {
		fileDict, fileKey = dict("<< /Subtype /OpenType >>"), "/FontFile3"
		cidType, cidMap = "/CIDFontType0", ""
	}
	file, err := streamObject(c, fileDict, p.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("font %s: %w", p.Name, err)
	}

	bb := p.BBox
	descriptor := raw.NewObject(dict(
		"<< /Type /FontDescriptor /FontName %s /Flags 4 /FontBBox [ %d %d %d %d ] /ItalicAngle 0 /Ascent %d /Descent %d /CapHeight %d /StemV 80 %s %s >>",
		base, p.Scale(bb[0]), p.Scale(bb[1]), p.Scale(bb[2]), p.Scale(bb[3]),
		p.Scale(p.Ascent), p.Scale(p.Descent), p.Scale(p.CapHeight), fileKey, ref(rec.file)), nil)

	cid := raw.NewObject(dict(
		"<< /Type /Font /Subtype %s /BaseFont %s /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor %s /DW 1000 %s >>",
		cidType, base, ref(rec.descriptor), cidMap), nil)
	cid.Edit().Set("/W", p.WidthsArray()...)

	toUnicode, err := streamObject(c, []string{"<<", ">>"}, p.ToUnicodeCMap())
	if err != nil {
		return nil, nil, fmt.Errorf("font %s: %w", p.Name, err)
	}

	font := raw.NewObject(dict(
		"<< /Type /Font /Subtype /Type0 /BaseFont %s /Encoding /Identity-H /DescendantFonts [ %s ] /ToUnicode %s >>",
		base, ref(rec.cidFont), ref(rec.toUnicode)), nil)

	return []*raw.Object{file, descriptor, cid, toUnicode, font}, rec, nil
}
