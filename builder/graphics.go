package builder

import (
	"fmt"

	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/writer"
)

var blendModes = map[string]bool{
	"Normal": true, "Multiply": true, "Screen": true, "Overlay": true, "Darken": true,
	"Lighten": true, "ColorDodge": true, "ColorBurn": true, "HardLight": true,
	"SoftLight": true, "Difference": true, "Exclusion": true,
}

// GraphicsState is an /ExtGState with constant alpha.
type GraphicsState struct {
	StrokeAlpha float64
	FillAlpha   float64
	// BlendMode defaults to Normal.
	BlendMode string

	num int
}

func (g *GraphicsState) ObjNumber() int       { return g.num }
func (g *GraphicsState) ResourceName() string { return "/GS" + itoa(g.num) }

func (g *GraphicsState) transparent() bool {
	return g.StrokeAlpha < 1 || g.FillAlpha < 1 || (g.BlendMode != "" && g.BlendMode != "Normal")
}

// AddGraphicsState validates gs and writes it.
func (d *Document) AddGraphicsState(gs GraphicsState) (*GraphicsState, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if err := gs.normalize(); err != nil {
		return nil, err
	}
	s := writerSink{d.w}
	gs.num = s.next()
	obj := gs.object(len(d.gstates) + 1)
	if err := s.put(obj); err != nil {
		return nil, err
	}
	g := &gs
	d.gstates = append(d.gstates, g)
	return g, nil
}

func (g *GraphicsState) normalize() error {
	for _, a := range []float64{g.StrokeAlpha, g.FillAlpha} {
		if a < 0 || a > 1 {
			return &raw.UnsupportedError{Feature: "alpha", Value: writer.Real(a)}
		}
	}
	if g.BlendMode == "" {
		g.BlendMode = "Normal"
	}
	if !blendModes[g.BlendMode] {
		return &raw.UnsupportedError{Feature: "blend mode", Value: g.BlendMode}
	}
	return nil
}

// object builds the ExtGState dictionary; seq is the 1-based position of
// the state among those the library registered in the document.
func (g *GraphicsState) object(seq int) *raw.Object {
	obj := raw.NewObject(dict("<< /Type /ExtGState /CA %s /ca %s /BM /%s >>",
		writer.Real(g.StrokeAlpha), writer.Real(g.FillAlpha), g.BlendMode), nil)
	obj.GState = seq
	return obj
}

// OptionalContent is an optional content group (a layer).
type OptionalContent struct {
	Name    string
	Visible bool

	num int
}

func (o *OptionalContent) ObjNumber() int       { return o.num }
func (o *OptionalContent) ResourceName() string { return "/OC" + itoa(o.num) }

// AddOptionalContent writes an /OCG. Hidden groups are listed under /OFF.
func (d *Document) AddOptionalContent(name string, visible bool) (*OptionalContent, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &raw.UnsupportedError{Feature: "optional content name", Value: name}
	}
	s := writerSink{d.w}
	oc := &OptionalContent{Name: name, Visible: visible, num: s.next()}
	if err := s.put(raw.NewObject(dict("<< /Type /OCG /Name %s >>", writer.TextString(name)), nil)); err != nil {
		return nil, err
	}
	d.ocgs = append(d.ocgs, oc)
	return oc, nil
}

func (d *Document) ocProperties() string {
	var all, off []int
	for _, oc := range d.ocgs {
		all = append(all, oc.num)
		if !oc.Visible {
			off = append(off, oc.num)
		}
	}
	on := make([]int, 0, len(all))
	for _, oc := range d.ocgs {
		if oc.Visible {
			on = append(on, oc.num)
		}
	}
	return fmt.Sprintf("<< /OCGs %s /D << /Order %s /ON %s /OFF %s >> >>",
		refArray(all), refArray(all), refArray(on), refArray(off))
}
