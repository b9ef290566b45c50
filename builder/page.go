package builder

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/writer"
)

// Box is a page boundary in default user space.
type Box struct {
	LLX, LLY, URX, URY float64
}

func (b Box) String() string { return box(b.LLX, b.LLY, b.URX, b.URY) }

// Page buffers content until the document is closed. Its object number is
// only known then.
type Page struct {
	doc    *Document
	index  int
	Width  float64
	Height float64

	CropBox  *Box
	BleedBox *Box
	TrimBox  *Box
	ArtBox   *Box

	rotate   int
	contents []*bytes.Buffer
	annots   []*Annotation
	elems    []*StructElem
	open     []*StructElem
	optDepth int
}

// AddPage appends a page of the given size in points.
func (d *Document) AddPage(width, height float64) (*Page, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, &raw.UnsupportedError{Feature: "page size", Value: writer.Real(width) + "x" + writer.Real(height)}
	}
	p := &Page{doc: d, index: len(d.pages), Width: width, Height: height}
	p.contents = []*bytes.Buffer{{}}
	d.pages = append(d.pages, p)
	return p, nil
}

// Index is the zero-based position of p in the document.
func (p *Page) Index() int { return p.index }

// SetRotate sets /Rotate. Only multiples of 90 are valid.
func (p *Page) SetRotate(deg int) error {
	if deg%90 != 0 {
		return &raw.UnsupportedError{Feature: "page rotation", Value: itoa(deg)}
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	p.rotate = deg
	return nil
}

func (p *Page) buf() *bytes.Buffer {
	// content appended after Close goes to a buffer nobody writes
	if len(p.contents) == 0 {
		p.contents = []*bytes.Buffer{{}}
	}
	return p.contents[len(p.contents)-1]
}

// Append adds raw content-stream operators to the current stream.
func (p *Page) Append(ops string) {
	b := p.buf()
	b.WriteString(ops)
	if !strings.HasSuffix(ops, "\n") {
		b.WriteByte('\n')
	}
}

// Appendf is Append with formatting.
func (p *Page) Appendf(format string, args ...interface{}) {
	p.Append(fmt.Sprintf(format, args...))
}

// NewContentStream starts another content stream. Pages with several
// streams list them in order under /Contents. An empty current stream
// is reused.
func (p *Page) NewContentStream() {
	if p.buf().Len() == 0 {
		return
	}
	p.contents = append(p.contents, &bytes.Buffer{})
}

// DrawText shows text at (x, y). Nothing is appended when the font cannot
// encode text.
func (p *Page) DrawText(f *Font, size, x, y float64, text string) error {
	if f == nil || size <= 0 {
		return &raw.UnsupportedError{Feature: "text font", Value: "missing font or size"}
	}
	s, err := f.Encode(text)
	if err != nil {
		return err
	}
	p.Appendf("BT %s %s Tf %s %s Td %s Tj ET", f.ResourceName(), writer.Real(size), writer.Real(x), writer.Real(y), s)
	return nil
}

// DrawImage paints im into the rectangle with lower-left corner (x, y).
func (p *Page) DrawImage(im *Image, x, y, w, h float64) {
	p.Appendf("q %s 0 0 %s %s %s cm %s Do Q", writer.Real(w), writer.Real(h), writer.Real(x), writer.Real(y), im.ResourceName())
}

// SetGraphicsState selects gs for the following operators.
func (p *Page) SetGraphicsState(gs *GraphicsState) {
	p.Appendf("%s gs", gs.ResourceName())
}

// BeginOptional starts content belonging to oc.
func (p *Page) BeginOptional(oc *OptionalContent) {
	p.optDepth++
	p.Appendf("/OC %s BDC", oc.ResourceName())
}

// EndOptional closes the innermost optional content section.
func (p *Page) EndOptional() error {
	if p.optDepth == 0 {
		return fmt.Errorf("page %d: EndOptional without BeginOptional", p.index+1)
	}
	p.optDepth--
	p.Append("EMC")
	return nil
}

// Draw draws each item in turn and returns the bottom-right corner of the
// last one.
func (p *Page) Draw(items ...Drawable) (x, y float64, err error) {
	for _, it := range items {
		if x, y, err = it.DrawOn(p); err != nil {
			return 0, 0, err
		}
	}
	return x, y, nil
}

func (p *Page) dict(parent, resources int, contents []int, annots []int, tagged bool) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Page /Parent %s /MediaBox %s", ref(parent), box(0, 0, p.Width, p.Height))
	for _, bx := range []struct {
		key string
		b   *Box
	}{{"/CropBox", p.CropBox}, {"/BleedBox", p.BleedBox}, {"/TrimBox", p.TrimBox}, {"/ArtBox", p.ArtBox}} {
		if bx.b != nil {
			fmt.Fprintf(&b, " %s %s", bx.key, bx.b)
		}
	}
	if p.rotate != 0 {
		fmt.Fprintf(&b, " /Rotate %d", p.rotate)
	}
	fmt.Fprintf(&b, " /Resources %s /Contents %s", ref(resources), refArray(contents))
	if len(annots) > 0 {
		fmt.Fprintf(&b, " /Annots %s", refArray(annots))
	}
	if tagged {
		fmt.Fprintf(&b, " /StructParents %d /Tabs /S", p.index)
	}
	b.WriteString(" >>")
	return dict("%s", b.String())
}
