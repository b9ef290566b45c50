package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/scripting"
	"github.com/wudi/pdfobj/writer"
)

// Destination is an /XYZ view of a page. Zoom 0 keeps the current zoom.
type Destination struct {
	Page int
	X, Y float64
	Zoom float64
}

func (dst Destination) array(pageNum int) string {
	return fmt.Sprintf("[ %s /XYZ %s %s %s ]", ref(pageNum), writer.Real(dst.X), writer.Real(dst.Y), writer.Real(dst.Zoom))
}

// Annotation is a link annotation. Exactly one of URI, Named and Dest is
// set.
type Annotation struct {
	Rect  Box
	URI   string
	Named string
	Dest  *Destination
	// Contents is the alternate description.
	Contents string
}

// AddLink attaches a link annotation to p. It is written when the
// document is closed.
func (p *Page) AddLink(a Annotation) (*Annotation, error) {
	set := 0
	for _, ok := range []bool{a.URI != "", a.Named != "", a.Dest != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, &raw.UnsupportedError{Feature: "link target", Value: fmt.Sprintf("%d targets", set)}
	}
	ann := a
	p.annots = append(p.annots, &ann)
	return &ann, nil
}

func (a *Annotation) dict(pageNum func(int) int) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Annot /Subtype /Link /Rect %s /Border [ 0 0 0 ]", a.Rect)
	switch {
	case a.URI != "":
		fmt.Fprintf(&b, " /A << /S /URI /URI %s >>", writer.LiteralString([]byte(a.URI)))
	case a.Named != "":
		fmt.Fprintf(&b, " /Dest %s", writer.LiteralString([]byte(a.Named)))
	default:
		fmt.Fprintf(&b, " /Dest %s", a.Dest.array(pageNum(a.Dest.Page)))
	}
	if a.Contents != "" {
		fmt.Fprintf(&b, " /Contents %s", writer.TextString(a.Contents))
	}
	b.WriteString(" >>")
	return dict("%s", b.String())
}

// AddNamedDestination defines name for use by links and bookmarks.
func (d *Document) AddNamedDestination(name string, dst Destination) error {
	if name == "" {
		return &raw.UnsupportedError{Feature: "destination name", Value: name}
	}
	d.dests[name] = dst
	return nil
}

// Bookmark is an outline item. It targets either Dest or the named
// destination Named.
type Bookmark struct {
	Title string
	Dest  Destination
	Named string

	parent   *Bookmark
	children []*Bookmark
	num      int
}

// AddBookmark adds a top-level outline item.
func (d *Document) AddBookmark(title string, dst Destination) *Bookmark {
	return d.outline.AddChild(title, dst)
}

// AddNamedBookmark adds a top-level outline item that targets a named
// destination.
func (d *Document) AddNamedBookmark(title, named string) *Bookmark {
	return d.outline.AddNamedChild(title, named)
}

func (b *Bookmark) AddChild(title string, dst Destination) *Bookmark {
	c := &Bookmark{Title: title, Dest: dst, parent: b}
	b.children = append(b.children, c)
	return c
}

func (b *Bookmark) AddNamedChild(title, named string) *Bookmark {
	c := &Bookmark{Title: title, Named: named, parent: b}
	b.children = append(b.children, c)
	return c
}

// Children returns the direct children of b.
func (b *Bookmark) Children() []*Bookmark { return b.children }

func (b *Bookmark) walk(fn func(*Bookmark)) {
	for _, c := range b.children {
		fn(c)
		c.walk(fn)
	}
}

func (b *Bookmark) count() int {
	n := len(b.children)
	for _, c := range b.children {
		n += c.count()
	}
	return n
}

// outlineObjects numbers the outline root at first and the items in
// preorder after it.
func (d *Document) outlineObjects(first int, pageNum func(int) int) []*raw.Object {
	d.outline.num = first
	next := first + 1
	d.outline.walk(func(b *Bookmark) {
		b.num = next
		next++
	})

	kids := d.outline.children
	objs := []*raw.Object{raw.NewObject(dict("<< /Type /Outlines /First %s /Last %s /Count %d >>",
		ref(kids[0].num), ref(kids[len(kids)-1].num), d.outline.count()), nil)}
	d.outline.walk(func(b *Bookmark) {
		var s strings.Builder
		fmt.Fprintf(&s, "<< /Title %s /Parent %s", writer.UTF16Hex(b.Title), ref(b.parent.num))
		sib := b.parent.children
		for i, c := range sib {
			if c != b {
				continue
			}
			if i > 0 {
				fmt.Fprintf(&s, " /Prev %s", ref(sib[i-1].num))
			}
			if i < len(sib)-1 {
				fmt.Fprintf(&s, " /Next %s", ref(sib[i+1].num))
			}
		}
		if len(b.children) > 0 {
			fmt.Fprintf(&s, " /First %s /Last %s /Count %d", ref(b.children[0].num), ref(b.children[len(b.children)-1].num), b.count())
		}
		if b.Named != "" {
			fmt.Fprintf(&s, " /Dest %s", writer.LiteralString([]byte(b.Named)))
		} else {
			fmt.Fprintf(&s, " /Dest %s", b.Dest.array(pageNum(b.Dest.Page)))
		}
		s.WriteString(" >>")
		objs = append(objs, raw.NewObject(dict("%s", s.String()), nil))
	})
	return objs
}

// AddJavaScript adds a document-level script run when the file opens. The
// script must compile.
func (d *Document) AddJavaScript(name, src string) error {
	if err := d.usable(); err != nil {
		return err
	}
	if err := scripting.Check(name, src); err != nil {
		return err
	}
	for _, s := range d.scripts {
		if s.name == name {
			return &raw.UnsupportedError{Feature: "duplicate script name", Value: name}
		}
	}
	d.scripts = append(d.scripts, script{name: name, src: src})
	return nil
}

type script struct {
	name string
	src  string
	num  int
}

// namesDict renders the catalog /Names entry, or "" when there is nothing
// to name. Name trees list keys in sorted order.
func (d *Document) namesDict(pageNum func(int) int) string {
	var parts []string
	if len(d.dests) > 0 {
		keys := make([]string, 0, len(d.dests))
		for k := range d.dests {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			dst := d.dests[k]
			fmt.Fprintf(&b, " %s %s", writer.LiteralString([]byte(k)), dst.array(pageNum(dst.Page)))
		}
		parts = append(parts, "/Dests << /Names ["+b.String()+" ] >>")
	}
	if len(d.scripts) > 0 {
		sorted := append([]script(nil), d.scripts...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
		var b strings.Builder
		for _, s := range sorted {
			fmt.Fprintf(&b, " %s %s", writer.LiteralString([]byte(s.name)), ref(s.num))
		}
		parts = append(parts, "/JavaScript << /Names ["+b.String()+" ] >>")
	}
	if len(parts) == 0 {
		return ""
	}
	return "<< " + strings.Join(parts, " ") + " >>"
}
