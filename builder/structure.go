package builder

import (
	"fmt"
	"strings"

	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/writer"
)

// Tag carries the accessibility attributes of a structure element.
type Tag struct {
	Lang       string
	Alt        string
	ActualText string
}

// StructElem is one marked-content run of a page in the structure tree.
type StructElem struct {
	Role string
	Tag
	page   *Page
	mcid   int
	parent *StructElem
	kids   []*StructElem
}

func (e *StructElem) MCID() int { return e.mcid }

// BeginTag opens marked content for a new structure element of the given
// role (P, H1, Figure, ...) and returns its marked-content ID. The
// document must be tagged. A tag opened inside another becomes its child
// in the structure tree.
func (p *Page) BeginTag(role string, t Tag) (int, error) {
	if !p.doc.cfg.Tagged {
		return 0, &raw.UnsupportedError{Feature: "marked content in untagged document", Value: role}
	}
	if role == "" || strings.ContainsAny(role, " /()<>[]{}%") {
		return 0, &raw.UnsupportedError{Feature: "structure role", Value: role}
	}
	e := &StructElem{Role: role, Tag: t, page: p, mcid: len(p.elems)}
	if len(p.open) > 0 {
		e.parent = p.open[len(p.open)-1]
		e.parent.kids = append(e.parent.kids, e)
	}
	p.elems = append(p.elems, e)
	p.open = append(p.open, e)
	p.Appendf("/%s << /MCID %d >> BDC", role, e.mcid)
	return e.mcid, nil
}

// EndTag closes the innermost open tag.
func (p *Page) EndTag() error {
	if len(p.open) == 0 {
		return fmt.Errorf("page %d: EndTag without BeginTag", p.index+1)
	}
	p.open = p.open[:len(p.open)-1]
	p.Append("EMC")
	return nil
}

// structTree numbers and builds the structure tree objects starting at
// first: StructTreeRoot, ParentTree, the Document element, then every
// element in page order.
func (d *Document) structTree(first int, pageNums []int) []*raw.Object {
	root, parentTree, docElem := first, first+1, first+2
	next := first + 3

	nums := make([]string, 0, len(d.pages))
	elemNum := map[*StructElem]int{}
	for i, p := range d.pages {
		perPage := make([]int, 0, len(p.elems))
		for _, e := range p.elems {
			elemNum[e] = next
			perPage = append(perPage, next)
			next++
		}
		nums = append(nums, fmt.Sprintf("%d %s", i, refArray(perPage)))
	}

	var kids []int
	var elems []*raw.Object
	for i, p := range d.pages {
		for _, e := range p.elems {
			parent := docElem
			if e.parent != nil {
				parent = elemNum[e.parent]
			} else {
				kids = append(kids, elemNum[e])
			}
			children := make([]int, len(e.kids))
			for k, c := range e.kids {
				children[k] = elemNum[c]
			}
			elems = append(elems, raw.NewObject(elemDict(e, parent, pageNums[i], children), nil))
		}
	}

	objs := []*raw.Object{
		raw.NewObject(dict("<< /Type /StructTreeRoot /K %s /ParentTree %s /ParentTreeNextKey %d >>",
			ref(docElem), ref(parentTree), len(d.pages)), nil),
		raw.NewObject(dict("<< /Nums [ %s ] >>", strings.Join(nums, " ")), nil),
	}
	docDict := fmt.Sprintf("<< /Type /StructElem /S /Document /P %s /K %s", ref(root), refArray(kids))
	if d.cfg.Lang != "" {
		docDict += " /Lang " + writer.LiteralString([]byte(d.cfg.Lang))
	}
	objs = append(objs, raw.NewObject(dict("%s >>", docDict), nil))
	return append(objs, elems...)
}

// elemDict lists the element's own marked content before its children.
func elemDict(e *StructElem, parent, page int, children []int) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /StructElem /S /%s /P %s /Pg %s", e.Role, ref(parent), ref(page))
	if len(children) == 0 {
		fmt.Fprintf(&b, " /K %d", e.mcid)
	} else {
		fmt.Fprintf(&b, " /K [ %d", e.mcid)
		for _, c := range children {
			b.WriteString(" " + ref(c))
		}
		b.WriteString(" ]")
	}
	if e.Lang != "" {
		b.WriteString(" /Lang " + writer.LiteralString([]byte(e.Lang)))
	}
	if e.Alt != "" {
		b.WriteString(" /Alt " + writer.UTF16Hex(e.Alt))
	}
	if e.ActualText != "" {
		b.WriteString(" /ActualText " + writer.UTF16Hex(e.ActualText))
	}
	b.WriteString(" >>")
	return dict("%s", b.String())
}
