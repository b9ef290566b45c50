package raw

import (
	"fmt"
	"sort"
	"strconv"
)

// Document is a parsed PDF held as a list of objects sorted by number.
// A Document is not safe for concurrent mutation.
type Document struct {
	// Version is the header version, e.g. "1.7".
	Version string
	Objects []*Object
	// Trailer is the newest trailer dictionary. For cross-reference
	// streams it is the stream object's dictionary.
	Trailer []string

	index map[int]*Object
}

// NewDocument sorts objs by number and indexes them. objs must already be
// free of duplicate numbers.
func NewDocument(version string, objs []*Object, trailer []string) *Document {
	sort.Slice(objs, func(i, j int) bool { return objs[i].Number < objs[j].Number })
	d := &Document{Version: version, Objects: objs, Trailer: trailer}
	d.reindex()
	return d
}

func (d *Document) reindex() {
	d.index = make(map[int]*Object, len(d.Objects))
	for _, o := range d.Objects {
		d.index[o.Number] = o
	}
}

// Get returns the object with the given number, or nil.
func (d *Document) Get(num int) *Object {
	if d.index == nil {
		d.reindex()
	}
	return d.index[num]
}

// MaxNumber returns the highest object number in use.
func (d *Document) MaxNumber() int {
	if len(d.Objects) == 0 {
		return 0
	}
	return d.Objects[len(d.Objects)-1].Number
}

// Add appends obj under the next free number and returns that number.
func (d *Document) Add(obj *Object) int {
	obj.Number = d.MaxNumber() + 1
	d.Objects = append(d.Objects, obj)
	if d.index == nil {
		d.reindex()
	}
	d.index[obj.Number] = obj
	return obj.Number
}

func (d *Document) trailer() *Object { return &Object{Dict: d.Trailer} }

// Root returns the catalog's object number, 0 when the trailer lacks /Root.
func (d *Document) Root() int {
	n, _ := d.trailer().Ref("/Root")
	return n
}

// Info returns the info dictionary's object number, 0 when absent.
func (d *Document) Info() int {
	n, _ := d.trailer().Ref("/Info")
	return n
}

// Pages returns the leaf page objects in document order, following
// /Root, /Pages and each /Kids array.
func (d *Document) Pages() ([]*Object, error) {
	root := d.Get(d.Root())
	if root == nil {
		return nil, AtObject(d.Root(), nil, "catalog not found")
	}
	top, ok := root.Ref("/Pages")
	if !ok {
		return nil, AtObject(root.Number, nil, "catalog has no /Pages")
	}
	var pages []*Object
	seen := map[int]bool{}
	var walk func(num int) error
	walk = func(num int) error {
		if seen[num] {
			return AtObject(num, nil, "page tree cycle")
		}
		seen[num] = true
		node := d.Get(num)
		if node == nil {
			return AtObject(num, nil, "page tree node not found")
		}
		if node.Type() == "/Page" {
			pages = append(pages, node)
			return nil
		}
		for _, kid := range node.Refs("/Kids") {
			if err := walk(kid); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(top); err != nil {
		return nil, err
	}
	return pages, nil
}

// Renumber assigns dense numbers 1..n in the current order and rewrites
// every reference triple, trailer included. References to objects that do
// not exist become null. The returned map gives old number to new number.
func (d *Document) Renumber() map[int]int {
	remap := make(map[int]int, len(d.Objects))
	for i, o := range d.Objects {
		remap[o.Number] = i + 1
	}
	for _, o := range d.Objects {
		o.Number = remap[o.Number]
		o.Dict = remapRefs(o.Dict, remap)
	}
	d.Trailer = remapRefs(d.Trailer, remap)
	d.reindex()
	return remap
}

func remapRefs(toks []string, remap map[int]int) []string {
	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		if !IsRef(toks, i) {
			out = append(out, toks[i])
			continue
		}
		old, _ := strconv.Atoi(toks[i])
		if n, ok := remap[old]; ok {
			out = append(out, RefTokens(n)...)
		} else {
			out = append(out, "null")
		}
		i += 2
	}
	return out
}

func (d *Document) String() string {
	return fmt.Sprintf("PDF-%s (%d objects, root %d)", d.Version, len(d.Objects), d.Root())
}
