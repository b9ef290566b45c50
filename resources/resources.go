// Package resources patches parsed page dictionaries in place: it adds
// font, image and graphics-state entries to a page's resources and splices
// new content streams into /Contents, leaving every other token as it was.
// Direct and indirect resource dictionaries keep their shape.
package resources

import (
	"fmt"
	"strconv"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
)

type ResourceCategory string

const (
	CategoryFont      ResourceCategory = "/Font"
	CategoryXObject   ResourceCategory = "/XObject"
	CategoryExtGState ResourceCategory = "/ExtGState"
)

// prefix is the resource-name prefix used for objects this package adds.
func (c ResourceCategory) prefix() string {
	switch c {
	case CategoryFont:
		return "/F"
	case CategoryXObject:
		return "/Im"
	default:
		return "/GS"
	}
}

// maxInherit bounds the /Parent walk.
const maxInherit = 64

// AddFont makes font object num available to page as /F<num> and returns
// that name.
func AddFont(doc *raw.Document, page *raw.Object, num int) (string, error) {
	return Add(doc, page, CategoryFont, num)
}

// AddImage makes image XObject num available to page as /Im<num>.
func AddImage(doc *raw.Document, page *raw.Object, num int) (string, error) {
	return Add(doc, page, CategoryXObject, num)
}

// AddGraphicsState makes ExtGState num available to page as /GS<num>.
func AddGraphicsState(doc *raw.Document, page *raw.Object, num int) (string, error) {
	return Add(doc, page, CategoryExtGState, num)
}

// Add inserts "<prefix><num> num 0 R" into the category sub-dictionary of
// page's resources, creating the sub-dictionary right after the opening
// of the resource dictionary when it is missing. Adding a name that is
// already present changes nothing.
func Add(doc *raw.Document, page *raw.Object, cat ResourceCategory, num int) (string, error) {
	if doc.Get(num) == nil {
		return "", raw.AtObject(num, nil, "resource object not found")
	}
	name := cat.prefix() + strconv.Itoa(num)
	entry := append([]string{name}, raw.RefTokens(num)...)

	holder, open, err := resourceDict(doc, page)
	if err != nil {
		return "", err
	}
	ed := holder.Edit()
	ci := ed.FindKeyIn(open, string(cat))
	if ci < 0 {
		ed.InsertAfter(open, append(append([]string{string(cat), "<<"}, entry...), ">>")...)
		return name, nil
	}
	toks := ed.Tokens()
	switch {
	case raw.IsRef(toks, ci+1):
		n, _ := strconv.Atoi(toks[ci+1])
		sub := doc.Get(n)
		if sub == nil || !sub.IsDict() {
			return "", raw.AtObject(n, nil, "%s dictionary not found", cat)
		}
		if sub.Edit().FindKey(name) < 0 {
			sub.Edit().InsertAfter(0, entry...)
		}
	case ci+1 < len(toks) && toks[ci+1] == "<<":
		if ed.FindKeyIn(ci+1, name) < 0 {
			ed.InsertAfter(ci+1, entry...)
		}
	default:
		return "", raw.AtObject(holder.Number, nil, "%s is not a dictionary", cat)
	}
	return name, nil
}

// resourceDict returns the object holding page's resource dictionary and
// the index of its "<<". Inherited resources are first copied onto the
// page so the edit does not leak into sibling pages through a direct
// dictionary on an ancestor.
func resourceDict(doc *raw.Document, page *raw.Object) (*raw.Object, int, error) {
	ed := page.Edit()
	ri := ed.FindKey("/Resources")
	if ri < 0 {
		val, err := inherited(doc, page)
		if err != nil {
			return nil, 0, err
		}
		ed.Set("/Resources", val...)
		ri = ed.FindKey("/Resources")
		if ri < 0 {
			return nil, 0, raw.AtObject(page.Number, nil, "page is not a dictionary")
		}
	}
	toks := ed.Tokens()
	switch {
	case ri+1 < len(toks) && toks[ri+1] == "<<":
		return page, ri + 1, nil
	case raw.IsRef(toks, ri+1):
		n, _ := strconv.Atoi(toks[ri+1])
		res := doc.Get(n)
		if res == nil || !res.IsDict() {
			return nil, 0, raw.AtObject(n, nil, "resource dictionary not found")
		}
		return res, 0, nil
	}
	return nil, 0, raw.AtObject(page.Number, nil, "/Resources is not a dictionary")
}

// inherited returns the /Resources value tokens of the nearest ancestor,
// or an empty dictionary.
func inherited(doc *raw.Document, page *raw.Object) ([]string, error) {
	node := page
	for depth := 0; depth < maxInherit; depth++ {
		parent, ok := node.Ref("/Parent")
		if !ok {
			return []string{"<<", ">>"}, nil
		}
		node = doc.Get(parent)
		if node == nil {
			return nil, raw.AtObject(parent, nil, "parent page tree node not found")
		}
		if i := raw.FindKey(node.Dict, 0, "/Resources"); i >= 0 {
			end := raw.ValueEnd(node.Dict, i+1)
			return append([]string(nil), node.Dict[i+1:end]...), nil
		}
	}
	return nil, raw.AtObject(page.Number, nil, "page tree deeper than %d levels", maxInherit)
}

// Lookup resolves a resource name for page, following /Parent when the
// page has no /Resources of its own. It returns the referenced object
// number.
func Lookup(doc *raw.Document, page *raw.Object, cat ResourceCategory, name string) (int, error) {
	node := page
	for depth := 0; node != nil && depth < maxInherit; depth++ {
		if i := raw.FindKey(node.Dict, 0, "/Resources"); i >= 0 {
			res, open, err := resourceDict(doc, node)
			if err != nil {
				return 0, err
			}
			return lookupIn(doc, res, open, cat, name)
		}
		parent, ok := node.Ref("/Parent")
		if !ok {
			break
		}
		node = doc.Get(parent)
	}
	return 0, fmt.Errorf("resource not found: %s/%s", cat, name)
}

func lookupIn(doc *raw.Document, res *raw.Object, open int, cat ResourceCategory, name string) (int, error) {
	toks := res.Dict
	ci := raw.FindKey(toks, open, string(cat))
	if ci < 0 {
		return 0, fmt.Errorf("resource not found: %s/%s", cat, name)
	}
	sub, subOpen := toks, ci+1
	if raw.IsRef(toks, ci+1) {
		n, _ := strconv.Atoi(toks[ci+1])
		o := doc.Get(n)
		if o == nil {
			return 0, raw.AtObject(n, nil, "%s dictionary not found", cat)
		}
		sub, subOpen = o.Dict, 0
	}
	ni := raw.FindKey(sub, subOpen, name)
	if ni < 0 || !raw.IsRef(sub, ni+1) {
		return 0, fmt.Errorf("resource not found: %s/%s", cat, name)
	}
	return strconv.Atoi(sub[ni+1])
}

// AddContent adds data as a new deflated content stream and references it
// from page's /Contents, first when prepend is set, last otherwise. It
// returns the new stream's number.
func AddContent(doc *raw.Document, page *raw.Object, data []byte, prepend bool) (int, error) {
	ed := page.Edit()
	ci := ed.FindKey("/Contents")
	var existing []string
	if ci >= 0 {
		toks := ed.Tokens()
		switch {
		case ci+1 < len(toks) && toks[ci+1] == "[":
			existing = toks[ci+2 : ed.Close(ci+1)]
		case raw.IsRef(toks, ci+1):
			n, _ := strconv.Atoi(toks[ci+1])
			target := doc.Get(n)
			switch {
			case target == nil:
				return 0, raw.AtObject(n, nil, "content object not found")
			case target.HasStream():
				existing = toks[ci+1 : ci+4]
			case len(target.Dict) > 0 && target.Dict[0] == "[":
				// an indirect array of streams is inlined
				existing = target.Dict[1:raw.Close(target.Dict, 0)]
			}
		default:
			return 0, raw.AtObject(page.Number, nil, "/Contents is neither a reference nor an array")
		}
		existing = append([]string(nil), existing...)
	}

	stream := raw.NewObject([]string{"<<", "/Filter", "/FlateDecode", ">>"}, filters.Deflate(data))
	stream.Edit().SetInt("/Length", len(stream.Stream))
	num := doc.Add(stream)

	arr := []string{"["}
	if prepend {
		arr = append(arr, raw.RefTokens(num)...)
		arr = append(arr, existing...)
	} else {
		arr = append(arr, existing...)
		arr = append(arr, raw.RefTokens(num)...)
	}
	arr = append(arr, "]")
	ed.Set("/Contents", arr...)
	return num, nil
}

// WrapContent brackets page's content with a saved graphics state: before
// runs after "q" ahead of the existing streams, after runs after "Q" at
// the end. It returns the two new stream numbers.
func WrapContent(doc *raw.Document, page *raw.Object, before, after string) (int, int, error) {
	head, err := AddContent(doc, page, []byte("q\n"+before+"\n"), true)
	if err != nil {
		return 0, 0, err
	}
	tail, err := AddContent(doc, page, []byte("Q\n"+after+"\n"), false)
	if err != nil {
		return 0, 0, err
	}
	return head, tail, nil
}
