package raw

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func toks(s string) []string { return strings.Fields(s) }

func TestValueLookup(t *testing.T) {
	o := NewObject(toks("<< /Type /Page /MediaBox [ 0 0 612 792 ] /Resources << /Font << /F1 5 0 R >> >> /Parent 2 0 R /Rotate 90 >>"), nil)
	if got := o.Type(); got != "/Page" {
		t.Fatalf("type = %q", got)
	}
	if got := o.Value("/MediaBox"); got != "[ 0 0 612 792 ]" {
		t.Fatalf("mediabox = %q", got)
	}
	if got := o.Value("/Resources"); got != "<< /Font << /F1 5 0 R >> >>" {
		t.Fatalf("resources = %q", got)
	}
	if n, ok := o.Ref("/Parent"); !ok || n != 2 {
		t.Fatalf("parent = %d %v", n, ok)
	}
	if n, ok := o.Int("/Rotate"); !ok || n != 90 {
		t.Fatalf("rotate = %d %v", n, ok)
	}
	// nested keys are not top-level keys
	if got := o.Value("/F1"); got != "" {
		t.Fatalf("nested key leaked: %q", got)
	}
	if got := o.Value("/Missing"); got != "" {
		t.Fatalf("missing key = %q", got)
	}
}

func TestRefsArrayAndSingle(t *testing.T) {
	o := NewObject(toks("<< /Kids [ 3 0 R 4 0 R 10 0 R ] /Contents 7 0 R >>"), nil)
	if got := o.Refs("/Kids"); !reflect.DeepEqual(got, []int{3, 4, 10}) {
		t.Fatalf("kids = %v", got)
	}
	if got := o.Refs("/Contents"); !reflect.DeepEqual(got, []int{7}) {
		t.Fatalf("contents = %v", got)
	}
}

func TestRefTripleRequiresR(t *testing.T) {
	// a MediaBox-like array must not be mistaken for references
	if got := CollectRefs(toks("[ 0 0 612 792 ]")); len(got) != 0 {
		t.Fatalf("false refs: %v", got)
	}
	if IsRef(toks("1.5 0 R"), 0) {
		t.Fatal("real number accepted as object number")
	}
}

func TestEditorInsertAndReplace(t *testing.T) {
	o := NewObject(toks("<< /Type /Page /Contents 4 0 R >>"), nil)
	ed := o.Edit()
	i := ed.FindKey("/Contents")
	ed.ReplaceRange(i+1, ed.ValueEnd(i+1), "[", "9", "0", "R", "4", "0", "R", "]")
	ed.InsertAfter(ed.FindKey("/Type")+1, "/Rotate", "0")
	want := "<< /Type /Page /Rotate 0 /Contents [ 9 0 R 4 0 R ] >>"
	if got := Join(o.Dict); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEditorSetAndDelete(t *testing.T) {
	o := NewObject(toks("<< /Length 8 0 R /Filter /FlateDecode >>"), []byte("abc"))
	ed := o.Edit()
	ed.SetInt("/Length", 3)
	ed.Set("/DL", "3")
	if !ed.Delete("/Filter") {
		t.Fatal("filter not deleted")
	}
	if got := Join(o.Dict); got != "<< /Length 3 /DL 3 >>" {
		t.Fatalf("got %q", got)
	}
	if ed.Delete("/Filter") {
		t.Fatal("second delete should report false")
	}
}

func TestFindKeyInNested(t *testing.T) {
	o := NewObject(toks("<< /Resources << /XObject << /Im1 6 0 R >> >> >>"), nil)
	ed := o.Edit()
	res := ed.FindKey("/Resources")
	xo := ed.FindKeyIn(res+1, "/XObject")
	if xo < 0 {
		t.Fatal("XObject not found in resources")
	}
	if ed.FindKeyIn(res+1, "/Im1") >= 0 {
		t.Fatal("grandchild key matched")
	}
	if ed.Close(res+1) != len(o.Dict)-2 {
		t.Fatalf("close index %d", ed.Close(res+1))
	}
}

func TestDocumentPagesAndAdd(t *testing.T) {
	objs := []*Object{
		{Number: 3, Dict: toks("<< /Type /Page /Parent 2 0 R >>")},
		{Number: 1, Dict: toks("<< /Type /Catalog /Pages 2 0 R >>")},
		{Number: 2, Dict: toks("<< /Type /Pages /Kids [ 5 0 R 3 0 R ] /Count 2 >>")},
		{Number: 5, Dict: toks("<< /Type /Page /Parent 2 0 R >>")},
	}
	doc := NewDocument("1.7", objs, toks("<< /Size 6 /Root 1 0 R >>"))
	if doc.Objects[0].Number != 1 || doc.MaxNumber() != 5 {
		t.Fatalf("objects not sorted: first %d max %d", doc.Objects[0].Number, doc.MaxNumber())
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 2 || pages[0].Number != 5 || pages[1].Number != 3 {
		t.Fatalf("unexpected page order")
	}
	n := doc.Add(NewObject(toks("<< /Type /Font >>"), nil))
	if n != 6 || doc.Get(6) == nil {
		t.Fatalf("added as %d", n)
	}
}

func TestPagesMissingRoot(t *testing.T) {
	doc := NewDocument("1.4", nil, toks("<< /Size 1 /Root 9 0 R >>"))
	_, err := doc.Pages()
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Object != 9 {
		t.Fatalf("expected ParseError for object 9, got %v", err)
	}
}

func TestRenumberRewritesReferences(t *testing.T) {
	objs := []*Object{
		{Number: 4, Dict: toks("<< /Type /Catalog /Pages 9 0 R /Outlines 20 0 R >>")},
		{Number: 9, Dict: toks("<< /Type /Pages /Kids [ 12 0 R ] /Count 1 >>")},
		{Number: 12, Dict: toks("<< /Type /Page /Parent 9 0 R /MediaBox [ 0 0 612 792 ] >>")},
	}
	doc := NewDocument("1.7", objs, toks("<< /Size 13 /Root 4 0 R >>"))
	remap := doc.Renumber()
	if remap[4] != 1 || remap[9] != 2 || remap[12] != 3 {
		t.Fatalf("remap = %v", remap)
	}
	if got := Join(doc.Get(1).Dict); got != "<< /Type /Catalog /Pages 2 0 R /Outlines null >>" {
		t.Fatalf("catalog = %q", got)
	}
	if got := Join(doc.Get(3).Dict); got != "<< /Type /Page /Parent 2 0 R /MediaBox [ 0 0 612 792 ] >>" {
		t.Fatalf("page = %q", got)
	}
	if doc.Root() != 1 {
		t.Fatalf("root = %d", doc.Root())
	}
}

func TestParseErrorFormatting(t *testing.T) {
	err := AtOffset(120, ErrBadPrev, "xref section")
	if !errors.Is(err, ErrBadPrev) {
		t.Fatal("sentinel not unwrapped")
	}
	if got := err.Error(); got != "pdf: offset 120: xref section: unresolvable /Prev offset" {
		t.Fatalf("message %q", got)
	}
	if got := AtObject(7, nil, "bad stream").Error(); got != "pdf: object 7: bad stream" {
		t.Fatalf("message %q", got)
	}
}
