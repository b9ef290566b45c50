package builder

import (
	"fmt"
	"strconv"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/scanner"
	"github.com/wudi/pdfobj/writer"
)

// dict tokenizes a dictionary written by the builder itself.
func dict(format string, args ...interface{}) []string {
	return scanner.Split(fmt.Sprintf(format, args...))
}

func ref(num int) string { return raw.Ref(num) }

func refArray(nums []int) string {
	s := "["
	for _, n := range nums {
		s += " " + raw.Ref(n)
	}
	return s + " ]"
}

func box(llx, lly, urx, ury float64) string {
	return "[ " + writer.Real(llx) + " " + writer.Real(lly) + " " + writer.Real(urx) + " " + writer.Real(ury) + " ]"
}

// streamObject builds a stream object, deflating data unless c is
// CompressNone. /Length always matches the stored bytes.
func streamObject(c Compression, d []string, data []byte) (*raw.Object, error) {
	obj := raw.NewObject(append([]string(nil), d...), data)
	if c != CompressNone {
		comp, err := filters.DeflateLevel(data, c.level())
		if err != nil {
			return nil, err
		}
		obj.Stream = comp
		obj.Edit().Set("/Filter", "/FlateDecode")
	}
	obj.Edit().SetInt("/Length", len(obj.Stream))
	return obj, nil
}

// sink receives builder objects numbered from first upwards, either the
// writer of a new file or a parsed document.
type sink interface {
	next() int
	put(obj *raw.Object) error
}

type writerSink struct{ w *writer.Writer }

func (s writerSink) next() int { return s.w.CurrentObjectNumber() + 1 }

func (s writerSink) put(obj *raw.Object) error {
	want := s.next()
	if got := s.w.WriteObject(obj); got != want {
		return fmt.Errorf("builder: object written as %d, expected %d", got, want)
	}
	return s.w.Err()
}

type docSink struct{ doc *raw.Document }

func (s docSink) next() int { return s.doc.MaxNumber() + 1 }

func (s docSink) put(obj *raw.Object) error {
	want := s.next()
	if got := s.doc.Add(obj); got != want {
		return fmt.Errorf("builder: object added as %d, expected %d", got, want)
	}
	return nil
}

func putAll(s sink, objs []*raw.Object) error {
	for _, o := range objs {
		if err := s.put(o); err != nil {
			return err
		}
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
