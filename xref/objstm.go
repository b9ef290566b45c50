package xref

import (
	"context"
	"strconv"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/scanner"
)

// ExpandObjectStream returns the objects packed in an /ObjStm container,
// each tagged with its own object number. The decoded body opens with /N
// pairs of object number and relative offset, then the bodies from /First on.
func ExpandObjectStream(ctx context.Context, container *raw.Object, p *filters.Pipeline, cfg scanner.Config) ([]*raw.Object, error) {
	if container.Type() != "/ObjStm" {
		return nil, raw.AtObject(container.Number, nil, "not an object stream")
	}
	n, ok1 := container.Int("/N")
	first, ok2 := container.Int("/First")
	if !ok1 || !ok2 || n < 0 || first < 0 {
		return nil, raw.AtObject(container.Number, nil, "object stream without valid /N and /First")
	}
	if n > first/2 {
		// each header pair takes at least two bytes before /First
		return nil, raw.AtObject(container.Number, nil, "/N %d does not fit in a %d byte header", n, first)
	}
	data, err := filters.DecodeObject(ctx, container, p)
	if err != nil {
		return nil, err
	}
	if first > len(data) {
		return nil, raw.AtObject(container.Number, raw.ErrTruncatedStream, "/First %d past %d decoded bytes", first, len(data))
	}

	s := scanner.New(data[:first], cfg)
	nums := make([]int, n)
	offs := make([]int, n)
	for i := 0; i < n; i++ {
		a, err1 := s.Next()
		b, err2 := s.Next()
		if err1 != nil || err2 != nil {
			return nil, raw.AtObject(container.Number, nil, "object stream header holds fewer than %d pairs", n)
		}
		num, err1 := strconv.Atoi(a)
		off, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || num <= 0 || off < 0 || first+off > len(data) {
			return nil, raw.AtObject(container.Number, nil, "bad object stream header pair %q %q", a, b)
		}
		if i > 0 && off < offs[i-1] {
			return nil, raw.AtObject(container.Number, nil, "object stream offsets out of order")
		}
		nums[i], offs[i] = num, off
	}

	out := make([]*raw.Object, 0, n)
	for i := 0; i < n; i++ {
		start := first + offs[i]
		end := len(data)
		if i+1 < n {
			end = first + offs[i+1]
		}
		res, err := scanner.Tokenize(data[start:end], 0, cfg)
		if err != nil {
			return nil, raw.AtObject(nums[i], err, "in object stream %d", container.Number)
		}
		out = append(out, &raw.Object{Number: nums[i], Dict: res.Tokens})
	}
	return out, nil
}
