package scanner

import (
	"bytes"
	"strconv"

	"github.com/wudi/pdfobj/ir/raw"
)

// LengthFunc resolves an indirect /Length to the integer it names.
type LengthFunc func(num int) (int64, error)

var endstream = []byte("endstream")

// ReadObject parses the indirect object whose "N G obj" header starts at
// off. Stream bytes are sliced from data without copying or decoding.
// length may be nil when no indirect /Length is expected.
func ReadObject(data []byte, off int64, cfg Config, length LengthFunc) (*raw.Object, error) {
	res, err := Tokenize(data, off, cfg)
	if err != nil {
		return nil, err
	}
	toks := res.Tokens
	if len(toks) < 3 || toks[2] != "obj" {
		return nil, raw.AtOffset(off, nil, "expected object header, found %q", head(toks))
	}
	num, err := strconv.Atoi(toks[0])
	if err != nil || num <= 0 {
		return nil, raw.AtOffset(off, nil, "bad object number %q", toks[0])
	}
	body := toks[3:]
	if j := nextHeader(body); j >= 0 {
		// endobj is missing and the scan ran into the next object
		if err := New(data, cfg).recover(raw.AtObject(num, nil, "missing endobj"), off, "object"); err != nil {
			return nil, err
		}
		return &raw.Object{Number: num, Offset: off, Dict: body[:j]}, nil
	}
	obj := &raw.Object{Number: num, Offset: off, Dict: body}
	if res.Terminator != KeywordStream {
		return obj, nil
	}

	start := res.Stream
	n, err := streamLength(obj, length)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		// no usable /Length: the data runs up to endstream
		i := bytes.Index(data[start:], endstream)
		if i < 0 {
			return nil, raw.AtObject(num, raw.ErrTruncatedStream, "endstream not found")
		}
		n = int64(i)
		for n > 0 && (data[start+n-1] == '\n' || data[start+n-1] == '\r') {
			n--
		}
	}
	if n > int64(len(data))-start {
		return nil, &raw.ParseError{Offset: start, Object: num,
			Msg: "declared /Length " + strconv.FormatInt(n, 10) + " exceeds input", Err: raw.ErrTruncatedStream}
	}
	obj.Stream = data[start : start+n : start+n]
	return obj, nil
}

// streamLength returns the declared length, or -1 when /Length is absent.
func streamLength(obj *raw.Object, length LengthFunc) (int64, error) {
	if ref, ok := obj.Ref("/Length"); ok {
		if length == nil {
			return 0, raw.AtObject(obj.Number, nil, "indirect /Length %d cannot be resolved", ref)
		}
		n, err := length(ref)
		if err != nil {
			return 0, raw.AtObject(obj.Number, err, "resolve /Length %d", ref)
		}
		return n, nil
	}
	v := obj.Value("/Length")
	if v == "" {
		return -1, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, raw.AtObject(obj.Number, nil, "bad /Length %q", v)
	}
	return n, nil
}

func nextHeader(body []string) int {
	for j := 2; j < len(body); j++ {
		if body[j] == "obj" && isUint(body[j-2]) && isUint(body[j-1]) {
			return j - 2
		}
	}
	return -1
}

func isUint(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func head(toks []string) string {
	if len(toks) > 3 {
		toks = toks[:3]
	}
	return raw.Join(toks)
}
