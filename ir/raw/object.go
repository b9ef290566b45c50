// Package raw holds PDF objects in their on-disk shape: a dictionary is an
// ordered list of string tokens exactly as they appear in the file, so
// parsed objects can be edited and written back without a typed model.
package raw

import (
	"strconv"
	"strings"
)

// Object is one indirect PDF object.
type Object struct {
	// Number is the object number, 1-based.
	Number int
	// Offset is the byte offset of the "N 0 obj" header, 0 until written or
	// when the object came out of an object stream.
	Offset int64
	// Dict is the object body as tokens, without the "N 0 obj" header.
	// For dictionaries it starts with "<<" and ends with ">>".
	Dict []string
	// Stream holds the stream bytes as stored in the file, nil when the
	// object has no stream.
	Stream []byte
	// Data holds decoded stream bytes once something decoded them.
	Data []byte
	// GState is the graphics-state number when the object is an ExtGState
	// registered by this library, 0 otherwise.
	GState int
}

// NewObject wraps a token body. The object gets its number when it is added
// to a document or written.
func NewObject(dict []string, stream []byte) *Object {
	return &Object{Dict: dict, Stream: stream}
}

// HasStream reports whether the object carries stream data.
func (o *Object) HasStream() bool { return o.Stream != nil }

// IsDict reports whether the body is a dictionary.
func (o *Object) IsDict() bool {
	return len(o.Dict) > 0 && o.Dict[0] == "<<"
}

// Type returns the /Type name, or "" when absent.
func (o *Object) Type() string { return o.Value("/Type") }

// Value looks up key in the top-level dictionary. Scalars come back as the
// bare token, references as "N 0 R", and nested dictionaries or arrays as a
// space-joined reconstruction of their tokens. Missing keys return "".
func (o *Object) Value(key string) string {
	i := FindKey(o.Dict, 0, key)
	if i < 0 {
		return ""
	}
	end := ValueEnd(o.Dict, i+1)
	return Join(o.Dict[i+1 : end])
}

// Int returns the integer value of key.
func (o *Object) Int(key string) (int, bool) {
	v := o.Value(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Ref returns the object number referenced by key.
func (o *Object) Ref(key string) (int, bool) {
	i := FindKey(o.Dict, 0, key)
	if i < 0 || !IsRef(o.Dict, i+1) {
		return 0, false
	}
	n, _ := strconv.Atoi(o.Dict[i+1])
	return n, true
}

// Refs returns every object number referenced by the value of key, which may
// be a single reference or an array of them.
func (o *Object) Refs(key string) []int {
	i := FindKey(o.Dict, 0, key)
	if i < 0 {
		return nil
	}
	return CollectRefs(o.Dict[i+1 : ValueEnd(o.Dict, i+1)])
}

// Edit returns an editor over the object's tokens.
func (o *Object) Edit() *Editor { return &Editor{obj: o} }

// Join renders tokens back into PDF syntax separated by single spaces.
func Join(toks []string) string { return strings.Join(toks, " ") }

// RefTokens returns the "N 0 R" triple for an object number.
func RefTokens(num int) []string {
	return []string{strconv.Itoa(num), "0", "R"}
}

// Ref renders "N 0 R".
func Ref(num int) string { return strconv.Itoa(num) + " 0 R" }

// IsRef reports whether toks[i:i+3] is an indirect reference triple.
func IsRef(toks []string, i int) bool {
	if i+2 >= len(toks) || toks[i+2] != "R" {
		return false
	}
	return isUint(toks[i]) && isUint(toks[i+1])
}

// CollectRefs returns the object numbers of every reference in toks.
func CollectRefs(toks []string) []int {
	var nums []int
	for i := 0; i < len(toks); i++ {
		if IsRef(toks, i) {
			n, _ := strconv.Atoi(toks[i])
			nums = append(nums, n)
			i += 2
		}
	}
	return nums
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

// FindKey returns the index of key among the direct keys of the dictionary
// opening at toks[open], or -1. Keys of nested dictionaries are not matched.
func FindKey(toks []string, open int, key string) int {
	if open >= len(toks) || toks[open] != "<<" {
		return -1
	}
	i := open + 1
	for i < len(toks) && toks[i] != ">>" {
		if toks[i] == key {
			return i
		}
		// skip key, then its value
		i = ValueEnd(toks, i+1)
	}
	return -1
}

// ValueEnd returns the index just past the value starting at toks[i]:
// a whole nested dictionary or array, a reference triple, or one token.
func ValueEnd(toks []string, i int) int {
	if i >= len(toks) {
		return len(toks)
	}
	switch toks[i] {
	case "<<", "[":
		return Close(toks, i) + 1
	}
	if IsRef(toks, i) {
		return i + 3
	}
	return i + 1
}

// Close returns the index of the token that closes the dictionary or array
// opening at toks[open], or len(toks)-1 when it is never closed.
func Close(toks []string, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i] {
		case "<<", "[":
			depth++
		case ">>", "]":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}
