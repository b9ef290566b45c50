package raw

import "strconv"

// Editor performs in-place structural edits on an object's token list.
// Indices returned by the find methods are only valid until the next edit.
type Editor struct {
	obj *Object
}

func (e *Editor) Tokens() []string { return e.obj.Dict }

// FindKey returns the index of key in the top-level dictionary, or -1.
func (e *Editor) FindKey(key string) int { return FindKey(e.obj.Dict, 0, key) }

// FindKeyIn returns the index of key in the dictionary opening at open, or -1.
func (e *Editor) FindKeyIn(open int, key string) int { return FindKey(e.obj.Dict, open, key) }

// ValueEnd returns the index just past the value starting at i.
func (e *Editor) ValueEnd(i int) int { return ValueEnd(e.obj.Dict, i) }

// Close returns the index of the closer matching the opener at open.
func (e *Editor) Close(open int) int { return Close(e.obj.Dict, open) }

// InsertAfter inserts toks right after index i.
func (e *Editor) InsertAfter(i int, toks ...string) {
	e.ReplaceRange(i+1, i+1, toks...)
}

// ReplaceRange replaces tokens [start, end) with toks.
func (e *Editor) ReplaceRange(start, end int, toks ...string) {
	d := e.obj.Dict
	out := make([]string, 0, len(d)-(end-start)+len(toks))
	out = append(out, d[:start]...)
	out = append(out, toks...)
	out = append(out, d[end:]...)
	e.obj.Dict = out
}

// Set replaces the value of key in the top-level dictionary, adding the
// entry before the closing ">>" when the key is absent.
func (e *Editor) Set(key string, value ...string) {
	if i := e.FindKey(key); i >= 0 {
		e.ReplaceRange(i+1, e.ValueEnd(i+1), value...)
		return
	}
	closeIdx := e.Close(0)
	if !e.obj.IsDict() {
		return
	}
	e.ReplaceRange(closeIdx, closeIdx, append([]string{key}, value...)...)
}

// SetInt is Set with an integer value.
func (e *Editor) SetInt(key string, v int) { e.Set(key, strconv.Itoa(v)) }

// Delete removes key and its value from the top-level dictionary.
func (e *Editor) Delete(key string) bool {
	i := e.FindKey(key)
	if i < 0 {
		return false
	}
	e.ReplaceRange(i, e.ValueEnd(i+1))
	return true
}
