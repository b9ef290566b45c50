// Package scripting validates document-level JavaScript before it is
// embedded. Scripts are compiled, never run.
package scripting

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// MaxScriptSize bounds a single script.
const MaxScriptSize = 1 << 20

// SyntaxError reports a script that does not compile.
type SyntaxError struct {
	Name string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("javascript %q: %v", e.Name, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Check compiles src in non-strict mode, the mode viewers run document
// scripts in.
func Check(name, src string) error {
	if name == "" {
		return errors.New("javascript: empty script name")
	}
	if len(src) > MaxScriptSize {
		return fmt.Errorf("javascript %q: %d bytes exceeds %d", name, len(src), MaxScriptSize)
	}
	if _, err := goja.Compile(name, src, false); err != nil {
		return &SyntaxError{Name: name, Err: err}
	}
	return nil
}
