// Package recovery decides whether malformed input stops a parse.
package recovery

import "fmt"

// Strategy is consulted for every malformed token the scanner meets.
type Strategy interface {
	OnError(ctx Context, err error, location Location) Action
}

// Location points at the malformed input.
type Location struct {
	ByteOffset int64
	ObjectNum  int
	// Component is "scanner:" plus the construct being read (literal,
	// dict, object).
	Component string
}

func (l Location) String() string {
	if l.ObjectNum > 0 {
		return fmt.Sprintf("[%s] object %d offset %d", l.Component, l.ObjectNum, l.ByteOffset)
	}
	return fmt.Sprintf("[%s] offset %d", l.Component, l.ByteOffset)
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionFix
	ActionWarn
)

var actionNames = [...]string{"fail", "skip", "fix", "warn"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Recovered reports whether the action lets the caller continue.
func (a Action) Recovered() bool { return a == ActionSkip || a == ActionFix || a == ActionWarn }

// Context is satisfied by context.Context; the scanner passes nil.
type Context interface{ Done() <-chan struct{} }
