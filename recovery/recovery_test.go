package recovery

import (
	"errors"
	"testing"
)

func TestStrictFails(t *testing.T) {
	act := NewStrictStrategy().OnError(nil, errors.New("boom"), Location{ByteOffset: 3})
	if act != ActionFail || act.Recovered() {
		t.Fatalf("strict strategy should fail, got %v", act)
	}
}

func TestLenientRecordsErrors(t *testing.T) {
	s := NewLenientStrategy()
	cause := errors.New("unterminated literal string")
	act := s.OnError(nil, cause, Location{ByteOffset: 42, Component: "scanner:literal"})
	if !act.Recovered() {
		t.Fatalf("lenient strategy should recover, got %v", act)
	}
	errs := s.Recorded()
	if len(errs) != 1 {
		t.Fatalf("expected 1 recorded error, got %d", len(errs))
	}
	if got := errs[0].Error(); got != "[scanner:literal] offset 42: unterminated literal string" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(errs[0], cause) {
		t.Fatalf("recorded error does not wrap its cause")
	}
}

func TestBoundedStrategyGivesUp(t *testing.T) {
	s := NewBoundedStrategy(2)
	loc := Location{ByteOffset: 1, ObjectNum: 9, Component: "scanner:object"}
	for i := 0; i < 2; i++ {
		if act := s.OnError(nil, errors.New("bad"), loc); act != ActionFix {
			t.Fatalf("error %d: got %v", i, act)
		}
	}
	if act := s.OnError(nil, errors.New("bad"), loc); act != ActionFail {
		t.Fatalf("third error: got %v, want fail", act)
	}
	if n := len(s.Recorded()); n != 2 {
		t.Fatalf("recorded %d errors, want 2", n)
	}
	if got := s.Recorded()[0].Error(); got != "[scanner:object] object 9 offset 1: bad" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestActionString(t *testing.T) {
	for a, want := range map[Action]string{ActionFail: "fail", ActionFix: "fix", ActionWarn: "warn", Action(9): "action(9)"} {
		if a.String() != want {
			t.Fatalf("%d: got %q want %q", int(a), a.String(), want)
		}
	}
}
