// Package scanner splits raw PDF bytes into the flat token lists that the
// rest of the library treats as object dictionaries.
//
// Tokens are kept verbatim: names keep their leading slash, literal strings
// keep their parentheses and escapes, hex strings keep their angle brackets.
// Dictionary and array delimiters are tokens of their own.
package scanner

import (
	"errors"
	"io"

	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/recovery"
)

// Terminators that end the scan of one object.
const (
	KeywordEndObj    = "endobj"
	KeywordStream    = "stream"
	KeywordStartXRef = "startxref"
)

type Config struct {
	MaxStringLength int64
	Recovery        recovery.Strategy
}

// Result is one object's worth of tokens.
type Result struct {
	Tokens []string
	// Stream is the offset of the first stream data byte, -1 without a stream.
	Stream int64
	// End is the offset just past the terminator (or the end of input).
	End int64
	// Terminator is the keyword that ended the scan, empty at end of input.
	Terminator string
}

// Scanner walks an in-memory PDF buffer. It never mutates the buffer, so
// several scanners may share one slice.
type Scanner struct {
	data []byte
	pos  int64
	cfg  Config
}

func New(data []byte, cfg Config) *Scanner {
	return &Scanner{data: data, cfg: cfg}
}

func (s *Scanner) Position() int64 { return s.pos }

func (s *Scanner) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return raw.AtOffset(offset, nil, "seek out of range (input is %d bytes)", len(s.data))
	}
	s.pos = offset
	return nil
}

// Tokenize scans the object starting at off.
func Tokenize(data []byte, off int64, cfg Config) (Result, error) {
	s := New(data, cfg)
	if err := s.Seek(off); err != nil {
		return Result{}, err
	}
	return s.Object()
}

// Object collects tokens from the current position until endobj, stream or
// startxref, or until the input runs out.
func (s *Scanner) Object() (Result, error) {
	start := s.pos
	res := Result{Stream: -1}
	depth := 0
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, err
		}
		switch tok {
		case KeywordEndObj, KeywordStartXRef:
			res.Terminator = tok
			res.End = s.pos
			return res, s.checkBalance(depth, start)
		case KeywordStream:
			res.Terminator = tok
			res.Stream = s.streamStart()
			res.End = res.Stream
			return res, s.checkBalance(depth, start)
		case "<<", "[":
			depth++
		case ">>", "]":
			depth--
		}
		res.Tokens = append(res.Tokens, tok)
	}
	res.End = s.pos
	return res, s.checkBalance(depth, start)
}

func (s *Scanner) checkBalance(depth int, start int64) error {
	if depth <= 0 {
		return nil
	}
	return s.recover(raw.AtOffset(start, nil, "unterminated dictionary or array"), start, "dict")
}

// streamStart skips the single EOL that follows the stream keyword.
func (s *Scanner) streamStart() int64 {
	p := s.pos
	if p < int64(len(s.data)) && s.data[p] == '\r' {
		if p+1 < int64(len(s.data)) && s.data[p+1] == '\n' {
			return p + 2
		}
		return p
	}
	if p < int64(len(s.data)) && s.data[p] == '\n' {
		return p + 1
	}
	return p
}

// Next returns the next token or io.EOF.
func (s *Scanner) Next() (string, error) {
	s.skipWSAndComments()
	if s.pos >= int64(len(s.data)) {
		return "", io.EOF
	}
	start := s.pos
	c := s.data[s.pos]
	switch c {
	case '<', '>':
		// A run of identical angle brackets pairs up: "<<" and ">>" are
		// dictionary markers, a lone '<' opens a hex string.
		if s.peek(1) == c {
			s.pos += 2
			return string(s.data[start:s.pos]), nil
		}
		if c == '<' {
			return s.scanHexString()
		}
		s.pos++
		return ">", nil
	case '[', ']', '{', '}':
		s.pos++
		return string(c), nil
	case '(':
		return s.scanLiteralString()
	case '/':
		s.pos++
		s.skipRegular()
		return string(s.data[start:s.pos]), nil
	case ')':
		s.pos++
		return "", s.recover(raw.AtOffset(start, nil, "unbalanced ')'"), start, "literal")
	}
	s.skipRegular()
	return string(s.data[start:s.pos]), nil
}

func (s *Scanner) skipRegular() {
	for s.pos < int64(len(s.data)) && !IsDelimiter(s.data[s.pos]) {
		s.pos++
	}
}

func (s *Scanner) skipWSAndComments() {
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if IsWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < int64(len(s.data)) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *Scanner) peek(n int64) byte {
	if s.pos+n >= int64(len(s.data)) {
		return 0
	}
	return s.data[s.pos+n]
}

// scanLiteralString captures "(...)" verbatim. p counts open parentheses;
// the byte after a backslash is copied without being interpreted.
func (s *Scanner) scanLiteralString() (string, error) {
	start := s.pos
	s.pos++
	p := 1
	for s.pos < int64(len(s.data)) && p > 0 {
		switch s.data[s.pos] {
		case '\\':
			s.pos++
		case '(':
			p++
		case ')':
			p--
		}
		s.pos++
		if s.cfg.MaxStringLength > 0 && s.pos-start > s.cfg.MaxStringLength {
			return "", raw.AtOffset(start, nil, "literal string longer than %d bytes", s.cfg.MaxStringLength)
		}
	}
	if s.pos > int64(len(s.data)) {
		s.pos = int64(len(s.data))
	}
	tok := string(s.data[start:s.pos])
	if p > 0 {
		if err := s.recover(raw.AtOffset(start, nil, "unterminated literal string"), start, "literal"); err != nil {
			return "", err
		}
		tok += ")"
	}
	return tok, nil
}

func (s *Scanner) scanHexString() (string, error) {
	start := s.pos
	s.pos++
	buf := []byte{'<'}
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			return string(append(buf, '>')), nil
		}
		if !IsWhitespace(c) {
			buf = append(buf, c)
		}
	}
	if err := s.recover(raw.AtOffset(start, nil, "unterminated hex string"), start, "hex"); err != nil {
		return "", err
	}
	return string(append(buf, '>')), nil
}

func (s *Scanner) recover(err error, offset int64, loc string) error {
	if s.cfg.Recovery == nil {
		return err
	}
	action := s.cfg.Recovery.OnError(nil, err, recovery.Location{ByteOffset: offset, Component: "scanner:" + loc})
	if action.Recovered() {
		return nil
	}
	return err
}

// IsWhitespace reports the six PDF white-space characters: NUL, HT, LF, FF, CR, SP.
func IsWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}

func IsDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return IsWhitespace(c)
	}
}

// Split tokenizes a fragment of PDF syntax written by the library itself,
// such as a dictionary template. It does not stop at terminator keywords.
func Split(text string) []string {
	s := New([]byte(text), Config{})
	var toks []string
	for {
		tok, err := s.Next()
		if err != nil {
			return toks
		}
		toks = append(toks, tok)
	}
}
