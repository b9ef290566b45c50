package writer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// UTF16Hex encodes s as a hex string of UTF-16BE with a byte order mark,
// the form used for /Alt, /ActualText and outline titles.
func UTF16Hex(s string) string {
	if s == "" {
		return "<FEFF>"
	}
	b, err := utf16BOM.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// invalid UTF-8 is replaced, so this only fails on an encoder bug
		b = []byte{0xfe, 0xff}
	}
	return HexString(b)
}

// HexString renders b as "<...>" with upper-case digits.
func HexString(b []byte) string {
	return "<" + strings.ToUpper(hex.EncodeToString(b)) + ">"
}

// LiteralString renders b as "(...)", escaping delimiters and control bytes.
func LiteralString(b []byte) string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, ch := range b {
		switch ch {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(ch)
		case '\n':
			buf.WriteString("\\n")
		case '\r':
			buf.WriteString("\\r")
		case '\t':
			buf.WriteString("\\t")
		case '\b':
			buf.WriteString("\\b")
		case '\f':
			buf.WriteString("\\f")
		default:
			if ch < 0x20 || ch >= 0x80 {
				fmt.Fprintf(&buf, "\\%03o", ch)
			} else {
				buf.WriteByte(ch)
			}
		}
	}
	buf.WriteByte(')')
	return buf.String()
}

// TextString picks a literal string for printable ASCII and UTF-16BE hex
// for everything else.
func TextString(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] >= 0x7f {
			return UTF16Hex(s)
		}
	}
	return LiteralString([]byte(s))
}

// Name renders "/value", escaping bytes outside the regular set as #XX.
func Name(value string) string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' || ch == '.' || ch == '+' {
			b.WriteByte(ch)
			continue
		}
		fmt.Fprintf(&b, "#%02X", ch)
	}
	return b.String()
}

// Real formats f with at most four decimals and no trailing zeros.
func Real(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// Date renders t as a PDF date string, D:YYYYMMDDHHmmSS+HH'mm'.
func Date(t time.Time) string {
	_, off := t.Zone()
	sign := byte('+')
	if off < 0 {
		sign = '-'
		off = -off
	}
	if off == 0 {
		return "(D:" + t.Format("20060102150405") + "Z)"
	}
	return fmt.Sprintf("(D:%s%c%02d'%02d')", t.Format("20060102150405"), sign, off/3600, off%3600/60)
}
