package fonts

import (
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/pdfobj/ir/raw"
)

// CoreFont is one of the standard 14 fonts every reader provides. Text is
// encoded with WinAnsiEncoding.
type CoreFont struct {
	Name string
}

var coreFonts = map[string]bool{
	"Courier": true, "Courier-Bold": true, "Courier-Oblique": true, "Courier-BoldOblique": true,
	"Helvetica": true, "Helvetica-Bold": true, "Helvetica-Oblique": true, "Helvetica-BoldOblique": true,
	"Times-Roman": true, "Times-Bold": true, "Times-Italic": true, "Times-BoldItalic": true,
	"Symbol": true, "ZapfDingbats": true,
}

// Core returns the named standard font.
func Core(name string) (*CoreFont, error) {
	if !coreFonts[name] {
		return nil, &raw.UnsupportedError{Feature: "core font", Value: name}
	}
	return &CoreFont{Name: name}, nil
}

// Symbolic fonts use their built-in encoding rather than WinAnsi.
func (c *CoreFont) Symbolic() bool {
	return c.Name == "Symbol" || c.Name == "ZapfDingbats"
}

// Encode returns text as a literal string operand in WinAnsiEncoding.
// Runes outside Windows-1252 are an error.
func (c *CoreFont) Encode(text string) (string, error) {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	if err != nil {
		for _, r := range text {
			if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
				return "", &raw.UnsupportedError{Feature: "code point in font " + c.Name, Value: string(r)}
			}
		}
		return "", &raw.UnsupportedError{Feature: "text for font " + c.Name, Value: text}
	}
	return literal(b), nil
}

// StringWidth is exact for the Courier family (600/1000 em per glyph) and
// an estimate of half an em per glyph for the proportional fonts, whose
// metrics are not carried.
func (c *CoreFont) StringWidth(text string, size float64) float64 {
	per := 500.0
	if strings.HasPrefix(c.Name, "Courier") {
		per = 600
	}
	return float64(len([]rune(text))) * per * size / 1000
}

func literal(b []byte) string {
	var s strings.Builder
	s.WriteByte('(')
	for _, ch := range b {
		switch ch {
		case '\\', '(', ')':
			s.WriteByte('\\')
			s.WriteByte(ch)
		case '\n':
			s.WriteString(`\n`)
		case '\r':
			s.WriteString(`\r`)
		default:
			s.WriteByte(ch)
		}
	}
	s.WriteByte(')')
	return s.String()
}
