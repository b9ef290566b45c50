// Package fonts reads embeddable font programs: TrueType and OpenType files,
// and the pre-processed font-stream container. It also knows the standard
// 14 fonts that need no embedding.
package fonts

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/wudi/pdfobj/ir/raw"
)

// Metrics are in font units unless noted.
type Metrics struct {
	UnitsPerEm         int
	BBox               [4]int
	Ascent             int
	Descent            int
	FirstChar          int
	LastChar           int
	CapHeight          int
	UnderlinePosition  int
	UnderlineThickness int
}

// Program is one embeddable font program with the tables needed to write
// a Type0/Identity-H font.
type Program struct {
	Name string
	Info string
	Metrics
	// AdvanceWidth is indexed by glyph id.
	AdvanceWidth []int16
	// GlyphWidth is indexed by code point minus FirstChar.
	GlyphWidth []int16
	// UnicodeToGID is indexed by BMP code point; 0 means unmapped. Glyph ids
	// are stored as int16 and read back as uint16.
	UnicodeToGID []int16
	// CFF is set for PostScript-outline programs.
	CFF bool
	// Data is the uncompressed font file.
	Data []byte
}

// GlyphID returns the glyph for r, or 0 when the font does not map it.
func (p *Program) GlyphID(r rune) uint16 {
	if r < 0 || int(r) >= len(p.UnicodeToGID) {
		return 0
	}
	return uint16(p.UnicodeToGID[r])
}

// Width returns the advance of glyph gid in 1/1000 em.
func (p *Program) Width(gid uint16) int {
	if int(gid) >= len(p.AdvanceWidth) || p.UnitsPerEm == 0 {
		return 0
	}
	return int(uint16(p.AdvanceWidth[gid])) * 1000 / p.UnitsPerEm
}

// Scale converts font units to 1/1000 em.
func (p *Program) Scale(v int) int {
	if p.UnitsPerEm == 0 {
		return v
	}
	return v * 1000 / p.UnitsPerEm
}

// Encode returns text as a hex string of two-byte glyph ids, the operand
// of Tj for an Identity-H font. Runes the font cannot show are an error.
func (p *Program) Encode(text string) (string, error) {
	var b strings.Builder
	b.WriteByte('<')
	for _, r := range text {
		gid := p.GlyphID(r)
		if gid == 0 {
			return "", &raw.UnsupportedError{Feature: "code point in font " + p.Name, Value: string(r)}
		}
		fmt.Fprintf(&b, "%04X", gid)
	}
	b.WriteByte('>')
	return b.String(), nil
}

// StringWidth is the advance of text at size points.
func (p *Program) StringWidth(text string, size float64) float64 {
	total := 0
	for _, r := range text {
		total += p.Width(p.GlyphID(r))
	}
	return float64(total) * size / 1000
}

// WidthsArray returns the /W array of the descendant CIDFont: one run
// starting at glyph 0.
func (p *Program) WidthsArray() []string {
	toks := []string{"[", "0", "["}
	for gid := range p.AdvanceWidth {
		toks = append(toks, strconv.Itoa(p.Width(uint16(gid))))
	}
	return append(toks, "]", "]")
}

// ToUnicodeCMap maps every glyph id back to the first code point that
// selects it.
func (p *Program) ToUnicodeCMap() []byte {
	back := map[int]rune{}
	for r, g := range p.UnicodeToGID {
		gid := int(uint16(g))
		if gid == 0 {
			continue
		}
		if _, ok := back[gid]; !ok {
			back[gid] = rune(r)
		}
	}
	keys := make([]int, 0, len(back))
	for gid := range back {
		keys = append(keys, gid)
	}
	sort.Ints(keys)

	var buf bytes.Buffer
	buf.WriteString("/CIDInit /ProcSet findresource begin\n")
	buf.WriteString("12 dict begin\n")
	buf.WriteString("begincmap\n")
	buf.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	buf.WriteString("/CMapName /Adobe-Identity-UCS def\n")
	buf.WriteString("/CMapType 2 def\n")
	buf.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	for i := 0; i < len(keys); {
		chunk := len(keys) - i
		if chunk > 100 {
			chunk = 100
		}
		fmt.Fprintf(&buf, "%d beginbfchar\n", chunk)
		for j := 0; j < chunk; j++ {
			gid := keys[i+j]
			fmt.Fprintf(&buf, "<%04X> <%s>\n", gid, utf16Hex(back[gid]))
		}
		buf.WriteString("endbfchar\n")
		i += chunk
	}
	buf.WriteString("endcmap\n")
	buf.WriteString("CMapName currentdict /CMap defineresource pop\n")
	buf.WriteString("end\nend\n")
	return buf.Bytes()
}

func utf16Hex(r rune) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune{r}) {
		fmt.Fprintf(&b, "%04X", u)
	}
	return b.String()
}
