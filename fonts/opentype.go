package fonts

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-text/typesetting/font/opentype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var cffTag = opentype.NewTag('C', 'F', 'F', ' ')

// LoadOpenType reads a TrueType or OpenType file into a Program. The whole
// file is kept for embedding (no subsetting). name is used when the font
// carries no PostScript name.
func LoadOpenType(name string, data []byte) (*Program, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	loader, err := opentype.NewLoader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse table directory: %w", err)
	}
	cff := loader.HasTable(cffTag)
	if cff {
		if table, err := loader.RawTable(cffTag); err != nil || len(table) == 0 {
			return nil, fmt.Errorf("extract CFF table: %v", err)
		}
	}

	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse sfnt: %w", err)
	}
	upem := font.UnitsPerEm()
	if upem == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	// at this size one 26.6 unit is 1/64 of a font unit
	ppem := fixed.Int26_6(upem) << 6

	baseName := strings.TrimSpace(name)
	if ps, _ := font.Name(buf, sfnt.NameIDPostScript); ps != "" {
		baseName = ps
	}
	if baseName == "" {
		baseName = "CustomFont"
	}
	info, _ := font.Name(buf, sfnt.NameIDFull)

	p := &Program{Name: baseName, Info: info, CFF: cff, Data: data}
	p.UnitsPerEm = int(upem)

	metrics, err := font.Metrics(buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	p.Ascent = units(metrics.Ascent)
	p.Descent = -units(metrics.Descent)
	p.CapHeight = units(metrics.CapHeight)
	if p.CapHeight == 0 {
		p.CapHeight = p.Ascent
	}
	bounds, err := font.Bounds(buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font bounds: %w", err)
	}
	// sfnt bounds have y growing downwards
	p.BBox = [4]int{units(bounds.Min.X), -units(bounds.Max.Y), units(bounds.Max.X), -units(bounds.Min.Y)}
	if post := font.PostTable(); post != nil {
		p.UnderlinePosition = int(post.UnderlinePosition)
		p.UnderlineThickness = int(post.UnderlineThickness)
	}

	p.AdvanceWidth = make([]int16, font.NumGlyphs())
	for i := range p.AdvanceWidth {
		adv, err := font.GlyphAdvance(buf, sfnt.GlyphIndex(i), ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		p.AdvanceWidth[i] = int16(units(adv))
	}

	p.FirstChar, p.LastChar = -1, -1
	cmap := make([]int16, 0x10000)
	for r := rune(0); r < 0x10000; r++ {
		gid, err := font.GlyphIndex(buf, r)
		if err != nil || gid == 0 {
			continue
		}
		cmap[r] = int16(gid)
		if p.FirstChar < 0 {
			p.FirstChar = int(r)
		}
		p.LastChar = int(r)
	}
	if p.FirstChar < 0 {
		return nil, fmt.Errorf("font %s maps no BMP code points", baseName)
	}
	p.UnicodeToGID = cmap[:p.LastChar+1]
	p.GlyphWidth = make([]int16, p.LastChar-p.FirstChar+1)
	for r := p.FirstChar; r <= p.LastChar; r++ {
		p.GlyphWidth[r-p.FirstChar] = int16(p.Width(p.GlyphID(rune(r))))
	}
	return p, nil
}

func units(v fixed.Int26_6) int {
	return int((v + 32) >> 6)
}
