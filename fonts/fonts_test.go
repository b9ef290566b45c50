package fonts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/pdfobj/ir/raw"
)

func loadGo(t *testing.T) *Program {
	t.Helper()
	p, err := LoadOpenType("GoRegular", goregular.TTF)
	require.NoError(t, err)
	return p
}

func TestLoadOpenType(t *testing.T) {
	p := loadGo(t)
	assert.Equal(t, "GoRegular", p.Name)
	assert.False(t, p.CFF)
	assert.Equal(t, 2048, p.UnitsPerEm)
	assert.Greater(t, p.Ascent, 0)
	assert.Less(t, p.Descent, 0)
	assert.Less(t, p.BBox[1], p.BBox[3])
	assert.LessOrEqual(t, p.FirstChar, 32)
	assert.NotZero(t, p.GlyphID('A'))
	assert.Equal(t, len(p.GlyphWidth), p.LastChar-p.FirstChar+1)
	assert.Equal(t, p.Width(p.GlyphID('A')), int(p.GlyphWidth['A'-p.FirstChar]))
	assert.Equal(t, goregular.TTF, p.Data)
}

func TestLoadOpenTypeRejectsGarbage(t *testing.T) {
	_, err := LoadOpenType("x", nil)
	assert.Error(t, err)
	_, err = LoadOpenType("x", []byte("definitely not a font file"))
	assert.Error(t, err)
}

func TestStreamRoundTrip(t *testing.T) {
	p := loadGo(t)
	p.CFF = true
	var buf bytes.Buffer
	require.NoError(t, EncodeStream(&buf, p))

	got, err := DecodeStream(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Info, got.Info)
	assert.Equal(t, p.Metrics, got.Metrics)
	assert.Equal(t, p.AdvanceWidth, got.AdvanceWidth)
	assert.Equal(t, p.GlyphWidth, got.GlyphWidth)
	assert.Equal(t, p.UnicodeToGID, got.UnicodeToGID)
	assert.True(t, got.CFF)
	assert.Equal(t, p.Data, got.Data)
}

func TestStreamTruncated(t *testing.T) {
	p := &Program{Name: "Tiny", Metrics: Metrics{UnitsPerEm: 1000}, UnicodeToGID: []int16{0, 1}, Data: []byte("glyf")}
	var buf bytes.Buffer
	require.NoError(t, EncodeStream(&buf, p))
	full := buf.Bytes()

	_, err := DecodeStream(bytes.NewReader(full[:len(full)-2]))
	assert.Error(t, err)
	_, err = DecodeStream(bytes.NewReader(full[:2]))
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	p := loadGo(t)
	hex, err := p.Encode("AB")
	require.NoError(t, err)
	assert.Len(t, hex, 10)
	assert.True(t, strings.HasPrefix(hex, "<") && strings.HasSuffix(hex, ">"))

	_, err = p.Encode("A\U0001F600")
	var ue *raw.UnsupportedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "\U0001F600", ue.Value)
}

func TestStringWidth(t *testing.T) {
	p := loadGo(t)
	w := p.StringWidth("AA", 10)
	assert.InDelta(t, float64(2*p.Width(p.GlyphID('A')))/100, w, 1e-9)
}

func TestWidthsArray(t *testing.T) {
	p := &Program{Metrics: Metrics{UnitsPerEm: 2000}, AdvanceWidth: []int16{0, 1000, 500}}
	assert.Equal(t, []string{"[", "0", "[", "0", "500", "250", "]", "]"}, p.WidthsArray())
}

func TestToUnicodeCMap(t *testing.T) {
	p := &Program{UnicodeToGID: make([]int16, 0x100)}
	p.UnicodeToGID['A'] = 3
	p.UnicodeToGID['a'] = 3
	p.UnicodeToGID['B'] = 7
	cmap := string(p.ToUnicodeCMap())
	assert.Contains(t, cmap, "2 beginbfchar\n<0003> <0041>\n<0007> <0042>\nendbfchar")
	assert.Contains(t, cmap, "/CMapName /Adobe-Identity-UCS def")
}

func TestToUnicodeChunks(t *testing.T) {
	p := &Program{UnicodeToGID: make([]int16, 300)}
	for r := 1; r < 251; r++ {
		p.UnicodeToGID[r] = int16(r)
	}
	cmap := string(p.ToUnicodeCMap())
	assert.Equal(t, 2, strings.Count(cmap, "100 beginbfchar"))
	assert.Equal(t, 1, strings.Count(cmap, "50 beginbfchar"))
}

func TestCoreFont(t *testing.T) {
	f, err := Core("Helvetica")
	require.NoError(t, err)
	s, err := f.Encode("café (1)")
	require.NoError(t, err)
	assert.Equal(t, "(caf\xe9 \\(1\\))", s)

	_, err = f.Encode("中")
	var ue *raw.UnsupportedError
	assert.True(t, errors.As(err, &ue))

	_, err = Core("Comic-Sans")
	assert.True(t, errors.As(err, &ue))

	c, _ := Core("Courier")
	assert.InDelta(t, 12.0, c.StringWidth("abcd", 5), 1e-9)
	z, _ := Core("ZapfDingbats")
	assert.True(t, z.Symbolic())
	assert.False(t, f.Symbolic())
}
