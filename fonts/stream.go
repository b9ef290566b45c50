package fonts

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wudi/pdfobj/filters"
)

const (
	cffFlag    = 'Y'
	maxProgram = 64 << 20
)

// DecodeStream reads the font-stream container:
//
//	int24 length, name
//	int24 length, info
//	uint32 length, deflated metadata (int32 fields, then three
//	  int32-counted int16 tables: advance widths, glyph widths, unicode to gid)
//	byte 'Y' for CFF outlines
//	uint32 uncompressed size, uint32 compressed size, deflated program
func DecodeStream(r io.Reader) (*Program, error) {
	br := bufio.NewReader(r)
	p := &Program{}
	var err error
	if p.Name, err = readString24(br); err != nil {
		return nil, fmt.Errorf("font stream name: %w", err)
	}
	if p.Info, err = readString24(br); err != nil {
		return nil, fmt.Errorf("font stream info: %w", err)
	}

	meta, err := readBlock(br)
	if err != nil {
		return nil, fmt.Errorf("font stream metadata: %w", err)
	}
	meta, err = filters.Inflate(meta, 0)
	if err != nil {
		return nil, fmt.Errorf("font stream metadata: %w", err)
	}
	if err := p.readMetadata(bytes.NewReader(meta)); err != nil {
		return nil, fmt.Errorf("font stream metadata: %w", err)
	}

	flag, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("font stream flag: %w", err)
	}
	p.CFF = flag == cffFlag

	var sizes [2]uint32
	if err := binary.Read(br, binary.BigEndian, &sizes); err != nil {
		return nil, fmt.Errorf("font stream sizes: %w", err)
	}
	if sizes[0] > maxProgram || sizes[1] > maxProgram {
		return nil, fmt.Errorf("font stream program sizes %d/%d exceed %d bytes", sizes[0], sizes[1], maxProgram)
	}
	comp := make([]byte, sizes[1])
	if _, err := io.ReadFull(br, comp); err != nil {
		return nil, fmt.Errorf("font stream program: %w", err)
	}
	data, err := filters.Inflate(comp, int64(sizes[0]))
	if err != nil {
		return nil, fmt.Errorf("font stream program: %w", err)
	}
	if len(data) != int(sizes[0]) {
		return nil, fmt.Errorf("font stream program: %d bytes, header says %d", len(data), sizes[0])
	}
	p.Data = data
	return p, nil
}

func (p *Program) readMetadata(r io.Reader) error {
	var f [12]int32
	if err := binary.Read(r, binary.BigEndian, &f); err != nil {
		return err
	}
	p.UnitsPerEm = int(f[0])
	p.BBox = [4]int{int(f[1]), int(f[2]), int(f[3]), int(f[4])}
	p.Ascent, p.Descent = int(f[5]), int(f[6])
	p.FirstChar, p.LastChar = int(f[7]), int(f[8])
	p.CapHeight = int(f[9])
	p.UnderlinePosition, p.UnderlineThickness = int(f[10]), int(f[11])
	if p.UnitsPerEm <= 0 {
		return fmt.Errorf("unitsPerEm %d", p.UnitsPerEm)
	}
	for _, t := range []*[]int16{&p.AdvanceWidth, &p.GlyphWidth, &p.UnicodeToGID} {
		var n int32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return err
		}
		if n < 0 || n > 1<<20 {
			return fmt.Errorf("table length %d", n)
		}
		*t = make([]int16, n)
		if err := binary.Read(r, binary.BigEndian, *t); err != nil {
			return err
		}
	}
	return nil
}

// EncodeStream writes p in the format DecodeStream reads.
func EncodeStream(w io.Writer, p *Program) error {
	var meta bytes.Buffer
	f := [12]int32{
		int32(p.UnitsPerEm),
		int32(p.BBox[0]), int32(p.BBox[1]), int32(p.BBox[2]), int32(p.BBox[3]),
		int32(p.Ascent), int32(p.Descent),
		int32(p.FirstChar), int32(p.LastChar),
		int32(p.CapHeight),
		int32(p.UnderlinePosition), int32(p.UnderlineThickness),
	}
	_ = binary.Write(&meta, binary.BigEndian, f)
	for _, t := range [][]int16{p.AdvanceWidth, p.GlyphWidth, p.UnicodeToGID} {
		_ = binary.Write(&meta, binary.BigEndian, int32(len(t)))
		_ = binary.Write(&meta, binary.BigEndian, t)
	}

	bw := bufio.NewWriter(w)
	if err := writeString24(bw, p.Name); err != nil {
		return err
	}
	if err := writeString24(bw, p.Info); err != nil {
		return err
	}
	if err := writeBlock(bw, filters.Deflate(meta.Bytes())); err != nil {
		return err
	}
	flag := byte('N')
	if p.CFF {
		flag = cffFlag
	}
	if err := bw.WriteByte(flag); err != nil {
		return err
	}
	comp := filters.Deflate(p.Data)
	if err := binary.Write(bw, binary.BigEndian, [2]uint32{uint32(len(p.Data)), uint32(len(comp))}); err != nil {
		return err
	}
	if _, err := bw.Write(comp); err != nil {
		return err
	}
	return bw.Flush()
}

func readString24(r io.Reader) (string, error) {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return "", err
	}
	n := int(b[0])<<16 | int(b[1])<<8 | int(b[2])
	s := make([]byte, n)
	if _, err := io.ReadFull(r, s); err != nil {
		return "", err
	}
	return string(s), nil
}

func writeString24(w io.Writer, s string) error {
	if len(s) >= 1<<24 {
		return fmt.Errorf("string of %d bytes does not fit a 24-bit length", len(s))
	}
	n := len(s)
	if _, err := w.Write([]byte{byte(n >> 16), byte(n >> 8), byte(n)}); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readBlock(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	_, err := io.ReadFull(r, b)
	return b, err
}

func writeBlock(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
