package filters

import (
	"fmt"
	"math"

	"github.com/wudi/pdfobj/ir/raw"
)

// PNG row filter types.
const (
	rowNone = 0
	rowUp   = 2
)

// DecodePredictor reverses the predictor named in params. Predictor 1 (or 0)
// passes data through. Predictors 10..15 are PNG predictors: every row
// carries its own filter byte and the None and Up row filters are
// supported. Anything else fails with raw.ErrUnsupportedPredictor.
func DecodePredictor(data []byte, params Params) ([]byte, error) {
	switch {
	case params.Predictor <= 1:
		return data, nil
	case params.Predictor >= 10 && params.Predictor <= 15:
	default:
		return nil, fmt.Errorf("%w %d", raw.ErrUnsupportedPredictor, params.Predictor)
	}
	if len(data) == 0 {
		return data, nil
	}
	rowLen, err := rowBytes(params)
	if err != nil {
		return nil, err
	}
	if rowLen >= len(data) {
		return nil, fmt.Errorf("predictor: row of %d bytes does not fit in %d bytes of data", rowLen, len(data))
	}
	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor: %d bytes is not a multiple of row size %d", len(data), stride)
	}
	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	for off := 0; off < len(data); off += stride {
		filter := data[off]
		row := data[off+1 : off+stride]
		cur := make([]byte, rowLen)
		switch filter {
		case rowNone:
			copy(cur, row)
		case rowUp:
			for i := range row {
				cur[i] = row[i] + prev[i]
			}
		default:
			return nil, fmt.Errorf("%w: PNG row filter %d", raw.ErrUnsupportedPredictor, filter)
		}
		out = append(out, cur...)
		prev = cur
	}
	return out, nil
}

// EncodeUp applies the PNG Up filter to rows of columns bytes, prefixing
// each row with filter byte 2. It is the inverse of DecodePredictor with
// Predictor 12.
func EncodeUp(data []byte, columns int) ([]byte, error) {
	if columns <= 0 || len(data)%columns != 0 {
		return nil, fmt.Errorf("predictor: %d bytes is not a multiple of %d columns", len(data), columns)
	}
	out := make([]byte, 0, len(data)+len(data)/columns)
	prev := make([]byte, columns)
	for off := 0; off < len(data); off += columns {
		row := data[off : off+columns]
		out = append(out, rowUp)
		for i := range row {
			out = append(out, row[i]-prev[i])
		}
		prev = row
	}
	return out, nil
}

// maxColors bounds /Colors; no colour space in use has more components.
const maxColors = 32

func rowBytes(p Params) (int, error) {
	colors := p.Colors
	if colors <= 0 {
		colors = 1
	}
	bpc := p.BitsPerComponent
	if bpc <= 0 {
		bpc = 8
	}
	cols := p.Columns
	if cols <= 0 {
		cols = 1
	}
	if colors > maxColors {
		return 0, fmt.Errorf("predictor: /Colors %d out of range", colors)
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return 0, fmt.Errorf("predictor: /BitsPerComponent %d out of range", bpc)
	}
	bits := colors * bpc
	if cols > (math.MaxInt-7)/bits {
		return 0, fmt.Errorf("predictor: /Columns %d out of range", cols)
	}
	return (bits*cols + 7) / 8, nil
}
