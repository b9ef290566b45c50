package builder

import "github.com/wudi/pdfobj/ir/raw"

// Drawable is anything that can put itself on a page. DrawOn returns the
// bottom-right corner of what it drew.
type Drawable interface {
	DrawOn(p *Page) (x, y float64, err error)
}

// TextLine is one line of text with its baseline starting at (X, Y).
type TextLine struct {
	Font *Font
	Size float64
	X, Y float64
	Text string
}

func (t TextLine) DrawOn(p *Page) (float64, float64, error) {
	if err := p.DrawText(t.Font, t.Size, t.X, t.Y, t.Text); err != nil {
		return 0, 0, err
	}
	return t.X + t.Font.StringWidth(t.Text, t.Size), t.Y + t.Font.Descent(t.Size), nil
}

// ImageBox places an image with its lower-left corner at (X, Y).
type ImageBox struct {
	Image         *Image
	X, Y          float64
	Width, Height float64
}

func (b ImageBox) DrawOn(p *Page) (float64, float64, error) {
	if b.Image == nil {
		return 0, 0, &raw.UnsupportedError{Feature: "image box", Value: "no image"}
	}
	p.DrawImage(b.Image, b.X, b.Y, b.Width, b.Height)
	return b.X + b.Width, b.Y, nil
}
