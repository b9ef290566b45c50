package builder

import (
	"compress/zlib"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/wudi/pdfobj/compliance"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/writer"
)

// Compression selects how streams written by the builder are encoded.
type Compression int

const (
	CompressDefault Compression = iota
	CompressNone
	CompressBest
)

func (c Compression) level() int {
	if c == CompressBest {
		return zlib.BestCompression
	}
	return zlib.DefaultCompression
}

// Config controls a new document. The zero value is a valid untagged
// PDF 1.7 document with compressed streams.
type Config struct {
	Version     writer.PDFVersion `validate:"omitempty,oneof=1.4 1.5 1.6 1.7"`
	Compression Compression       `validate:"gte=0,lte=2"`
	Compliance  compliance.Level  `validate:"gte=0,lte=2"`
	// Tagged adds a structure tree. PDF/UA implies it.
	Tagged bool
	// Lang is a BCP 47 tag, canonicalized on New.
	Lang     string `validate:"omitempty,max=64"`
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
	// CreationDate defaults to now unless Deterministic is set.
	CreationDate time.Time
	// Deterministic makes the trailer /ID depend only on document content.
	Deterministic bool
	// ICCProfile is the RGB output profile required by PDF/A.
	ICCProfile []byte               `validate:"omitempty,min=128"`
	Logger     observability.Logger `validate:"-"`
}

var validate = validator.New()

// Validate reports the first invalid field or missing compliance input.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("builder config: %w", err)
	}
	if c.Lang != "" {
		if _, err := language.Parse(c.Lang); err != nil {
			return fmt.Errorf("builder config: lang %q: %w", c.Lang, err)
		}
	}
	switch c.Compliance {
	case compliance.PDFA1B:
		if len(c.ICCProfile) == 0 {
			return errors.New("builder config: PDF/A-1b needs an ICC output profile")
		}
		if c.Version != "" && c.Version != writer.PDF14 {
			return fmt.Errorf("builder config: PDF/A-1b needs version 1.4, got %s", c.Version)
		}
	case compliance.PDFUA1:
		if c.Title == "" || c.Lang == "" {
			return errors.New("builder config: PDF/UA-1 needs a title and a language")
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Version == "" {
		c.Version = writer.PDF17
		if c.Compliance == compliance.PDFA1B {
			c.Version = writer.PDF14
		}
	}
	if c.Producer == "" {
		c.Producer = "pdfobj"
	}
	if c.CreationDate.IsZero() && !c.Deterministic {
		c.CreationDate = time.Now()
	}
	if c.Lang != "" {
		if tag, err := language.Parse(c.Lang); err == nil {
			c.Lang = tag.String()
		}
	}
	if c.Compliance.Tagged() {
		c.Tagged = true
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	return c
}
