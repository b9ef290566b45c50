package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wudi/pdfobj/builder"
	"github.com/wudi/pdfobj/compliance"
	"github.com/wudi/pdfobj/observability"
)

type options struct {
	in, out  string
	fontPath string
	iccPath  string
	title    string
	lang     string
	level    string
	compress bool
}

const (
	pageWidth  = 595
	pageHeight = 842
	margin     = 56
)

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdpdf: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mdpdf: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/mdpdf [flags] <input.md>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.out, "o", "out.pdf", "Output PDF")
	flag.StringVar(&opts.fontPath, "font", "", "TrueType/OpenType font to embed (default: Helvetica, not embedded)")
	flag.StringVar(&opts.iccPath, "icc", "", "ICC output profile, required for -level pdfa")
	flag.StringVar(&opts.title, "title", "", "Document title")
	flag.StringVar(&opts.lang, "lang", "", "Document language, e.g. en-US")
	flag.StringVar(&opts.level, "level", "", "Compliance level: pdfa or pdfua")
	flag.BoolVar(&opts.compress, "compress", true, "Deflate content streams")
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing markdown path")
	}
	opts.in = flag.Arg(0)
	return opts, nil
}

func run(opts options) error {
	src, err := os.ReadFile(opts.in)
	if err != nil {
		return err
	}
	cfg := builder.Config{
		Title:   opts.title,
		Lang:    opts.lang,
		Creator: "mdpdf",
		Logger:  observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	}
	if !opts.compress {
		cfg.Compression = builder.CompressNone
	}
	switch opts.level {
	case "":
	case "pdfa":
		cfg.Compliance = compliance.PDFA1B
	case "pdfua":
		cfg.Compliance = compliance.PDFUA1
	default:
		return fmt.Errorf("unknown level %q", opts.level)
	}
	if opts.iccPath != "" {
		if cfg.ICCProfile, err = os.ReadFile(opts.iccPath); err != nil {
			return err
		}
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := builder.New(f, cfg)
	if err != nil {
		return err
	}
	var font *builder.Font
	if opts.fontPath != "" {
		data, err := os.ReadFile(opts.fontPath)
		if err != nil {
			return err
		}
		font, err = doc.AddFontFile("", data)
		if err != nil {
			return err
		}
	} else if font, err = doc.AddCoreFont("Helvetica"); err != nil {
		return err
	}

	if err := typeset(doc, font, src); err != nil {
		return err
	}
	if _, err := doc.OutlineFromMarkdown(src); err != nil {
		return err
	}
	if err := doc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// typeset draws the source one line per baseline. Headings get a larger
// size and, in tagged documents, an H tag; other lines are paragraphs.
func typeset(doc *builder.Document, font *builder.Font, src []byte) error {
	var page *builder.Page
	y := 0.0
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t")
		size, role := 11.0, "P"
		if h := strings.TrimLeft(line, "#"); len(h) < len(line) && strings.HasPrefix(h, " ") {
			level := len(line) - len(h)
			size = 20 - 2*float64(min(level, 4))
			role = fmt.Sprintf("H%d", min(level, 6))
			line = strings.TrimSpace(h)
		}
		if page == nil || y-size*1.4 < margin {
			var err error
			if page, err = doc.AddPage(pageWidth, pageHeight); err != nil {
				return err
			}
			y = pageHeight - margin
		}
		y -= size * 1.4
		if line == "" {
			continue
		}
		tagged := doc.Tagged()
		if tagged {
			if _, err := page.BeginTag(role, builder.Tag{}); err != nil {
				return err
			}
		}
		if _, _, err := page.Draw(builder.TextLine{Font: font, Size: size, X: margin, Y: y, Text: line}); err != nil {
			return fmt.Errorf("line %q: %w", line, err)
		}
		if tagged {
			if err := page.EndTag(); err != nil {
				return err
			}
		}
	}
	if page == nil {
		_, err := doc.AddPage(pageWidth, pageHeight)
		return err
	}
	return sc.Err()
}
