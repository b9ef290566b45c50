package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfobj/fonts"
)

func main() {
	out := flag.String("o", "", "Output file (default: input name with .stream)")
	name := flag.String("name", "", "Font name when the file has no PostScript name")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/fontconv [flags] <font.ttf|font.otf>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *out, *name); err != nil {
		fmt.Fprintf(os.Stderr, "fontconv: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out, name string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}
	p, err := fonts.LoadOpenType(name, data)
	if err != nil {
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".stream"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := fonts.EncodeStream(f, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("%s: %s, %d glyph widths, cff=%v\n", out, p.Name, len(p.AdvanceWidth), p.CFF)
	return nil
}
