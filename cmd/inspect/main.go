package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
	"github.com/wudi/pdfobj/parser"
	"github.com/wudi/pdfobj/recovery"
	"github.com/wudi/pdfobj/security"
)

type options struct {
	pdfPath string
	objects bool
	pages   bool
	object  int
	asJSON  bool
	lenient bool
	maxFix  int
	verbose bool
}

type objectSummary struct {
	Number int    `json:"number"`
	Offset int64  `json:"offset"`
	Type   string `json:"type,omitempty"`
	Stream int    `json:"stream,omitempty"`
}

type pageSummary struct {
	Number    int    `json:"object"`
	MediaBox  string `json:"mediaBox"`
	Contents  []int  `json:"contents"`
	Resources string `json:"resources"`
}

type report struct {
	Version string          `json:"version"`
	Objects int             `json:"objectCount"`
	Root    int             `json:"root"`
	Info    int             `json:"info,omitempty"`
	Trailer string          `json:"trailer"`
	List    []objectSummary `json:"objects,omitempty"`
	Pages   []pageSummary   `json:"pages,omitempty"`
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/inspect [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	flag.BoolVar(&opts.objects, "objects", false, "List every object with its offset and type")
	flag.BoolVar(&opts.pages, "pages", false, "List pages with their content streams")
	flag.IntVar(&opts.object, "object", 0, "Dump one object; streams are decoded when possible")
	flag.BoolVar(&opts.asJSON, "json", false, "Print the report as JSON")
	flag.BoolVar(&opts.lenient, "lenient", false, "Recover from malformed tokens instead of failing")
	flag.IntVar(&opts.maxFix, "max-fixes", 100, "With -lenient, give up after this many repairs (0: no limit)")
	flag.BoolVar(&opts.verbose, "v", false, "Log parser progress to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.pdfPath = flag.Arg(0)
	return opts, nil
}

func run(opts options, out io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	cfg := parser.Config{
		Limits: security.DefaultLimits(),
		Logger: observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))),
	}
	if opts.lenient {
		cfg.Recovery = recovery.NewBoundedStrategy(opts.maxFix)
	}
	p, err := parser.NewDocumentParser(cfg)
	if err != nil {
		return err
	}
	f, err := os.Open(opts.pdfPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := context.Background()
	doc, err := p.Parse(ctx, f)
	if err != nil {
		return err
	}
	if opts.object != 0 {
		return dumpObject(ctx, out, doc, opts.object)
	}

	r := report{
		Version: doc.Version,
		Objects: len(doc.Objects),
		Root:    doc.Root(),
		Info:    doc.Info(),
		Trailer: raw.Join(doc.Trailer),
	}
	if opts.objects {
		for _, o := range doc.Objects {
			r.List = append(r.List, objectSummary{Number: o.Number, Offset: o.Offset, Type: o.Type(), Stream: len(o.Stream)})
		}
	}
	if opts.pages {
		pages, err := doc.Pages()
		if err != nil {
			return err
		}
		for _, pg := range pages {
			r.Pages = append(r.Pages, pageSummary{
				Number:    pg.Number,
				MediaBox:  pg.Value("/MediaBox"),
				Contents:  pg.Refs("/Contents"),
				Resources: pg.Value("/Resources"),
			})
		}
	}
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printReport(out, r)
	return nil
}

func printReport(out io.Writer, r report) {
	fmt.Fprintf(out, "PDF %s, %d objects, root %d", r.Version, r.Objects, r.Root)
	if r.Info != 0 {
		fmt.Fprintf(out, ", info %d", r.Info)
	}
	fmt.Fprintf(out, "\ntrailer %s\n", r.Trailer)
	for _, o := range r.List {
		fmt.Fprintf(out, "%6d  @%-10d %-16s", o.Number, o.Offset, o.Type)
		if o.Stream > 0 {
			fmt.Fprintf(out, " stream %d bytes", o.Stream)
		}
		fmt.Fprintln(out)
	}
	for i, pg := range r.Pages {
		fmt.Fprintf(out, "page %d: object %d, media box %s, contents %v\n", i+1, pg.Number, pg.MediaBox, pg.Contents)
	}
}

func dumpObject(ctx context.Context, out io.Writer, doc *raw.Document, num int) error {
	obj := doc.Get(num)
	if obj == nil {
		return raw.AtObject(num, nil, "object not found")
	}
	fmt.Fprintf(out, "%d 0 obj\n%s\n", obj.Number, raw.Join(obj.Dict))
	if !obj.HasStream() {
		return nil
	}
	pipeline := filters.DefaultPipeline(filters.Limits{MaxDecompressedSize: security.DefaultLimits().MaxDecompressedSize})
	if !pipeline.Decodable(obj) {
		fmt.Fprintf(out, "stream: %d bytes, filters not decoded\n", len(obj.Stream))
		return nil
	}
	data, err := filters.DecodeObject(ctx, obj, pipeline)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "stream: %d bytes, %d decoded\n", len(obj.Stream), len(data))
	_, err = out.Write(data)
	return err
}
