// Package compliance describes the PDF/A-1b and PDF/UA-1 requirements the
// builder can meet: the XMP packet each one needs and a check over the
// facts of a document under construction.
package compliance

import (
	"fmt"
	"strings"
)

// Level is the conformance target of a new document.
type Level int

const (
	None Level = iota
	PDFA1B
	PDFUA1
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case PDFA1B:
		return "PDF/A-1b"
	case PDFUA1:
		return "PDF/UA-1"
	default:
		return "Unknown"
	}
}

// NeedsMetadata reports whether the catalog must carry an XMP stream.
func (l Level) NeedsMetadata() bool { return l != None }

// NeedsOutputIntent reports whether an ICC output intent is required.
func (l Level) NeedsOutputIntent() bool { return l == PDFA1B }

// Tagged reports whether the document must carry a structure tree.
func (l Level) Tagged() bool { return l == PDFUA1 }

// Violation represents a compliance violation.
type Violation struct {
	Code        string
	Description string
	Location    string
}

// Report details compliance status.
type Report struct {
	Compliant  bool
	Standard   string
	Violations []Violation
}

// Error wraps a failing report.
type Error struct {
	Report *Report
}

func (e *Error) Error() string {
	codes := make([]string, 0, len(e.Report.Violations))
	for _, v := range e.Report.Violations {
		codes = append(codes, v.Code)
	}
	return fmt.Sprintf("compliance: %s violated (%s)", e.Report.Standard, strings.Join(codes, ", "))
}

// Err returns nil for a compliant report.
func (r *Report) Err() error {
	if r.Compliant {
		return nil
	}
	return &Error{Report: r}
}

// Facts are what the builder knows about a document just before it is
// serialized.
type Facts struct {
	Title      string
	Lang       string
	Tagged     bool
	OutputICC  bool
	JavaScript bool
	// Transparency is set when a graphics state lowers alpha or an image
	// carries a soft mask.
	Transparency    bool
	OptionalContent bool
	// UnembeddedFonts lists base font names of standard 14 fonts in use.
	UnembeddedFonts []string
	// FiguresWithoutAlt lists pages (1-based) holding Figure elements
	// without /Alt.
	FiguresWithoutAlt []int
}

// Check reports every requirement of level that facts violate.
func Check(level Level, f Facts) *Report {
	r := &Report{Standard: level.String(), Violations: []Violation{}}
	add := func(code, desc, loc string) {
		r.Violations = append(r.Violations, Violation{Code: code, Description: desc, Location: loc})
	}
	switch level {
	case PDFA1B:
		if !f.OutputICC {
			add("PDFA001", "Output intent with an ICC profile is required", "Catalog")
		}
		for _, name := range f.UnembeddedFonts {
			add("PDFA002", "Font must be embedded: "+name, "Font "+name)
		}
		if f.Transparency {
			add("PDFA003", "Transparency is not allowed in PDF/A-1", "ExtGState")
		}
		if f.OptionalContent {
			add("PDFA004", "Optional content is not allowed in PDF/A-1", "Catalog")
		}
		if f.JavaScript {
			add("PDFA005", "JavaScript actions are not allowed", "Names")
		}
	case PDFUA1:
		if !f.Tagged {
			add("UA002", "Document must be tagged (StructTree missing)", "Catalog")
		}
		if f.Title == "" {
			add("UA003", "Document title is required", "Info Dictionary")
		}
		if f.Lang == "" {
			add("UA004", "Document language is required", "Catalog")
		}
		for _, name := range f.UnembeddedFonts {
			add("UA005", "Font must be embedded: "+name, "Font "+name)
		}
		for _, page := range f.FiguresWithoutAlt {
			add("UA006", "Figure missing Alternative Text", fmt.Sprintf("Page %d", page))
		}
	}
	r.Compliant = len(r.Violations) == 0
	return r
}
