package compliance

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"
)

// Metadata feeds the XMP packet.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
	Lang     string
	Created  time.Time
	Modified time.Time
}

// XMP returns the metadata packet for level. The packet is padded and
// closed with a writable trailer.
func XMP(level Level, m Metadata) []byte {
	var b bytes.Buffer
	b.WriteString("<?xpacket begin=\"\xef\xbb\xbf\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	b.WriteString("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	b.WriteString("<rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n")

	desc(&b, `xmlns:dc="http://purl.org/dc/elements/1.1/"`, func() {
		b.WriteString("<dc:format>application/pdf</dc:format>\n")
		if m.Title != "" {
			b.WriteString("<dc:title><rdf:Alt><rdf:li xml:lang=\"x-default\">")
			esc(&b, m.Title)
			b.WriteString("</rdf:li></rdf:Alt></dc:title>\n")
		}
		if m.Author != "" {
			b.WriteString("<dc:creator><rdf:Seq><rdf:li>")
			esc(&b, m.Author)
			b.WriteString("</rdf:li></rdf:Seq></dc:creator>\n")
		}
		if m.Subject != "" {
			b.WriteString("<dc:description><rdf:Alt><rdf:li xml:lang=\"x-default\">")
			esc(&b, m.Subject)
			b.WriteString("</rdf:li></rdf:Alt></dc:description>\n")
		}
		if m.Lang != "" {
			b.WriteString("<dc:language><rdf:Bag><rdf:li>")
			esc(&b, m.Lang)
			b.WriteString("</rdf:li></rdf:Bag></dc:language>\n")
		}
	})
	desc(&b, `xmlns:xmp="http://ns.adobe.com/xap/1.0/"`, func() {
		if m.Creator != "" {
			simple(&b, "xmp:CreatorTool", m.Creator)
		}
		if !m.Created.IsZero() {
			simple(&b, "xmp:CreateDate", m.Created.Format(time.RFC3339))
		}
		if !m.Modified.IsZero() {
			simple(&b, "xmp:ModifyDate", m.Modified.Format(time.RFC3339))
		}
	})
	desc(&b, `xmlns:pdf="http://ns.adobe.com/pdf/1.3/"`, func() {
		if m.Producer != "" {
			simple(&b, "pdf:Producer", m.Producer)
		}
		if m.Keywords != "" {
			simple(&b, "pdf:Keywords", m.Keywords)
		}
	})
	switch level {
	case PDFA1B:
		desc(&b, `xmlns:pdfaid="http://www.aiim.org/pdfa/ns/id/"`, func() {
			simple(&b, "pdfaid:part", "1")
			simple(&b, "pdfaid:conformance", "B")
		})
	case PDFUA1:
		desc(&b, `xmlns:pdfuaid="http://www.aiim.org/pdfua/ns/id/"`, func() {
			simple(&b, "pdfuaid:part", "1")
		})
	}

	b.WriteString("</rdf:RDF>\n</x:xmpmeta>\n")
	pad := strings.Repeat(" ", 99) + "\n"
	for i := 0; i < 20; i++ {
		b.WriteString(pad)
	}
	b.WriteString("<?xpacket end=\"w\"?>")
	return b.Bytes()
}

func desc(b *bytes.Buffer, ns string, body func()) {
	b.WriteString("<rdf:Description rdf:about=\"\" " + ns + ">\n")
	body()
	b.WriteString("</rdf:Description>\n")
}

func simple(b *bytes.Buffer, tag, value string) {
	b.WriteString("<" + tag + ">")
	esc(b, value)
	b.WriteString("</" + tag + ">\n")
}

func esc(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
}
