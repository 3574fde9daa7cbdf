// Package extractortest builds minimal office documents for tests.
package extractortest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

const (
	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	drawNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
	presNS = "http://schemas.openxmlformats.org/presentationml/2006/main"
	relsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Zip packs parts (name to content) into an archive, in name order.
func Zip(parts map[string]string) []byte {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func escape(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		panic(err)
	}
	return sb.String()
}

// DOCX returns a word-processor document with one body paragraph per argument.
func DOCX(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escape(p))
	}
	return Zip(map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="` + wordNS + `"><w:body>` + body.String() + `<w:sectPr/></w:body></w:document>`,
	})
}

// SlideXML returns a slide part with one text shape per argument. A shape
// text containing "\n" becomes several paragraphs.
func SlideXML(shapes ...string) string {
	var tree strings.Builder
	for i, shape := range shapes {
		fmt.Fprintf(&tree, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/></p:nvSpPr><p:txBody><a:bodyPr/>`, i+2, i)
		for _, para := range strings.Split(shape, "\n") {
			fmt.Fprintf(&tree, `<a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p>`, escape(para))
		}
		tree.WriteString(`</p:txBody></p:sp>`)
	}
	// A picture has no text and must not contribute a line.
	tree.WriteString(`<p:pic><p:nvPicPr><p:cNvPr id="99" name="Picture"/></p:nvPicPr></p:pic>`)

	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld xmlns:a="` + drawNS + `" xmlns:p="` + presNS + `" xmlns:r="` + relsNS + `">` +
		`<p:cSld><p:spTree><p:nvGrpSpPr/>` + tree.String() + `</p:spTree></p:cSld></p:sld>`
}

// PPTX returns a slide deck; each slide is the list of its shape texts.
func PPTX(slides ...[]string) []byte {
	order := make([]int, len(slides))
	for i := range order {
		order[i] = i
	}
	return PPTXOrdered(order, slides...)
}

// PPTXOrdered stores slides[i] as ppt/slides/slide<i+1>.xml but lists them
// in the presentation in the given order of indices.
func PPTXOrdered(order []int, slides ...[]string) []byte {
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	}

	var ids, rels strings.Builder
	for pos, i := range order {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+pos, i+10)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="%s/slide" Target="slides/slide%d.xml"/>`, i+10, relsNS, i+1)
	}
	for i, shapes := range slides {
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = SlideXML(shapes...)
	}

	parts["ppt/presentation.xml"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:presentation xmlns:p="` + presNS + `" xmlns:r="` + relsNS + `"><p:sldIdLst>` + ids.String() + `</p:sldIdLst></p:presentation>`
	parts["ppt/_rels/presentation.xml.rels"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + rels.String() + `</Relationships>`
	return Zip(parts)
}

// PDF returns a PDF with one Helvetica text line per page.
func PDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", pdfEscaper.Replace(text))
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefAt := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefAt)
	return buf.Bytes()
}

var pdfEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
