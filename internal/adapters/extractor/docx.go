package extractor

// DOCX extracts word-processor documents: one line per body paragraph.
// Paragraphs nested in tables are not body paragraphs and are left out.
type DOCX struct{}

type docxDocument struct {
	Paragraphs []paragraph `xml:"body>p"`
}

// Extract returns the body paragraphs joined by newlines.
func (DOCX) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	var doc docxDocument
	if err := decodePart(zr, "word/document.xml", &doc); err != nil {
		return "", err
	}
	return joinParagraphs(doc.Paragraphs), nil
}
