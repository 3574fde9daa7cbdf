package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

func openZip(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}
	return zr, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %w", name, err)
	}
	return data, nil
}

func decodePart(zr *zip.Reader, name string, v any) error {
	data, err := readPart(zr, name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing part %s: %w", name, err)
	}
	return nil
}

// paragraph collects the visible text of a WordprocessingML or DrawingML
// paragraph (w:p / a:p): text runs, tabs and line breaks in document order.
type paragraph struct {
	Text string
}

// skipped subtrees: properties hold tab stop definitions, and alternate
// content fallbacks and text boxes would duplicate or leak text.
var skippedElements = map[string]bool{
	"pPr":         true,
	"rPr":         true,
	"Fallback":    true,
	"txbxContent": true,
}

func (p *paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth := 0
	inText := false

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skippedElements[t.Name.Local] {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteString(breakText(t))
			case "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = sb.String()
				return nil
			}
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}

const drawingMLNS = "http://schemas.openxmlformats.org/drawingml/2006/main"

// breakText renders a break element. DrawingML line breaks become a vertical
// tab; WordprocessingML page and column breaks render as nothing.
func breakText(el xml.StartElement) string {
	if el.Name.Space == drawingMLNS {
		return "\v"
	}
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" && attr.Value != "textWrapping" {
			return ""
		}
	}
	return "\n"
}

func joinParagraphs(ps []paragraph) string {
	texts := make([]string, len(ps))
	for i, p := range ps {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n")
}
