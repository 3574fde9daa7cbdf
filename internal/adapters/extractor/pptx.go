package extractor

import (
	"archive/zip"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PPTX extracts slide decks: slides in presentation order, and for every
// top-level text shape its paragraphs followed by a newline.
type PPTX struct{}

type pptxPresentation struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type pptxRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type pptxSlide struct {
	Shapes []struct {
		Paragraphs []paragraph `xml:"txBody>p"`
	} `xml:"cSld>spTree>sp"`
}

var slidePartName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extract returns the text of all slides.
func (PPTX) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range slideParts(zr) {
		var slide pptxSlide
		if err := decodePart(zr, part, &slide); err != nil {
			return "", err
		}
		for _, shape := range slide.Shapes {
			sb.WriteString(joinParagraphs(shape.Paragraphs))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// slideParts lists slide part names in presentation order, falling back to
// numeric file order when the presentation part cannot be resolved.
func slideParts(zr *zip.Reader) []string {
	if parts, ok := orderedSlideParts(zr); ok {
		return parts
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for _, f := range zr.File {
		m := slidePartName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{name: f.Name, n: n})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	parts := make([]string, len(found))
	for i, f := range found {
		parts[i] = f.name
	}
	return parts
}

func orderedSlideParts(zr *zip.Reader) ([]string, bool) {
	var pres pptxPresentation
	if err := decodePart(zr, "ppt/presentation.xml", &pres); err != nil {
		return nil, false
	}
	var rels pptxRelationships
	if err := decodePart(zr, "ppt/_rels/presentation.xml.rels", &rels); err != nil {
		return nil, false
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targets[r.ID] = r.Target
	}

	parts := make([]string, 0, len(pres.SlideIDs))
	for _, id := range pres.SlideIDs {
		target, ok := targets[id.RelID]
		if !ok {
			return nil, false
		}
		if strings.HasPrefix(target, "/") {
			parts = append(parts, strings.TrimPrefix(target, "/"))
		} else {
			parts = append(parts, path.Join("ppt", target))
		}
	}
	return parts, len(parts) > 0
}
