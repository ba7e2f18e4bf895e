package pptx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	presentationPath = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	corePropsPath    = "docProps/core.xml"

	slideRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	drawingMLNS  = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

// maxPartSize bounds how much of a single archive part is read.
const maxPartSize = 32 << 20

var slideFileRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func indexFiles(r *zip.Reader) map[string]*zip.File {
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}
	return files
}

func readFile(f *zip.File) ([]byte, error) {
	if f == nil {
		return nil, errors.New("missing archive part")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxPartSize))
}

type presentationXML struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// slideOrder returns slide part names in presentation order. When the
// presentation part or its relationships cannot be read, slides are ordered
// by the number in their file name.
func slideOrder(files map[string]*zip.File) []string {
	if ordered := slideOrderFromPresentation(files); len(ordered) > 0 {
		return ordered
	}

	type numbered struct {
		n    int
		name string
	}
	var slides []numbered
	for name := range files {
		m := slideFileRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, numbered{n: n, name: name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.name
	}
	return out
}

func slideOrderFromPresentation(files map[string]*zip.File) []string {
	presData, err := readFile(files[presentationPath])
	if err != nil {
		return nil
	}
	relsData, err := readFile(files[presentationRels])
	if err != nil {
		return nil
	}

	var pres presentationXML
	if err := xml.Unmarshal(presData, &pres); err != nil {
		return nil
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(relsData, &rels); err != nil {
		return nil
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		if rel.Type == slideRelType {
			targets[rel.ID] = resolveTarget(rel.Target)
		}
	}

	var out []string
	for _, id := range pres.SlideIDs {
		target, ok := targets[id.RID]
		if !ok {
			continue
		}
		if _, exists := files[target]; exists {
			out = append(out, target)
		}
	}
	return out
}

// resolveTarget turns a relationship target relative to ppt/ into an
// archive part name.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join("ppt", target))
}

type coreXML struct {
	Title string `xml:"title"`
}

func coreTitle(files map[string]*zip.File) string {
	data, err := readFile(files[corePropsPath])
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// slideContent is the text of one slide.
type slideContent struct {
	title  string
	bodies []string
}

type shapeText struct {
	isTitle bool
	lines   []string
}

// parseSlide walks the slide XML in document order. Every shape (sp) and
// graphic frame (tables) contributes its paragraphs; the first title or
// centred-title placeholder becomes the slide title.
func parseSlide(data []byte) (slideContent, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))

	var (
		out        slideContent
		titleFound bool
		shape      *shapeText
		shapeDepth int
		depth      int
		para       *strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return slideContent{}, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case shape == nil && (el.Name.Local == "sp" || el.Name.Local == "graphicFrame"):
				shape = &shapeText{}
				shapeDepth = depth
			case shape != nil && el.Name.Local == "ph":
				for _, a := range el.Attr {
					if a.Name.Local == "type" && (a.Value == "title" || a.Value == "ctrTitle") {
						shape.isTitle = true
					}
				}
			case shape != nil && el.Name.Space == drawingMLNS && el.Name.Local == "p":
				para = &strings.Builder{}
			case para != nil && el.Name.Space == drawingMLNS && el.Name.Local == "t":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return slideContent{}, err
				}
				depth--
				para.WriteString(s)
			case para != nil && el.Name.Space == drawingMLNS && el.Name.Local == "br":
				para.WriteString("\n")
			}

		case xml.EndElement:
			switch {
			case para != nil && el.Name.Space == drawingMLNS && el.Name.Local == "p":
				shape.lines = append(shape.lines, para.String())
				para = nil
			case shape != nil && depth == shapeDepth:
				body := strings.TrimSpace(strings.Join(shape.lines, "\n"))
				if shape.isTitle && !titleFound {
					out.title = body
					titleFound = true
				} else if body != "" {
					out.bodies = append(out.bodies, body)
				}
				shape = nil
			}
			depth--
		}
	}

	return out, nil
}
