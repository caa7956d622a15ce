package corpus

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadTEI reads a TEI edition. Each <div type="chapter"> is one chapter, in
// document order; <head>, <p> and <l> elements inside it become lines.
// Nested divs of other types are flattened into the enclosing chapter.
func LoadTEI(path string) (Edition, error) {
	file, err := os.Open(path)
	if err != nil {
		return Edition{}, fmt.Errorf("failed to open TEI edition: %w", err)
	}
	defer file.Close()

	edition, err := parseTEI(file)
	if err != nil {
		return Edition{}, fmt.Errorf("failed to parse TEI edition %s: %w", path, err)
	}
	edition.Path = path
	return edition, nil
}

func parseTEI(r io.Reader) (Edition, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	edition := Edition{Format: FormatTEI}
	lines := make(map[int][]string)

	// Stack of open div elements; true marks a chapter div.
	var divs []bool
	chapterDepth := 0
	current := 0

	inTitle := false
	var title strings.Builder

	depth := 0 // depth inside a line-bearing element
	var line strings.Builder

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Edition{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "div", "div1", "div2":
				isChapter := strings.EqualFold(attr(t, "type"), "chapter")
				divs = append(divs, isChapter)
				if isChapter && chapterDepth == 0 {
					current++
					chapterDepth = len(divs)
				}
			case "head", "p", "l":
				if chapterDepth > 0 {
					depth++
				}
			case "lb":
				if depth > 0 {
					line.WriteString(" ")
				}
			case "title":
				if current == 0 && edition.Title == "" {
					inTitle = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "div", "div1", "div2":
				if len(divs) == 0 {
					continue
				}
				if len(divs) == chapterDepth {
					chapterDepth = 0
				}
				divs = divs[:len(divs)-1]
			case "head", "p", "l":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					text := strings.Join(strings.Fields(line.String()), " ")
					if text != "" {
						lines[current] = append(lines[current], text)
					}
					line.Reset()
				}
			case "title":
				if inTitle {
					inTitle = false
					edition.Title = strings.Join(strings.Fields(title.String()), " ")
				}
			}
		case xml.CharData:
			if depth > 0 {
				line.Write(t)
			} else if inTitle {
				title.Write(t)
			}
		}
	}

	chapters := NewChapters(nil)
	for number, chapterLines := range lines {
		chapters.Set(number, chapterLines)
	}
	edition.Source = chapters
	return edition, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
