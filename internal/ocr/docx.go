package ocr

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractDocx reads word/document.xml: body paragraphs first, then every table row with its
// cells joined by tabs.
func extractDocx(path string) (ExtractionResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return ExtractionResult{}, errors.New("docx has no word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs, rows, err := parseDocumentXML(rc)
	if err != nil {
		return ExtractionResult{}, err
	}
	lines := append(paragraphs, rows...)
	return ExtractionResult{
		Text:   strings.Join(lines, "\n"),
		Pages:  1,
		Method: "docx-xml",
	}, nil
}

func parseDocumentXML(r io.Reader) (paragraphs, rows []string, err error) {
	dec := xml.NewDecoder(r)
	var (
		tableDepth int
		para       strings.Builder
		cell       strings.Builder
		cells      []string
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				cells = cells[:0]
			case "tc":
				cell.Reset()
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				if tableDepth > 0 {
					if text != "" {
						if cell.Len() > 0 {
							cell.WriteByte(' ')
						}
						cell.WriteString(text)
					}
				} else if text != "" {
					paragraphs = append(paragraphs, text)
				}
			case "tc":
				cells = append(cells, cell.String())
			case "tr":
				rows = append(rows, strings.Join(cells, "\t"))
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return paragraphs, rows, nil
}
