package document

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// docxDocument mirrors the structure of word/document.xml
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// loadDOCX extracts paragraph text from a DOCX archive as one segment
func loadDOCX(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open DOCX archive")
	}
	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open document.xml")
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read document.xml")
		}

		text := parseDocxXML(content)
		if text == "" {
			return nil, nil
		}
		return []string{text}, nil
	}

	return nil, goerr.New("document.xml not found in DOCX archive")
}

func parseDocxXML(content []byte) string {
	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var sb strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				sb.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
