// Package documents turns resume and job description files into plain text
// and keeps collections of loaded documents.
package documents

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

const (
	ExtTXT  = ".txt"
	ExtDOCX = ".docx"
	ExtPDF  = ".pdf"

	docxBody = "word/document.xml"
	wordNS   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// SupportedExtensions lists the extensions picked up when loading folders.
var SupportedExtensions = []string{ExtTXT, ExtDOCX, ExtPDF}

var pdfParser = sync.OnceValues(func() (*pdf.PDFParser, error) {
	return pdf.NewPDFParser(context.Background(), &pdf.Config{ToPages: true})
})

// ExtractText decodes data according to ext (case-insensitive, with the dot).
// Unknown extensions are decoded as UTF-8 on a best-effort basis.
func ExtractText(ctx context.Context, data []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ExtDOCX:
		return readDOCX(data)
	case ExtPDF:
		return readPDF(ctx, data)
	default:
		return decodeUTF8(data), nil
	}
}

// decodeUTF8 drops invalid byte sequences.
func decodeUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func readPDF(ctx context.Context, data []byte) (string, error) {
	p, err := pdfParser()
	if err != nil {
		return "", fmt.Errorf("create pdf parser: %w", err)
	}

	docs, err := p.Parse(ctx, bytes.NewReader(data), einoParser.WithURI("upload.pdf"))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, doc.Content)
	}

	return strings.Join(pages, "\n"), nil
}

// readDOCX returns the body paragraphs joined with newlines. Paragraphs inside
// tables, content controls and text boxes are not part of the body list.
func readDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("open docx: %s not found", docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	paragraphs, err := bodyParagraphs(rc)
	if err != nil {
		return "", fmt.Errorf("parse docx body: %w", err)
	}

	return strings.Join(paragraphs, "\n"), nil
}

func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
		textBoxes  int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := wordName(t.Name)
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, name)

			switch {
			case name == "p" && parent == "body":
				inPara = true
				paraDepth = len(stack)
				current.Reset()
			case !inPara:
			case name == "txbxContent":
				textBoxes++
			case textBoxes > 0:
			case name == "t":
				inText = true
			case name == "tab":
				current.WriteByte('\t')
			case name == "br" || name == "cr":
				current.WriteByte('\n')
			}

		case xml.EndElement:
			name := wordName(t.Name)
			switch {
			case inPara && name == "p" && len(stack) == paraDepth:
				paragraphs = append(paragraphs, current.String())
				inPara = false
			case name == "txbxContent" && textBoxes > 0:
				textBoxes--
			case name == "t":
				inText = false
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if inPara && inText && textBoxes == 0 {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// wordName returns the local name for WordprocessingML elements and a
// qualified name for everything else, so foreign "p" or "t" never match.
func wordName(n xml.Name) string {
	if n.Space == wordNS {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
