package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jonathan/resume-intake/internal/llm"
)

// Supported MIME types.
const (
	MIMEPDF   = "application/pdf"
	MIMEDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDOC   = "application/msword"
	MIMEPlain = "text/plain"
)

// maxDocxXMLBytes caps how much of word/document.xml is read.
const maxDocxXMLBytes = 20 << 20

// oleMagic opens every legacy compound-file (.doc) document.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	// minTextRun is the shortest printable run kept from a binary .doc.
	minTextRun = 4
	// minDocText is the least recovered text worth sending for extraction.
	minDocText = 20
)

// DetectMIMEType resolves a document's type from its declared type, its magic
// bytes and its file extension, in that order. It returns "" when unknown.
func DetectMIMEType(declared, filename string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	switch declared {
	case MIMEPDF, MIMEDOCX, MIMEDOC, MIMEPlain:
		return declared
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return MIMEPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return MIMEDOCX
	case bytes.HasPrefix(data, oleMagic):
		return MIMEDOC
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".doc":
		return MIMEDOC
	case ".txt":
		return MIMEPlain
	}
	return ""
}

// PreparedDocument is a document in the form the extraction service accepts:
// either an inline attachment or flattened text.
type PreparedDocument struct {
	MIMEType   string
	Attachment *llm.Attachment
	Text       string
}

// PrepareDocument converts raw upload bytes into a PreparedDocument.
func PrepareDocument(data []byte, mimeType string) (*PreparedDocument, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &NoStructuredOutputError{Reason: "document is empty"}
	}

	resolved := DetectMIMEType(mimeType, "", data)
	switch resolved {
	case MIMEPDF:
		return &PreparedDocument{
			MIMEType:   MIMEPDF,
			Attachment: &llm.Attachment{MIMEType: MIMEPDF, Data: data},
		}, nil
	case MIMEDOCX:
		text, err := docxText(data)
		if err != nil {
			return nil, &NoStructuredOutputError{Reason: "unreadable Word document", Cause: err}
		}
		if strings.TrimSpace(text) == "" {
			return nil, &NoStructuredOutputError{Reason: "Word document has no text"}
		}
		return &PreparedDocument{MIMEType: MIMEDOCX, Text: text}, nil
	case MIMEDOC:
		text := legacyDocText(data)
		if len([]rune(text)) < minDocText {
			return nil, &NoStructuredOutputError{Reason: "no readable text in legacy Word document"}
		}
		return &PreparedDocument{MIMEType: MIMEDOC, Text: text}, nil
	case MIMEPlain:
		text := strings.TrimSpace(cleanText(data))
		if text == "" {
			return nil, &NoStructuredOutputError{Reason: "document has no text"}
		}
		return &PreparedDocument{MIMEType: MIMEPlain, Text: text}, nil
	default:
		return nil, &UnsupportedDocumentError{MIMEType: mimeType}
	}
}

// cleanText returns data as valid UTF-8 without NUL bytes or control
// characters other than line breaks and tabs. Dropping NULs also recovers
// ASCII stored as UTF-16LE.
func cleanText(data []byte) string {
	s := strings.ToValidUTF8(strings.ReplaceAll(string(data), "\x00", ""), " ")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case unicode.IsPrint(r):
			return r
		default:
			return ' '
		}
	}, s)
}

// legacyDocText recovers the readable text of a binary .doc. The compound file
// interleaves text with binary tables, so control bytes and invalid sequences
// end a run, and only runs of at least minTextRun characters that contain a
// letter or digit are kept, one per line.
func legacyDocText(data []byte) string {
	s := strings.ToValidUTF8(strings.ReplaceAll(string(data), "\x00", ""), string(unicode.ReplacementChar))

	var (
		runs []string
		run  strings.Builder
	)
	flush := func() {
		text := strings.Join(strings.Fields(run.String()), " ")
		run.Reset()
		if len([]rune(text)) >= minTextRun && strings.ContainsFunc(text, isWordRune) {
			runs = append(runs, text)
		}
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && r != '\t') {
			flush()
			continue
		}
		run.WriteRune(r)
	}
	flush()
	return strings.Join(runs, "\n")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// docxText flattens the text runs of word/document.xml, one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open word/document.xml: %w", err)
	}
	defer func() { _ = rc.Close() }()

	decoder := xml.NewDecoder(io.LimitReader(rc, maxDocxXMLBytes))
	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse word/document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
