// Package extract turns uploaded resume files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"resume-ranker/internal/shared/storage/object"
)

// Format is the detected upload type.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatText    Format = "txt"
	FormatUnknown Format = "unknown"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MinTextLength is the shortest cleaned text accepted as a resume.
	MinTextLength = 50
)

var (
	// ErrTextTooShort means extraction produced too little text, typically a
	// scanned image PDF.
	ErrTextTooShort = errors.New("extracted text is too short")
	ErrEmptyUpload  = errors.New("empty upload")
)

// Result is the cleaned text and the format it came from.
type Result struct {
	Text   string `json:"text"`
	Format Format `json:"format"`
}

// FromBytes extracts and cleans text from an in-memory upload.
func FromBytes(ctx context.Context, data []byte, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{}, ErrEmptyUpload
	}

	format := DetectFormat(mimeType, fileName, data)
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		text = string(data)
	}
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", format, err)
	}

	text = Clean(text)
	if n := utf8.RuneCountInString(text); n < MinTextLength {
		return Result{}, fmt.Errorf("%w (%d chars): upload a text-based PDF/DOCX or paste the text", ErrTextTooShort, n)
	}
	return Result{Text: text, Format: format}, nil
}

// FromObject reads a stored upload and extracts its text. When the store
// accepts keyed writes the text is also saved next to the original.
func FromObject(ctx context.Context, store object.ObjectStore, key, mimeType, fileName string) (Result, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", key, err)
	}
	res, err := FromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return Result{}, err
	}
	if saver, ok := store.(object.KeySaver); ok {
		if _, err := saver.SaveWithKey(ctx, ExtractedKey(key), "text/plain; charset=utf-8", strings.NewReader(res.Text)); err != nil {
			return Result{}, fmt.Errorf("save extracted text: %w", err)
		}
	}
	return res, nil
}

// ExtractedKey is where the text derived from key is kept.
func ExtractedKey(key string) string {
	return key + ".extracted.txt"
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Clean drops NUL bytes, normalizes CRLF to LF, collapses runs of three or
// more newlines to one blank line and trims.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// DetectFormat decides how to read an upload from its declared MIME type,
// its name and, for zip containers, its entries.
func DetectFormat(mimeType, fileName string, data []byte) Format {
	mime := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	ext := strings.ToLower(filepath.Ext(fileName))

	switch {
	case mime == mimePDF || ext == ".pdf":
		return FormatPDF
	case mime == mimeDOCX || ext == ".docx":
		return FormatDOCX
	case mime == "application/zip" && isDOCXZip(data):
		return FormatDOCX
	case strings.HasPrefix(mime, "text/") || ext == ".txt" || ext == ".md":
		return FormatText
	}
	return FormatUnknown
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("word/document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return docxText(raw), nil
}

// docxText keeps character data and turns paragraph, break and tab
// elements into whitespace.
func docxText(raw []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return string(raw)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func isDOCXZip(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
