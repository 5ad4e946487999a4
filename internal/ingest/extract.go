package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
)

// UnsupportedDocTypeError marks document types the extractor cannot handle.
// Workflows treat it as terminal: retrying cannot fix the input.
type UnsupportedDocTypeError struct {
	DocType string
}

func (e *UnsupportedDocTypeError) Error() string {
	return fmt.Sprintf("unsupported document type %q", e.DocType)
}

// docTypeOf derives the document type from an object path extension.
func docTypeOf(objectPath string) string {
	ext := strings.TrimPrefix(path.Ext(objectPath), ".")
	return strings.ToLower(ext)
}

// extractText converts raw document bytes into plain text by document type.
func extractText(data []byte, docType string) (string, error) {
	switch docType {
	case "txt", "text", "md", "markdown", "log":
		return string(data), nil
	case "json":
		return string(data), nil
	case "csv":
		return extractCSV(data)
	case "html", "htm":
		return stripHTML(string(data)), nil
	default:
		return "", &UnsupportedDocTypeError{DocType: docType}
	}
}

func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse csv: %w", err)
		}
		sb.WriteString(strings.Join(record, " "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// stripHTML removes tags and collapses whitespace. Good enough for indexing;
// documents needing faithful rendering should be uploaded as text.
func stripHTML(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			sb.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
