package ingest

import (
	"errors"
	"testing"
)

func TestDocTypeOf(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"reports/q3.txt", "txt"},
		{"notes.MD", "md"},
		{"data/export.csv", "csv"},
		{"page.html", "html"},
		{"archive.tar.gz", "gz"},
		{"noextension", ""},
	}
	for _, tc := range cases {
		if got := docTypeOf(tc.path); got != tc.want {
			t.Errorf("docTypeOf(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestExtractTextPlain(t *testing.T) {
	text, err := extractText([]byte("hello world"), "txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestExtractTextCSV(t *testing.T) {
	data := []byte("name,city\nalice,berlin\nbob,tokyo\n")
	text, err := extractText(data, "csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "name city\nalice berlin\nbob tokyo\n"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestExtractTextHTML(t *testing.T) {
	data := []byte("<html><body><h1>Title</h1><p>Some   text.</p></body></html>")
	text, err := extractText(data, "html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Title Some text." {
		t.Errorf("got %q", text)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := extractText([]byte{0x50, 0x4b}, "zip")
	var uerr *UnsupportedDocTypeError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnsupportedDocTypeError, got %v", err)
	}
	if uerr.DocType != "zip" {
		t.Errorf("unexpected doc type %q", uerr.DocType)
	}
}
