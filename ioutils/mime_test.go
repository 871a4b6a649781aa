package ioutils

import (
	"reflect"
	"testing"
)

func TestMimeToExt(t *testing.T) {
	tests := []struct {
		mime     string
		expected []string
	}{
		{MimeTextPlain, []string{".txt", ".text"}},
		{MimeTextHTML, []string{".html", ".htm"}},
		{MimeTextCSS, []string{".css"}},
		// Add more test cases here
	}

	for _, test := range tests {
		actual := mimeToExt[test.mime]
		if !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("mimeToExt[%q] = %v, want %v", test.mime, actual, test.expected)
		}
	}
}

func TestExtToMime(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{".txt", MimeTextPlain},
		{".text", MimeTextPlain},
		{".html", MimeTextHTML},
		// Add more test cases here
	}

	for _, test := range tests {
		actual := mapExtToMime[test.ext]
		if actual != test.expected {
			t.Errorf("mapExtToMime[%q] = %q, want %q", test.ext, actual, test.expected)
		}
	}
}
