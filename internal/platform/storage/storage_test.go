package storage

import (
	"io"
	"strings"
	"testing"
)

func TestSaveOpenRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}

	stored, err := store.Save(strings.NewReader("medical certificate"), "cert.pdf")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasSuffix(stored, ".pdf") {
		t.Fatalf("expected stored name to keep extension, got %q", stored)
	}
	if stored == "cert.pdf" {
		t.Fatal("expected stored name to be randomized")
	}

	file, err := store.Open(stored)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "medical certificate" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Remove(stored); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.Remove(stored); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
	if _, err := store.Open(stored); err == nil {
		t.Fatal("expected open after remove to fail")
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	if _, err := store.Open("../../etc/passwd"); err == nil {
		t.Fatal("expected traversal path to fail")
	}
}

func TestSafeExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "normal", in: "report.pdf", want: ".pdf"},
		{name: "none", in: "README", want: ""},
		{name: "uppercase normalized", in: "IMG.JPG", want: ".jpg"},
		{name: "overlong dropped", in: "weird.verylongextension", want: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := safeExtension(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
