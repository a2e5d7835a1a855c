package generator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate_ExactSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "randomfile-12:00:00-0")
	gen := NewRandomFileGenerator()

	if err := gen.Generate(context.Background(), path, 1048576); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != 1048576 {
		t.Errorf("expected 1048576 bytes, got %d", info.Size())
	}
}

func TestGenerate_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), 4096), 0644); err != nil {
		t.Fatal(err)
	}

	gen := NewGeneratorFromReader(strings.NewReader(strings.Repeat("a", 100)))
	if err := gen.Generate(context.Background(), path, 10); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "aaaaaaaaaa" {
		t.Errorf("expected truncated file with new content, got %d bytes", len(data))
	}
}

func TestGenerate_DistinctContent(t *testing.T) {
	dir := t.TempDir()
	gen := NewRandomFileGenerator()

	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := gen.Generate(context.Background(), a, 1024); err != nil {
		t.Fatal(err)
	}
	if err := gen.Generate(context.Background(), b, 1024); err != nil {
		t.Fatal(err)
	}

	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if bytes.Equal(da, db) {
		t.Error("two random files should not be identical")
	}
}

func TestGenerate_ShortSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short")
	gen := NewGeneratorFromReader(strings.NewReader("abc"))

	if err := gen.Generate(context.Background(), path, 10); err == nil {
		t.Fatal("expected error when the source runs dry")
	}
}

func TestGenerate_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "file")

	if err := NewRandomFileGenerator().Generate(context.Background(), path, 1); err == nil {
		t.Fatal("expected error when parent directory is missing")
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "never")
	err := NewRandomFileGenerator().Generate(ctx, path, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should be created for a cancelled context")
	}
}
