package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, files []string) {
	t.Helper()
	for _, file := range files {
		path := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir for %s: %v", file, err)
		}
		if err := os.WriteFile(path, []byte("<?php"), 0644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, []string{
		"tests/Unit/UserTest.php",
		"tests/Unit/PaymentTest.php",
		"tests/Feature/OrderTest.php",
		"tests/.cache/StaleTest.php",
		"vendor/pkg/VendorTest.php",
		"node_modules/pkg/file.js",
		"tests/helpers.php",
	})

	scanner := NewScanner([]string{"vendor", "node_modules"})
	results, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{
		filepath.Join(root, "tests/Feature/OrderTest.php"),
		filepath.Join(root, "tests/Unit/PaymentTest.php"),
		filepath.Join(root, "tests/Unit/UserTest.php"),
	}
	if len(results) != len(want) {
		t.Fatalf("found %d files %v, want %d", len(results), results, len(want))
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result[%d] = %s, want %s", i, results[i], want[i])
		}
	}
}

func TestScanner_ScanErrors(t *testing.T) {
	scanner := NewScanner(nil)

	if _, err := scanner.Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a missing root")
	}

	file := filepath.Join(t.TempDir(), "SomeTest.php")
	if err := os.WriteFile(file, []byte("<?php"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := scanner.Scan(file); err == nil {
		t.Error("expected an error when the root is a file")
	}
}
