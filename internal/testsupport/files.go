package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// utf8BOM is prepended by editors such as Notepad when saving override maps.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteJSON marshals v to path, creating parent directories.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	writeBytes(t, path, data)
}

// WriteOverrideFile writes a hand-edited override map verbatim. With bom set
// the body is prefixed with a UTF-8 byte order mark.
func WriteOverrideFile(t testing.TB, path, body string, bom bool) {
	t.Helper()

	data := []byte(body)
	if bom {
		data = append(append([]byte{}, utf8BOM...), data...)
	}
	writeBytes(t, path, data)
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
