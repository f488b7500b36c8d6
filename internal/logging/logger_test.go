package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesLevelPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello")
	l.Warn("careful")
	l.Error("boom")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	for _, want := range []string{"INFO: hello", "WARN: careful", "ERROR: boom"} {
		if !strings.Contains(content, want) {
			t.Fatalf("log content missing %q: %s", want, content)
		}
	}
}

func TestFieldsStringSortedDeterministic(t *testing.T) {
	f := Fields{"b": 2, "a": 1}
	if got := f.String(); got != "a=1 b=2" {
		t.Fatalf("Fields.String() = %q, want \"a=1 b=2\"", got)
	}
}

func TestInfoFieldsAppendsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	l, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.InfoFields("device_tick", Fields{"deviceId": "dev1"})
	l.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "device_tick deviceId=dev1") {
		t.Fatalf("unexpected log content: %s", data)
	}
}
