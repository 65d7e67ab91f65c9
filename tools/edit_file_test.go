package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// TestEditFileUniquenessContract covers edit_file's uniqueness
// contract: a unique occurrence is replaced and round-trips through
// read_file; zero or multiple occurrences fail and leave the file
// untouched.
func TestEditFileUniquenessContract(t *testing.T) {
	dir := t.TempDir()
	edit := newEditFile(dir)
	read := newReadFile(dir)

	t.Run("unique occurrence replaced", func(t *testing.T) {
		writeTempFile(t, dir, "unique.txt", "hello world\n")
		input, _ := json.Marshal(editFileInput{Path: "unique.txt", OldString: "world", NewString: "there"})
		res := edit(context.Background(), input)
		if !res.Success {
			t.Fatalf("expected success, got error: %v", res.Error)
		}
		readRes := read(context.Background(), mustJSON(t, readFileInput{Path: "unique.txt"}))
		if readRes.Output != "hello there\n" {
			t.Errorf("unexpected content: %q", readRes.Output)
		}
	})

	t.Run("zero occurrences errors and leaves file untouched", func(t *testing.T) {
		path := writeTempFile(t, dir, "zero.txt", "nothing to see\n")
		before, _ := os.ReadFile(path)
		input, _ := json.Marshal(editFileInput{Path: "zero.txt", OldString: "missing", NewString: "x"})
		res := edit(context.Background(), input)
		if res.Success {
			t.Fatalf("expected failure")
		}
		after, _ := os.ReadFile(path)
		if string(before) != string(after) {
			t.Errorf("file was modified despite a failed edit")
		}
	})

	t.Run("multiple occurrences errors and leaves file untouched", func(t *testing.T) {
		path := writeTempFile(t, dir, "dup.txt", "foo foo\n")
		before, _ := os.ReadFile(path)
		input, _ := json.Marshal(editFileInput{Path: "dup.txt", OldString: "foo", NewString: "bar"})
		res := edit(context.Background(), input)
		if res.Success {
			t.Fatalf("expected failure")
		}
		if res.Error == nil {
			t.Fatalf("expected an error message")
		}
		after, _ := os.ReadFile(path)
		if string(before) != string(after) {
			t.Errorf("file was modified despite a failed edit")
		}
	})

	t.Run("empty old_string creates a new file", func(t *testing.T) {
		input, _ := json.Marshal(editFileInput{Path: "new.txt", OldString: "", NewString: "created\n"})
		res := edit(context.Background(), input)
		if !res.Success {
			t.Fatalf("expected success, got error: %v", res.Error)
		}
		data, err := os.ReadFile(filepath.Join(dir, "new.txt"))
		if err != nil {
			t.Fatalf("reading created file: %v", err)
		}
		if string(data) != "created\n" {
			t.Errorf("unexpected content: %q", data)
		}
	})
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
