package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const editFileDescription = "Edit a file by replacing one exact occurrence of old_string with new_string. old_string must occur exactly once in the file. To create a new file, pass old_string as an empty string."

var editFileSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"path": {"type": "string"},
		"old_string": {"type": "string", "description": "Exact text to replace. Empty string creates/overwrites the file with new_string."},
		"new_string": {"type": "string"}
	},
	"required": ["path", "old_string", "new_string"]
}`)

type editFileInput struct {
	Path      string `json:"path"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

func newEditFile(workDir string) Func {
	return func(ctx context.Context, input json.RawMessage) Result {
		params, err := parseInput[editFileInput](input)
		if err != nil {
			return Err("%v", err)
		}
		if params.Path == "" {
			return Err("path is required")
		}
		resolved, err := ValidatePath(workDir, params.Path)
		if err != nil {
			return Err("%v", err)
		}

		if params.OldString == "" {
			if err := AtomicWrite(resolved, []byte(params.NewString), 0644); err != nil {
				return Err("creating %s: %v", params.Path, err)
			}
			return Ok(fmt.Sprintf("created %s", params.Path))
		}

		content, err := os.ReadFile(resolved)
		if err != nil {
			return Err("reading %s: %v", params.Path, err)
		}
		original := string(content)

		count := strings.Count(original, params.OldString)
		switch {
		case count == 0:
			return Err("old_string not found in %s", params.Path)
		case count > 1:
			return Err("old_string matches %d times in %s; include more surrounding context to make the match unique", count, params.Path)
		}

		updated := strings.Replace(original, params.OldString, params.NewString, 1)

		info, err := os.Stat(resolved)
		perm := os.FileMode(0644)
		if err == nil {
			perm = info.Mode()
		}
		if err := AtomicWrite(resolved, []byte(updated), perm); err != nil {
			return Err("writing %s: %v", params.Path, err)
		}
		return Ok(fmt.Sprintf("edited %s", params.Path))
	}
}
