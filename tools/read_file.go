package tools

import (
	"context"
	"encoding/json"
	"os"
)

const readFileDescription = "Read the UTF-8 contents of a file."

var readFileSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"path": {"type": "string", "description": "Path to the file, relative to the project root or absolute."}
	},
	"required": ["path"]
}`)

type readFileInput struct {
	Path string `json:"path"`
}

func newReadFile(workDir string) Func {
	return func(ctx context.Context, input json.RawMessage) Result {
		params, err := parseInput[readFileInput](input)
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
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Err("reading %s: %v", params.Path, err)
		}
		return Ok(string(data))
	}
}
