package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const codeSearchDescription = "Search file contents with a regular expression. Returns matching lines formatted as path:lineno:content, truncated to max_results."

var codeSearchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"pattern": {"type": "string", "description": "Regular expression (RE2 syntax)."},
		"path": {"type": "string", "description": "Directory to search under. Defaults to the project root."},
		"file_pattern": {"type": "string", "description": "Glob to restrict which files are searched, e.g. '*.go'."},
		"max_results": {"type": "integer", "default": 50}
	},
	"required": ["pattern"]
}`)

type codeSearchInput struct {
	Pattern     string `json:"pattern"`
	Path        string `json:"path"`
	FilePattern string `json:"file_pattern"`
	MaxResults  int    `json:"max_results"`
}

const defaultMaxSearchResults = 50
const maxSearchLineLen = 300

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "target": true, "__pycache__": true, "vendor": true,
}

func newCodeSearch(workDir string) Func {
	return func(ctx context.Context, input json.RawMessage) Result {
		params, err := parseInput[codeSearchInput](input)
		if err != nil {
			return Err("%v", err)
		}
		if params.Pattern == "" {
			return Err("pattern is required")
		}
		re, err := regexp.Compile(params.Pattern)
		if err != nil {
			return Err("invalid pattern: %v", err)
		}

		root := workDir
		if params.Path != "" {
			resolved, err := ValidatePath(workDir, params.Path)
			if err != nil {
				return Err("%v", err)
			}
			root = resolved
		}

		maxResults := params.MaxResults
		if maxResults <= 0 {
			maxResults = defaultMaxSearchResults
		}

		var matches []string
		truncated := false

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if len(matches) >= maxResults {
				truncated = true
				return nil
			}
			if params.FilePattern != "" {
				ok, _ := filepath.Match(params.FilePattern, d.Name())
				if !ok {
					return nil
				}
			}
			if isBinaryFile(path) {
				return nil
			}
			searchFile(path, root, re, maxResults, &matches, &truncated)
			return nil
		})
		if walkErr != nil {
			return Err("searching %s: %v", params.Path, walkErr)
		}

		var sb strings.Builder
		for _, m := range matches {
			sb.WriteString(m)
			sb.WriteByte('\n')
		}
		if truncated {
			fmt.Fprintf(&sb, "... and more matches (truncated at %d)\n", maxResults)
		}
		if len(matches) == 0 {
			return Ok("no matches")
		}
		return Ok(sb.String())
	}
}

func searchFile(path, root string, re *regexp.Regexp, maxResults int, matches *[]string, truncated *bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for i, line := range strings.Split(string(data), "\n") {
		if len(*matches) >= maxResults {
			*truncated = true
			return
		}
		if re.MatchString(line) {
			text := line
			if len(text) > maxSearchLineLen {
				text = text[:maxSearchLineLen] + "..."
			}
			*matches = append(*matches, fmt.Sprintf("%s:%d:%s", rel, i+1, text))
		}
	}
}

func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) != -1
}
