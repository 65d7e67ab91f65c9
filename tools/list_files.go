package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const listFilesDescription = "List entries in a directory. Non-recursive by default; set recursive=true to walk subdirectories, skipping common ignore patterns (.git, node_modules, target, __pycache__). .gitignore files are not consulted."

var listFilesSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"path": {"type": "string", "description": "Directory path, relative to the project root or absolute."},
		"recursive": {"type": "boolean", "description": "Walk subdirectories. Defaults to false.", "default": false}
	},
	"required": ["path"]
}`)

type listFilesInput struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// defaultIgnoreDirs mirrors the common-ignore-pattern defaults a
// recursive listing should skip without being asked.
var defaultIgnoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
}

const maxListResults = 10000

func newListFiles(workDir string) Func {
	return func(ctx context.Context, input json.RawMessage) Result {
		params, err := parseInput[listFilesInput](input)
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
		info, err := os.Stat(resolved)
		if err != nil {
			return Err("stat %s: %v", params.Path, err)
		}
		if !info.IsDir() {
			return Err("%s is not a directory", params.Path)
		}

		if !params.Recursive {
			return listFlat(resolved)
		}
		return listRecursive(ctx, resolved)
	}
}

func listFlat(dir string) Result {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Err("reading %s: %v", dir, err)
	}
	var sb strings.Builder
	for _, e := range entries {
		marker := "file"
		if e.IsDir() {
			marker = "dir"
		}
		fmt.Fprintf(&sb, "%s  %s\n", marker, e.Name())
	}
	return Ok(sb.String())
}

type fileEntry struct {
	relPath string
	isDir   bool
}

// listRecursive walks dir recursively, fanning the per-directory
// os.ReadDir calls out across a bounded worker group so a wide tree does
// not serialize on syscalls one directory at a time.
func listRecursive(ctx context.Context, dir string) Result {
	var mu sync.Mutex
	var entries []fileEntry
	truncated := false

	var walk func(path string) error
	walk = func(path string) error {
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return nil // unreadable subdirectory: skip, not fatal
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)

		var subdirs []string
		for _, e := range dirEntries {
			if defaultIgnoreDirs[e.Name()] {
				continue
			}
			rel, _ := filepath.Rel(dir, filepath.Join(path, e.Name()))
			mu.Lock()
			if len(entries) >= maxListResults {
				truncated = true
				mu.Unlock()
				continue
			}
			entries = append(entries, fileEntry{relPath: rel, isDir: e.IsDir()})
			mu.Unlock()
			if e.IsDir() {
				subdirs = append(subdirs, filepath.Join(path, e.Name()))
			}
		}

		for _, sub := range subdirs {
			sub := sub
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				return walk(sub)
			})
		}
		return g.Wait()
	}

	if err := walk(dir); err != nil {
		return Err("walking %s: %v", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	var sb strings.Builder
	for _, e := range entries {
		marker := "file"
		if e.isDir {
			marker = "dir"
		}
		fmt.Fprintf(&sb, "%s  %s\n", marker, e.relPath)
	}
	if truncated {
		fmt.Fprintf(&sb, "... truncated at %d entries\n", maxListResults)
	}
	return Ok(sb.String())
}
