// Package tools implements the Tool Registry & Executor: a fixed, named
// set of six side-effecting capabilities, each with a declared
// JSON-schema input descriptor, dispatched through a single
// Execute(ctx, name, input) entry point, with the project root fixed
// when the registry is built.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lowkaihon/beads-harness/tracker"
)

// Result is the wire shape every tool returns.
// Success and Error are disjoint in practice but not enforced by type.
type Result struct {
	Success bool
	Output  string
	Error   *string
}

// Ok builds a successful Result.
func Ok(output string) Result { return Result{Success: true, Output: output} }

// Err builds a failed Result from a formatted message.
func Err(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	return Result{Success: false, Error: &msg}
}

// Func executes one tool invocation, parsing and checking its own raw
// JSON input.
type Func func(ctx context.Context, input json.RawMessage) Result

// Definition is the immutable, process-wide record the LLM sees for one
// tool.
type Definition struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

type toolEntry struct {
	def Definition
	fn  Func
}

// Registry is constructed once at startup and treated as process-wide
// immutable configuration thereafter.
type Registry struct {
	workDir string
	order   []string
	entries map[string]toolEntry
}

// NewRegistry builds the six fixed tools, rooted at workDir, with beads
// actions delegated to trackerClient.
func NewRegistry(workDir string, trackerClient *tracker.Client) *Registry {
	r := &Registry{workDir: workDir, entries: make(map[string]toolEntry)}

	r.register("read_file", readFileDescription, readFileSchema, newReadFile(workDir))
	r.register("list_files", listFilesDescription, listFilesSchema, newListFiles(workDir))
	r.register("bash", bashDescription, bashSchema, newBash(workDir))
	r.register("edit_file", editFileDescription, editFileSchema, newEditFile(workDir))
	r.register("code_search", codeSearchDescription, codeSearchSchema, newCodeSearch(workDir))
	r.register("beads", beadsDescription, beadsSchema, newBeadsTool(trackerClient))

	return r
}

func (r *Registry) register(name, description string, schema json.RawMessage, fn Func) {
	r.entries[name] = toolEntry{def: Definition{Name: name, Description: description, Schema: schema}, fn: fn}
	r.order = append(r.order, name)
}

// Definitions returns the tool catalogue in fixed registration order, for
// inclusion in every request to the LLM.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// Execute dispatches a single tool invocation by name. An unknown tool
// name is itself a protocol-layer concern: the caller should treat it
// as malformed model output, not retry it as a tool error.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (Result, error) {
	entry, ok := r.entries[name]
	if !ok {
		return Result{}, fmt.Errorf("unknown tool %q", name)
	}
	return entry.fn(ctx, input), nil
}

// IsReadOnly reports whether name never mutates the workspace or
// tracker. Read-only tools are safe to reorder or parallelize by a
// caller that chooses to. The Conversation Driver itself does not: it
// runs every tool_use strictly left-to-right within one assistant turn.
func IsReadOnly(name string) bool {
	switch name {
	case "read_file", "list_files", "code_search":
		return true
	default:
		return false
	}
}
