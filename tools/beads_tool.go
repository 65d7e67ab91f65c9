package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lowkaihon/beads-harness/tracker"
)

const beadsDescription = "Interact with the work item tracker: ready, show, update, close, sync."

var beadsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["ready", "show", "update", "close", "sync"]},
		"task_id": {"type": "string"},
		"status": {"type": "string", "enum": ["open", "in_progress", "closed"]},
		"reason": {"type": "string"}
	},
	"required": ["action"]
}`)

type beadsInput struct {
	Action string `json:"action"`
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func newBeadsTool(client *tracker.Client) Func {
	return func(ctx context.Context, input json.RawMessage) Result {
		params, err := parseInput[beadsInput](input)
		if err != nil {
			return Err("%v", err)
		}
		switch params.Action {
		case "ready":
			items, err := client.Ready(ctx)
			if err != nil {
				return Err("%v", err)
			}
			data, _ := json.Marshal(items)
			return Ok(string(data))

		case "show":
			if params.TaskID == "" {
				return Err("task_id is required for action=show")
			}
			item, err := client.Show(ctx, params.TaskID)
			if err != nil {
				return Err("%v", err)
			}
			data, _ := json.Marshal(item)
			return Ok(string(data))

		case "update":
			if params.TaskID == "" || params.Status == "" {
				return Err("task_id and status are required for action=update")
			}
			if err := client.Update(ctx, params.TaskID, tracker.Status(params.Status)); err != nil {
				return Err("%v", err)
			}
			return Ok(fmt.Sprintf("%s set to %s", params.TaskID, params.Status))

		case "close":
			if params.TaskID == "" {
				return Err("task_id is required for action=close")
			}
			if err := client.Close(ctx, params.TaskID, params.Reason); err != nil {
				return Err("%v", err)
			}
			return Ok(fmt.Sprintf("%s closed", params.TaskID))

		case "sync":
			if err := client.Sync(ctx); err != nil {
				return Err("%v", err)
			}
			return Ok("synced")

		default:
			return Err("unknown action %q", params.Action)
		}
	}
}
