package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/events"
)

// DelegateRequest is a structured delegation to a role-specific model.
// The legacy form is a bare task string; ParseDelegateRequest accepts
// both and always yields the structured variant.
type DelegateRequest struct {
	Role         core.ModelRole `json:"role"`
	Task         string         `json:"task"`
	Context      string         `json:"context,omitempty"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	Images       []string       `json:"images,omitempty"`
}

// DelegateResult is the outcome of a delegation round trip.
type DelegateResult struct {
	Output string
	Model  string
	Tokens int
}

// ParseDelegateRequest accepts either a bare task string or a JSON
// object with role/task/context fields. A bare string delegates to the
// researcher.
func ParseDelegateRequest(input string) DelegateRequest {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") {
		var req DelegateRequest
		if err := json.Unmarshal([]byte(trimmed), &req); err == nil && req.Task != "" {
			if req.Role == "" {
				req.Role = core.RoleResearcher
			}
			return req
		}
	}
	return DelegateRequest{Role: core.RoleResearcher, Task: input}
}

// Delegate routes a structured request to the delegator and records the
// round trip as an action.
func (a *Agent) Delegate(ctx context.Context, req DelegateRequest) (*core.Action, error) {
	if req.Role == "" {
		req.Role = core.RoleResearcher
	}
	action := core.NewAction("", core.ActionDelegate, a.now())
	action.Content = req.Task
	action.Metadata["delegation_role"] = string(req.Role)
	return a.dispatch(ctx, action, func(ctx context.Context) error {
		if a.delegator == nil {
			return core.ErrValidation(core.CodeDelegationFailed, "no delegator configured")
		}
		if !core.ValidRole(req.Role) {
			return core.ErrValidation(core.CodeUnknownRole, "unknown delegation role "+string(req.Role))
		}
		res, err := a.delegator.Delegate(ctx, req)
		if err != nil {
			action.Metadata["delegation_success"] = false
			return err
		}
		action.Output = res.Output
		action.Metadata["delegation_success"] = true
		action.Metadata["delegation_tokens"] = res.Tokens
		if res.Model != "" {
			action.Metadata[core.MetaModel] = res.Model
		}
		if a.bus != nil {
			a.bus.Publish(events.NewDelegationDoneEvent(a.sessionID, string(req.Role), res.Model, res.Tokens))
		}
		return nil
	})
}

// DelegateToCoder delegates a task to the coder model.
func (a *Agent) DelegateToCoder(ctx context.Context, task, taskContext string) (*core.Action, error) {
	return a.Delegate(ctx, DelegateRequest{Role: core.RoleCoder, Task: task, Context: taskContext})
}

// DelegateToResearcher delegates a task to the researcher model.
func (a *Agent) DelegateToResearcher(ctx context.Context, task, taskContext string) (*core.Action, error) {
	return a.Delegate(ctx, DelegateRequest{Role: core.RoleResearcher, Task: task, Context: taskContext})
}

// DelegateToVision delegates an image-analysis task to the vision
// model.
func (a *Agent) DelegateToVision(ctx context.Context, task string, images []string) (*core.Action, error) {
	return a.Delegate(ctx, DelegateRequest{Role: core.RoleVision, Task: task, Images: images})
}
