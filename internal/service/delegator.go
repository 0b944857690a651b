package service

import (
	"context"

	"github.com/cadenroberts/ollamabot/internal/agent"
	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/logging"
	"github.com/cadenroberts/ollamabot/internal/model"
	"github.com/cadenroberts/ollamabot/internal/ollama"
)

// Backend is the slice of the Ollama client the delegator needs.
type Backend interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.Response, error)
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.Response, error)
}

// ModelDelegator routes agent delegations through the coordinator to
// the backend. It implements agent.Delegator.
type ModelDelegator struct {
	coordinator *model.Coordinator
	backend     Backend
	logger      *logging.Logger
	onTokens    func(int64)
}

// NewModelDelegator creates a delegator. onTokens, when non-nil,
// receives the token usage of every round trip.
func NewModelDelegator(coordinator *model.Coordinator, backend Backend, logger *logging.Logger, onTokens func(int64)) *ModelDelegator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ModelDelegator{
		coordinator: coordinator,
		backend:     backend,
		logger:      logger,
		onTokens:    onTokens,
	}
}

// Delegate implements agent.Delegator.
func (d *ModelDelegator) Delegate(ctx context.Context, req agent.DelegateRequest) (agent.DelegateResult, error) {
	modelID, err := d.coordinator.SelectForRole(req.Role)
	if err != nil {
		return agent.DelegateResult{}, err
	}

	messages := []ollama.Message{}
	if req.SystemPrompt != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: req.SystemPrompt})
	}
	content := req.Task
	if req.Context != "" {
		content = req.Context + "\n\n" + req.Task
	}
	userMsg := ollama.Message{Role: "user", Content: content}
	if len(req.Images) > 0 {
		userMsg.Images = req.Images
	}
	messages = append(messages, userMsg)

	resp, err := d.backend.Chat(ctx, ollama.ChatRequest{Model: modelID, Messages: messages})
	if err != nil {
		if ctx.Err() != nil {
			return agent.DelegateResult{}, core.ErrCancelled("delegation interrupted").WithCause(ctx.Err())
		}
		return agent.DelegateResult{}, err
	}

	if d.onTokens != nil {
		d.onTokens(int64(resp.Stats.TotalTokens))
	}
	d.logger.Debug("delegation complete",
		"role", string(req.Role), "model", modelID, "tokens", resp.Stats.TotalTokens)

	return agent.DelegateResult{
		Output: resp.Content,
		Model:  modelID,
		Tokens: resp.Stats.TotalTokens,
	}, nil
}

// Advise implements orchestrator.Adviser on top of the orchestrator
// role's model, single-turn.
func (d *ModelDelegator) Advise(ctx context.Context, prompt string) (string, error) {
	modelID, err := d.coordinator.SelectForRole(core.RoleOrchestrator)
	if err != nil {
		return "", err
	}
	resp, err := d.backend.Generate(ctx, ollama.GenerateRequest{Model: modelID, Prompt: prompt})
	if err != nil {
		if ctx.Err() != nil {
			return "", core.ErrCancelled("advice interrupted").WithCause(ctx.Err())
		}
		return "", err
	}
	if d.onTokens != nil {
		d.onTokens(int64(resp.Stats.TotalTokens))
	}
	return resp.Content, nil
}
