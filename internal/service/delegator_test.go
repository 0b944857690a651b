package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenroberts/ollamabot/internal/agent"
	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/model"
	"github.com/cadenroberts/ollamabot/internal/ollama"
)

type scriptedBackend struct {
	lastChat     ollama.ChatRequest
	lastGenerate ollama.GenerateRequest
	chatResp     *ollama.Response
	genResp      *ollama.Response
	err          error
}

func (b *scriptedBackend) Chat(_ context.Context, req ollama.ChatRequest) (*ollama.Response, error) {
	b.lastChat = req
	return b.chatResp, b.err
}

func (b *scriptedBackend) Generate(_ context.Context, req ollama.GenerateRequest) (*ollama.Response, error) {
	b.lastGenerate = req
	return b.genResp, b.err
}

func testCoordinator() *model.Coordinator {
	return model.NewCoordinator(map[core.ModelRole]model.Pool{
		core.RoleOrchestrator: {Primary: "orch-model"},
		core.RoleCoder:        {Primary: "coder-model"},
		core.RoleResearcher:   {Primary: "researcher-model"},
		core.RoleVision:       {Primary: "vision-model"},
	}, model.WithTier(core.TierBalanced))
}

func TestModelDelegator_RoutesRoleToModel(t *testing.T) {
	backend := &scriptedBackend{chatResp: &ollama.Response{
		Content: "result",
		Stats:   ollama.InferenceStats{TotalTokens: 9},
	}}
	var recorded int64
	d := NewModelDelegator(testCoordinator(), backend, nil, func(n int64) { recorded += n })

	res, err := d.Delegate(context.Background(), agent.DelegateRequest{
		Role:         core.RoleResearcher,
		Task:         "find prior art",
		Context:      "repo summary",
		SystemPrompt: "be terse",
	})
	require.NoError(t, err)
	assert.Equal(t, "result", res.Output)
	assert.Equal(t, "researcher-model", res.Model)
	assert.Equal(t, 9, res.Tokens)
	assert.Equal(t, int64(9), recorded)

	require.Len(t, backend.lastChat.Messages, 2)
	assert.Equal(t, "system", backend.lastChat.Messages[0].Role)
	assert.Contains(t, backend.lastChat.Messages[1].Content, "repo summary")
	assert.Contains(t, backend.lastChat.Messages[1].Content, "find prior art")
}

func TestModelDelegator_ImagesPassThrough(t *testing.T) {
	backend := &scriptedBackend{chatResp: &ollama.Response{Content: "a cat"}}
	d := NewModelDelegator(testCoordinator(), backend, nil, nil)

	_, err := d.Delegate(context.Background(), agent.DelegateRequest{
		Role:   core.RoleVision,
		Task:   "describe",
		Images: []string{"aW1n"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vision-model", backend.lastChat.Model)
	require.Len(t, backend.lastChat.Messages, 1)
	assert.Len(t, backend.lastChat.Messages[0].Images, 1)
}

func TestModelDelegator_UnknownRole(t *testing.T) {
	d := NewModelDelegator(testCoordinator(), &scriptedBackend{}, nil, nil)
	_, err := d.Delegate(context.Background(), agent.DelegateRequest{Role: "janitor", Task: "x"})
	require.Error(t, err)
}

func TestModelDelegator_Advise(t *testing.T) {
	backend := &scriptedBackend{genResp: &ollama.Response{
		Content: "PHASE: 2",
		Stats:   ollama.InferenceStats{TotalTokens: 3},
	}}
	d := NewModelDelegator(testCoordinator(), backend, nil, nil)

	out, err := d.Advise(context.Background(), "pick the next phase")
	require.NoError(t, err)
	assert.Equal(t, "PHASE: 2", out)
	assert.Equal(t, "orch-model", backend.lastGenerate.Model)
}

func TestModelDelegator_BackendErrorPropagates(t *testing.T) {
	backend := &scriptedBackend{err: core.ErrBackend("TIMEOUT", "slow")}
	d := NewModelDelegator(testCoordinator(), backend, nil, nil)
	_, err := d.Delegate(context.Background(), agent.DelegateRequest{Role: core.RoleCoder, Task: "x"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatBackend))
}
