package agent

import (
	"context"
	"testing"

	"github.com/cadenroberts/ollamabot/internal/core"
)

type fakeDelegator struct {
	lastReq DelegateRequest
	result  DelegateResult
	err     error
}

func (d *fakeDelegator) Delegate(_ context.Context, req DelegateRequest) (DelegateResult, error) {
	d.lastReq = req
	return d.result, d.err
}

func TestParseDelegateRequest_BareString(t *testing.T) {
	req := ParseDelegateRequest("summarize the build system")
	if req.Role != core.RoleResearcher {
		t.Fatalf("bare string must default to researcher, got %s", req.Role)
	}
	if req.Task != "summarize the build system" {
		t.Fatalf("task = %q", req.Task)
	}
}

func TestParseDelegateRequest_Structured(t *testing.T) {
	req := ParseDelegateRequest(`{"role":"coder","task":"write a parser","context":"go module"}`)
	if req.Role != core.RoleCoder {
		t.Fatalf("role = %s, want coder", req.Role)
	}
	if req.Context != "go module" {
		t.Fatalf("context = %q", req.Context)
	}
}

func TestParseDelegateRequest_StructuredWithoutRole(t *testing.T) {
	req := ParseDelegateRequest(`{"task":"investigate flaky test"}`)
	if req.Role != core.RoleResearcher {
		t.Fatalf("missing role must default to researcher, got %s", req.Role)
	}
}

func TestParseDelegateRequest_MalformedJSONFallsBackToString(t *testing.T) {
	req := ParseDelegateRequest(`{not json`)
	if req.Role != core.RoleResearcher || req.Task != `{not json` {
		t.Fatalf("malformed JSON must be treated as a bare task: %+v", req)
	}
}

func TestAgent_Delegate(t *testing.T) {
	d := &fakeDelegator{result: DelegateResult{Output: "answer", Model: "m-coder", Tokens: 42}}
	a := newTestAgent(t, WithDelegator(d))
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.DelegateToCoder(ctx, "implement it", "some context")
		if err != nil {
			t.Fatalf("DelegateToCoder: %v", err)
		}
		if action.Output != "answer" {
			t.Fatalf("output = %q", action.Output)
		}
		if action.Metadata["delegation_role"] != "coder" {
			t.Fatalf("delegation_role = %v", action.Metadata["delegation_role"])
		}
		if action.Metadata["delegation_tokens"] != 42 {
			t.Fatalf("delegation_tokens = %v", action.Metadata["delegation_tokens"])
		}
		if action.Metadata["delegation_success"] != true {
			t.Fatalf("delegation_success = %v", action.Metadata["delegation_success"])
		}
		if action.Metadata[core.MetaModel] != "m-coder" {
			t.Fatalf("model metadata = %v", action.Metadata[core.MetaModel])
		}
		if d.lastReq.Role != core.RoleCoder {
			t.Fatalf("delegator saw role %s", d.lastReq.Role)
		}
	})
}

func TestAgent_DelegateFailure(t *testing.T) {
	d := &fakeDelegator{err: core.ErrBackend("TIMEOUT", "model unavailable")}
	a := newTestAgent(t, WithDelegator(d))
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.DelegateToResearcher(ctx, "look this up", "")
		if err == nil {
			t.Fatalf("delegation failure must propagate")
		}
		if action.Metadata["delegation_success"] != false {
			t.Fatalf("delegation_success = %v", action.Metadata["delegation_success"])
		}
		if action.Status() != core.ActionFailed {
			t.Fatalf("failed delegation must be recorded as failed")
		}
	})
}

func TestAgent_DelegateWithoutDelegator(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.Delegate(ctx, DelegateRequest{Task: "x"}); err == nil {
			t.Fatalf("delegation without a delegator must fail")
		}
	})
}

func TestAgent_DelegateToVision(t *testing.T) {
	d := &fakeDelegator{result: DelegateResult{Output: "a diagram", Model: "m-vision"}}
	a := newTestAgent(t, WithDelegator(d))
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.DelegateToVision(ctx, "describe this", []string{"aW1n"}); err != nil {
			t.Fatalf("DelegateToVision: %v", err)
		}
		if d.lastReq.Role != core.RoleVision || len(d.lastReq.Images) != 1 {
			t.Fatalf("vision request = %+v", d.lastReq)
		}
	})
}
