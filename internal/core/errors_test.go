package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_WrapAndMatch(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ErrIO("WRITE_FAILED", "writing session").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	var domErr *DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("expected DomainError via As")
	}
	if domErr.Category != ErrCatIO {
		t.Fatalf("category = %s, want io", domErr.Category)
	}
}

func TestDomainError_IsByCategoryAndCode(t *testing.T) {
	a := ErrValidation(CodeEmptyPath, "path must not be empty")
	b := ErrValidation(CodeEmptyPath, "different message")
	if !errors.Is(a, b) {
		t.Fatalf("errors with same category and code must match")
	}
	c := ErrValidation(CodeUnsafePath, "traversal")
	if errors.Is(a, c) {
		t.Fatalf("errors with different codes must not match")
	}
}

func TestDomainError_Categories(t *testing.T) {
	if GetCategory(ErrBackend("TIMEOUT", "llm timed out")) != ErrCatBackend {
		t.Fatalf("backend constructor category mismatch")
	}
	if GetCategory(ErrParse("bad choice")) != ErrCatParse {
		t.Fatalf("parse constructor category mismatch")
	}
	if GetCategory(ErrCancelled("user stop")) != ErrCatCancellation {
		t.Fatalf("cancellation constructor category mismatch")
	}
	if GetCategory(ErrCorruption("/tmp/x.json", "bad json")) != ErrCatCorruption {
		t.Fatalf("corruption constructor category mismatch")
	}
	if GetCategory(fmt.Errorf("plain")) != ErrCatInternal {
		t.Fatalf("plain errors default to internal")
	}
}

func TestDomainError_Retryable(t *testing.T) {
	if !IsRetryable(ErrBackend("TIMEOUT", "x")) {
		t.Fatalf("backend errors are retryable")
	}
	if IsRetryable(ErrValidation("X", "y")) {
		t.Fatalf("validation errors are not retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Fatalf("plain errors are not retryable")
	}
}

func TestDomainError_Detail(t *testing.T) {
	err := ErrParse("nope").WithDetail("raw", "garbage")
	if err.Details["raw"] != "garbage" {
		t.Fatalf("detail not recorded")
	}
}
