package core

import (
	"context"
	"testing"
)

type stubIntegration struct {
	id      string
	result  map[string]any
	err     error
	calls   int
	lastOp  string
	lastArg map[string]any
}

func (s *stubIntegration) ID() string           { return s.id }
func (s *stubIntegration) Operations() []string { return []string{"noop"} }

func (s *stubIntegration) Execute(_ context.Context, operation string, params map[string]any) (map[string]any, error) {
	s.calls++
	s.lastOp = operation
	s.lastArg = params
	return s.result, s.err
}

func (s *stubIntegration) HandleWebhook(context.Context, map[string]any) (map[string]any, error) {
	return map[string]any{"received": true}, nil
}

func TestIntegrationRegistry_RegisterAndGet(t *testing.T) {
	registry := NewIntegrationRegistry()

	if err := registry.Register(&stubIntegration{id: "clockify"}); err != nil {
		t.Fatalf("register clockify: %v", err)
	}
	if err := registry.Register(&stubIntegration{id: "slack"}); err != nil {
		t.Fatalf("register slack: %v", err)
	}

	if _, ok := registry.Get("clockify"); !ok {
		t.Fatalf("expected clockify to be registered")
	}
	if _, ok := registry.Get("github"); ok {
		t.Fatalf("expected github to be unknown")
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "clockify" || names[1] != "slack" {
		t.Fatalf("expected sorted names [clockify slack], got %v", names)
	}
}

func TestIntegrationRegistry_RejectsDuplicatesAndEmptyIDs(t *testing.T) {
	registry := NewIntegrationRegistry()

	if err := registry.Register(&stubIntegration{id: "slack"}); err != nil {
		t.Fatalf("register slack: %v", err)
	}
	if err := registry.Register(&stubIntegration{id: "slack"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register(&stubIntegration{id: "  "}); err == nil {
		t.Fatalf("expected empty id registration to fail")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil integration registration to fail")
	}
}
