package executor

import (
	"context"
	"fmt"
	"sync"

	api "github.com/sentinelops/autopilot/api/v1"
)

// ActionRequest describes one effect to perform. Handlers are the
// outbound collaborator boundary; the engine treats them as opaque
// capabilities and records their failures instead of crashing.
type ActionRequest struct {
	Type       string
	Target     string
	Parameters map[string]any
}

type Handler func(ctx context.Context, req ActionRequest) (map[string]any, error)

type ActionRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		handlers: make(map[string]Handler),
	}
}

func (r *ActionRegistry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

func (r *ActionRegistry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Execute dispatches one action and contains every failure mode,
// including handler panics, as an error value.
func (r *ActionRegistry) Execute(ctx context.Context, req ActionRequest) (output map[string]any, err error) {
	handler, ok := r.Get(req.Type)
	if !ok {
		return nil, api.ExecutionError{Action: req.Type, Cause: fmt.Errorf("no handler registered")}
	}
	defer func() {
		if rec := recover(); rec != nil {
			output = nil
			err = api.ExecutionError{Action: req.Type, Cause: fmt.Errorf("handler panic: %v", rec)}
		}
	}()
	output, err = handler(ctx, req)
	if err != nil {
		return nil, api.ExecutionError{Action: req.Type, Cause: err}
	}
	return output, nil
}
