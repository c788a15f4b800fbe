package lambda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// HookFunc is a side-channel task run by a hook invocation
type HookFunc func(ctx context.Context) error

// HookRegistry maps a hook directive's file and hook names to the function
// to run. It is filled at start-up, before the first invocation.
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[string]HookFunc
}

// NewHookRegistry creates an empty registry
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[string]HookFunc)}
}

func hookKey(file, hook string) string {
	return file + "#" + hook
}

// Register adds fn under file and hook
func (r *HookRegistry) Register(file, hook string, fn HookFunc) error {
	if file == "" || hook == "" || fn == nil {
		return newAdapterError("register hook", errors.New("file, hook and function are required"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := hookKey(file, hook)
	if _, exists := r.hooks[key]; exists {
		return newAdapterError("register hook", fmt.Errorf("%w: %s", ErrHookExists, key))
	}
	r.hooks[key] = fn
	return nil
}

// MustRegister is like Register but panics on error
func (r *HookRegistry) MustRegister(file, hook string, fn HookFunc) {
	if err := r.Register(file, hook, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the function registered under file and hook
func (r *HookRegistry) Lookup(file, hook string) (HookFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.hooks[hookKey(file, hook)]
	if !ok {
		return nil, newAdapterError("lookup hook", fmt.Errorf("%w: %s", ErrHookNotFound, hookKey(file, hook)))
	}
	return fn, nil
}

// Names lists the registered hooks as "file#hook", sorted
func (r *HookRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.hooks))
	for key := range r.hooks {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
