package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ProviderFactory func(ctx context.Context, model string) (Provider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds the named provider. An empty model falls back to the provider default.
func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(ctx, model)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type RegistryOptions struct {
	OpenAI        OpenAIOptions
	OllamaBaseURL string
	OllamaModel   string
	Timeout       time.Duration
}

// NewDefaultRegistry registers the "openai" and "ollama" backends.
func NewDefaultRegistry(o RegistryOptions, log *zap.Logger) *Registry {
	r := NewRegistry()
	r.Register("openai", func(_ context.Context, model string) (Provider, error) {
		opts := o.OpenAI
		if model != "" {
			opts.Model = model
		}
		if opts.Timeout == 0 {
			opts.Timeout = o.Timeout
		}
		return NewOpenAIProvider(opts, log)
	})
	r.Register("ollama", func(_ context.Context, model string) (Provider, error) {
		if model == "" {
			model = o.OllamaModel
		}
		return NewOllamaProvider(o.OllamaBaseURL, model, o.Timeout), nil
	})
	return r
}
