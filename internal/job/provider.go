package job

import "context"

// Provider is the capability a remote generation service exposes to the
// core. Implementations classify errors with services.ErrTransient or
// services.ErrTerminal; unmarked poll errors are treated as transient.
type Provider interface {
	Name() string
	Submit(ctx context.Context, spec Spec) (Handle, error)
	Poll(ctx context.Context, handle Handle) (Observation, error)
	// Fetch writes the artifact described by a succeeded observation to dest.
	Fetch(ctx context.Context, obs Observation, dest string) error
}

// Runner executes one spec to a terminal status, writing the artifact to dest.
// Poller is the production implementation; batch and chain depend only on
// this interface.
type Runner interface {
	Run(ctx context.Context, spec Spec, dest string) Status
}

// Registry resolves providers by kind. A missing entry is a normal outcome
// callers must handle.
type Registry struct {
	providers map[Kind]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Kind]Provider)}
}

// Register binds a provider to a kind. A nil provider removes the binding.
func (r *Registry) Register(kind Kind, provider Provider) {
	if provider == nil {
		delete(r.providers, kind)
		return
	}
	r.providers[kind] = provider
}

// Lookup returns the provider for kind, if configured.
func (r *Registry) Lookup(kind Kind) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[kind]
	return p, ok
}
