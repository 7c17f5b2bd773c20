package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/media"
)

// Registry manages registered providers and their health statuses
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	byType    map[media.MediaType][]Provider
	statuses  map[string]*ProviderStatus
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		byType:    make(map[media.MediaType][]Provider),
		statuses:  make(map[string]*ProviderStatus),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("cannot register nil provider")
	}

	name := provider.Name()
	if name == "" {
		return fmt.Errorf("provider must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Check if already registered
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s is already registered", name)
	}

	r.providers[name] = provider
	r.order = append(r.order, name)

	r.statuses[name] = &ProviderStatus{
		ProviderName: name,
		Status:       "Pending",
	}

	for _, t := range provider.MediaTypes() {
		r.byType[t] = append(r.byType[t], provider)
	}

	return nil
}

// Unregister removes a provider from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provider, exists := r.providers[name]
	if !exists {
		return fmt.Errorf("provider %s is not registered", name)
	}

	delete(r.providers, name)
	delete(r.statuses, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for _, t := range provider.MediaTypes() {
		r.byType[t] = removeProvider(r.byType[t], provider)
	}

	return nil
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return provider, nil
}

// GetByType returns all providers that support the given media type
func (r *Registry) GetByType(mediaType media.MediaType) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := r.byType[mediaType]
	// Return a copy to prevent external modification
	result := make([]Provider, len(providers))
	copy(result, providers)
	return result
}

// ForType returns the first registered provider serving mediaType
func (r *Registry) ForType(mediaType media.MediaType) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := r.byType[mediaType]
	if len(providers) == 0 {
		return nil, fmt.Errorf("no provider registered for %s", mediaType)
	}
	return providers[0], nil
}

// GetAll returns all registered providers in registration order
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.providers[name])
	}
	return result
}

// List returns the names of all registered providers
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Clear removes all providers from the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[string]Provider)
	r.order = nil
	r.byType = make(map[media.MediaType][]Provider)
	r.statuses = make(map[string]*ProviderStatus)
}

// formatCurlCommand generates a curl command for debugging.
// Credentials are replaced with a shell variable.
func formatCurlCommand(url string, headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("curl -v ")
	for _, k := range keys {
		v := headers[k]
		if strings.EqualFold(k, "Authorization") {
			v = "$PEXELS_API_KEY"
		}
		fmt.Fprintf(&b, "-H '%s: %s' ", k, v)
	}
	fmt.Fprintf(&b, "'%s'", url)
	return b.String()
}

// CheckAllProviders runs a health check on all registered providers concurrently.
func (r *Registry) CheckAllProviders(ctx context.Context) {
	providers := r.GetAll()
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(provider Provider) {
			defer wg.Done()
			name := provider.Name()

			r.setStatus(name, func(s *ProviderStatus) {
				s.Status = "Checking..."
				s.LastCheck = time.Now()
			})

			healthURL := "unknown"
			if he, ok := provider.(HealthEndpoint); ok {
				healthURL = he.HealthURL()
			}

			checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			startTime := time.Now()
			err := provider.HealthCheck(checkCtx)
			duration := time.Since(startTime)

			result := &HealthCheckResult{
				URL:         healthURL,
				CurlCommand: formatCurlCommand(healthURL, map[string]string{"Authorization": ""}),
				Duration:    duration,
				CheckedAt:   time.Now(),
			}

			r.setStatus(name, func(s *ProviderStatus) {
				if err != nil {
					s.Healthy = false
					s.Status = fmt.Sprintf("Offline: %v", err)
					result.Error = err.Error()
					var fe *media.FetchError
					if errors.As(err, &fe) {
						result.StatusCode = fe.StatusCode
					}
				} else {
					s.Healthy = true
					s.Status = "Online"
					result.StatusCode = 200
				}
				s.LastCheck = time.Now()
				s.LastResult = result
			})
		}(p)
	}

	wg.Wait()
}

// setStatus mutates a status under the write lock; unknown names are ignored
// so a provider unregistered mid-check does not panic
func (r *Registry) setStatus(name string, fn func(*ProviderStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.statuses[name]; ok {
		fn(s)
	}
}

// GetProviderStatuses returns a copy of the health status of all registered providers.
func (r *Registry) GetProviderStatuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.statuses))
	for _, status := range r.statuses {
		statuses = append(statuses, *status)
	}
	// Sort for consistent ordering
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ProviderName < statuses[j].ProviderName
	})
	return statuses
}

// Configurable is an interface for providers that can be configured at runtime
type Configurable interface {
	SetConfig(cfg *config.Config, logger *slog.Logger)
}

// ConfigureAll configures all registered providers that implement the Configurable interface
func (r *Registry) ConfigureAll(cfg *config.Config, logger *slog.Logger) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, provider := range r.providers {
		if configurable, ok := provider.(Configurable); ok {
			configurable.SetConfig(cfg, logger)
		}
	}
}

// Helper function to remove a provider from a slice
func removeProvider(providers []Provider, target Provider) []Provider {
	result := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Name() != target.Name() {
			result = append(result, p)
		}
	}
	return result
}
