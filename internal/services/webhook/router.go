package webhook

import "github.com/iyunix/fios-chat/internal/domain"

// Router is the immutable category → endpoint table. It never touches the
// network; the dispatcher decides what to do with the resolved config.
type Router struct {
	endpoints map[domain.Category]EndpointConfig
}

// NewRouter copies endpoints, so later changes to the map have no effect.
func NewRouter(endpoints map[domain.Category]EndpointConfig) *Router {
	copied := make(map[domain.Category]EndpointConfig, len(endpoints))
	for k, v := range endpoints {
		copied[k] = v
	}
	return &Router{endpoints: copied}
}

// Resolve returns the endpoint for category. Categories missing from the
// table resolve to a disabled endpoint named after the raw category.
func (r *Router) Resolve(category domain.Category) EndpointConfig {
	if e, ok := r.endpoints[category]; ok {
		return e
	}
	return EndpointConfig{DisplayName: string(category)}
}

func (r *Router) DisplayName(category domain.Category) string {
	return r.Resolve(category).DisplayName
}

// Endpoints returns a copy of the whole table.
func (r *Router) Endpoints() map[domain.Category]EndpointConfig {
	out := make(map[domain.Category]EndpointConfig, len(r.endpoints))
	for k, v := range r.endpoints {
		out[k] = v
	}
	return out
}

// Validate checks every enabled endpoint can actually be called.
func (r *Router) Validate() error {
	for _, category := range domain.Categories {
		if err := r.Resolve(category).Validate(); err != nil {
			return err
		}
	}
	return nil
}
