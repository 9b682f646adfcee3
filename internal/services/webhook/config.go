// File: internal/services/webhook/config.go
package webhook

import (
	"fmt"
	"time"

	"github.com/iyunix/fios-chat/internal/config"
	"github.com/iyunix/fios-chat/internal/domain"
)

const (
	ProviderWebhook = "webhook"
	ProviderOpenAI  = "openai"

	defaultOpenAIModel = "gpt-4o-mini"
)

// EndpointConfig describes where replies for one category come from.
type EndpointConfig struct {
	URL         string
	Enabled     bool
	DisplayName string
	Provider    string // ProviderWebhook when empty
	Model       string // only used by ProviderOpenAI
}

func (e EndpointConfig) Validate() error {
	if !e.Enabled {
		return nil
	}
	switch e.provider() {
	case ProviderWebhook:
		if e.URL == "" {
			return fmt.Errorf("enabled webhook endpoint %q has no url", e.DisplayName)
		}
	case ProviderOpenAI:
	default:
		return fmt.Errorf("endpoint %q has unknown provider %q", e.DisplayName, e.Provider)
	}
	return nil
}

func (e EndpointConfig) provider() string {
	if e.Provider == "" {
		return ProviderWebhook
	}
	return e.Provider
}

// DefaultEndpoints is the built-in category table. Only finance has a live
// webhook; the other areas answer with the canned reply.
func DefaultEndpoints() map[domain.Category]EndpointConfig {
	return map[domain.Category]EndpointConfig{
		domain.CategoryFinance: {
			URL:         "https://api-n8n.fios.net.br/webhook/330d0161-65a4-4e78-b977-739773d812cc",
			Enabled:     true,
			DisplayName: "Financeiro",
		},
		domain.CategorySupport: {DisplayName: "Suporte Técnico"},
		domain.CategorySales:   {DisplayName: "Comercial"},
		domain.CategoryInfra:   {DisplayName: "Infraestrutura"},
	}
}

// EndpointsFromConfig applies env/YAML overrides on top of DefaultEndpoints.
func EndpointsFromConfig(overrides map[domain.Category]config.WebhookOverride) map[domain.Category]EndpointConfig {
	endpoints := DefaultEndpoints()
	for category, o := range overrides {
		e := endpoints[category]
		if o.URL != nil {
			e.URL = *o.URL
		}
		if o.Enabled != nil {
			e.Enabled = *o.Enabled
		}
		if o.DisplayName != nil {
			e.DisplayName = *o.DisplayName
		}
		if o.Provider != nil {
			e.Provider = *o.Provider
		}
		if o.Model != nil {
			e.Model = *o.Model
		}
		if e.DisplayName == "" {
			e.DisplayName = string(category)
		}
		endpoints[category] = e
	}
	return endpoints
}

// ClientConfig configures the outbound transports.
type ClientConfig struct {
	Timeout      time.Duration // 0 leaves the transport default (no timeout)
	OpenAIAPIKey string
}
