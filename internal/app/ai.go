// Package app holds wiring shared by the CLI, server, and worker binaries.
package app

import (
	"fmt"

	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/ai/ollama"
	"github.com/Rithanya654/Generic-RAG/pkg/ai/openai"
)

// NewAIChain builds the failover chain from the configured providers, in
// order, with the configured per-attempt deadline and completion cap. A
// config without any provider still returns a chain; it fails on first use,
// which only matters for runs that actually call a model.
func NewAIChain(cfg *config.Config) (ai.Client, error) {
	clients := make([]ai.Client, 0, len(cfg.Providers))

	for i, p := range cfg.Providers {
		switch p.Type {
		case config.ProviderOpenAI:
			name := "openai"
			if i > 0 {
				name = fmt.Sprintf("openai-fallback-%d", i)
			}
			clients = append(clients, openai.NewClient(openai.NewClientParams{
				Name:    name,
				Model:   p.Model,
				BaseURL: p.BaseURL,
				APIKey:  p.APIKey,
			}))
		case config.ProviderOllama:
			client, err := ollama.NewClient(ollama.NewClientParams{
				Model:   p.Model,
				BaseURL: p.BaseURL,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create ollama client: %w", err)
			}
			clients = append(clients, client)
		default:
			return nil, fmt.Errorf("unknown provider type %q", p.Type)
		}
	}

	return ai.NewChain(ai.NewChainParams{
		Clients:        clients,
		RequestTimeout: cfg.RequestTimeout,
		MaxTokens:      cfg.MaxCompletionTokens,
	}), nil
}
