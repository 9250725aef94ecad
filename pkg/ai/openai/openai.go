// Package openai implements ai.Client against any OpenAI-compatible chat
// completion endpoint. The base URL override covers hosted compatibles
// (Groq and similar) next to api.openai.com itself.
package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client wraps an OpenAI-compatible chat endpoint.
type Client struct {
	name    string
	model   string
	baseURL string

	chat *openai.Client
}

// NewClientParams configures a Client. BaseURL is optional; empty means the
// official OpenAI endpoint.
type NewClientParams struct {
	Name    string
	Model   string
	BaseURL string
	APIKey  string
}

func NewClient(params NewClientParams) *Client {
	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}

	chat := openai.NewClient(options...)

	name := params.Name
	if name == "" {
		name = "openai"
	}

	return &Client{
		name:    name,
		model:   params.Model,
		baseURL: params.BaseURL,
		chat:    &chat,
	}
}

func (c *Client) Name() string {
	return c.name
}
