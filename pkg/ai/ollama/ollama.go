// Package ollama implements ai.Client against a locally hosted Ollama
// server, used as the last link of the provider chain.
package ollama

import (
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Client wraps an Ollama server.
type Client struct {
	model string

	api *api.Client
}

// NewClientParams configures a Client. BaseURL is the Ollama server address.
type NewClientParams struct {
	Model   string
	BaseURL string
}

func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		model: params.Model,
		api:   api.NewClient(u, http.DefaultClient),
	}, nil
}

func (c *Client) Name() string {
	return "ollama"
}
