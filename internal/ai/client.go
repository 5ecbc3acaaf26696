package ai

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

// Client talks to a local OpenAI-compatible service, such as Ollama, that can play the witness.
type Client struct {
	client  *openai.Client
	service models.Service
	logger  *slog.Logger
}

// NewClient creates a client for the service named name at baseURL, e.g. http://localhost:11434/v1.
// token may be empty for services that do not authenticate. A nil httpClient uses [http.DefaultClient].
func NewClient(name, baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	config := openai.DefaultConfig(token)
	config.BaseURL = strings.TrimSuffix(baseURL, "/")
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		service: models.Service{
			Name:     name,
			APIStyle: "openai",
			Type:     "local",
			URL:      config.BaseURL,
			Token:    "",
			Active:   true,
		},
		logger: logger.With("source", "ai"),
	}
}

// Service describes the backing service. The token is never exposed.
func (c *Client) Service() models.Service {
	return c.service
}

// ListModels returns the models served locally, ordered by name.
func (c *Client) ListModels(ctx context.Context) ([]models.Model, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list local models", slog.String("url", c.service.URL))
	}
	result := make([]models.Model, 0, len(list.Models))
	for _, m := range list.Models {
		result = append(result, models.Model{
			Name:       m.ID,
			Service:    c.service.Name,
			Visual:     false,
			Allowed:    true,
			Historical: false,
		})
	}
	slices.SortFunc(result, func(a, b models.Model) int { return strings.Compare(a.Name, b.Name) })
	c.logger.LogAttrs(ctx, slog.LevelDebug, "listed local models", slog.Int("count", len(result)))
	return result, nil
}
