package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flacial/chattmpl/internal/log"
)

const (
	DefaultEndpoint = "https://huggingface.co"
	DefaultRevision = "main"
	DefaultTimeout  = 30 * time.Second

	tokenizerConfigFile = "tokenizer_config.json"
	// Tokenizer configs are small; anything larger is not one.
	maxConfigBytes = 16 << 20
)

var ErrNotFound = errors.New("file not found on hub")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads files from a Hugging Face compatible hub.
type Client struct {
	Token      string
	HTTPClient HTTPClient
	Endpoint   string
}

func NewClient(token string, client HTTPClient, endpoint string) *Client {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		Token:      token,
		HTTPClient: client,
		Endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

// FileURL builds the resolve URL for a file in repo at revision.
func (c *Client) FileURL(repo, revision, file string) string {
	if revision == "" {
		revision = DefaultRevision
	}
	return fmt.Sprintf("%s/%s/resolve/%s/%s", c.Endpoint, repo, url.PathEscape(revision), file)
}

// FetchTokenizerConfig downloads tokenizer_config.json for repo.
func (c *Client) FetchTokenizerConfig(ctx context.Context, repo, revision string) ([]byte, error) {
	if err := validateRepo(repo); err != nil {
		return nil, err
	}
	return c.fetch(ctx, c.FileURL(repo, revision, tokenizerConfigFile))
}

func (c *Client) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	log.Logger.Debug().Str("url", fileURL).Msg("Fetching file from hub.")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		log.Logger.Error().Err(err).Msg("Failed to create HTTP request.")
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Logger.Info().Msg("HTTP request cancelled by context.")
			return nil, context.Canceled
		}
		log.Logger.Error().Err(err).Msg("Error sending request to hub.")
		return nil, fmt.Errorf("error sending request to hub: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Logger.Error().Err(err).Msg("Failed to close response body.")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileURL)
	case resp.StatusCode != http.StatusOK:
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Logger.Error().
			Int("status_code", resp.StatusCode).
			Bytes("response_body", bodyBytes).
			Msg("Hub returned non-OK status.")
		return nil, fmt.Errorf("hub returned non-OK status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes))
	if err != nil {
		log.Logger.Error().Err(err).Msg("Error reading hub response.")
		return nil, fmt.Errorf("error reading hub response: %w", err)
	}

	log.Logger.Debug().Int("bytes", len(body)).Msg("Successfully fetched file from hub.")
	return body, nil
}

// validateRepo accepts "owner/name" repository ids.
func validateRepo(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid repository id %q: want owner/name", repo)
	}
	return nil
}
