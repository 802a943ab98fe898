// Package pokeapi provides a retrying client for the PokeAPI upstream.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pokearena/pokearena/internal/jitter"
)

// ErrNotFound signals that the upstream has no data for the identifier,
// either a terminal 404 or retry exhaustion.
var ErrNotFound = errors.New("pokemon not found upstream")

// ErrMalformedPayload signals a 200 response whose body is missing required
// fields. It is a failed attempt, eligible for retry.
var ErrMalformedPayload = errors.New("malformed upstream payload")

// DefaultRetryDelays is the base backoff schedule between attempts.
// One attempt is made per entry.
var DefaultRetryDelays = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	8 * time.Second,
	21 * time.Second,
	55 * time.Second,
}

// ClientConfig holds PokeAPI client configuration.
type ClientConfig struct {
	BaseURL     string
	MirrorURL   string          // optional, takes precedence over BaseURL when set
	HTTPClient  *http.Client    // optional, shared transport reused across calls
	RetryDelays []time.Duration // optional, defaults to DefaultRetryDelays
	Jitter      *jitter.Policy  // optional, defaults to the balanced strategy
}

// Client fetches Pokemon data from PokeAPI with retry and jittered backoff.
// Safe for concurrent use; the underlying http.Client pools connections.
type Client struct {
	baseURL     string
	mirrorURL   string
	client      *http.Client
	retryDelays []time.Duration
	jitter      *jitter.Policy
	log         zerolog.Logger
}

// NewClient creates a new PokeAPI client.
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://pokeapi.co/api/v2/pokemon"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.RetryDelays == nil {
		cfg.RetryDelays = DefaultRetryDelays
	}
	if cfg.Jitter == nil {
		cfg.Jitter = jitter.New(jitter.Balanced)
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		mirrorURL:   cfg.MirrorURL,
		client:      cfg.HTTPClient,
		retryDelays: cfg.RetryDelays,
		jitter:      cfg.Jitter,
		log:         log.With().Str("client", "pokeapi").Logger(),
	}
}

// FetchBattleData fetches a Pokemon by id or name and normalizes the payload
// into BattleData. Returns ErrNotFound on a 404 or after exhausting retries.
func (c *Client) FetchBattleData(ctx context.Context, pokemonID string) (*BattleData, error) {
	_, data, err := c.fetch(ctx, pokemonID, true)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// FetchRaw fetches the full upstream payload without normalization.
// Used by the mirror endpoint.
func (c *Client) FetchRaw(ctx context.Context, pokemonID string) (json.RawMessage, error) {
	payload, _, err := c.fetch(ctx, pokemonID, false)
	return payload, err
}

// fetch performs the retry loop. One attempt per retry delay entry; a 404 is
// terminal, any other failure (transport, HTTP error status, malformed body)
// waits out the jittered delay for that attempt and tries again. Exhaustion
// is reported as ErrNotFound, never as a fault.
func (c *Client) fetch(ctx context.Context, pokemonID string, normalize bool) (json.RawMessage, *BattleData, error) {
	url := c.requestURL(pokemonID)

	for attempt, baseDelay := range c.retryDelays {
		payload, data, err := c.attempt(ctx, url, normalize)
		if err == nil {
			return payload, data, nil
		}
		if errors.Is(err, ErrNotFound) {
			c.log.Info().Str("pokemon_id", pokemonID).Msg("Pokemon not found upstream")
			return nil, nil, ErrNotFound
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		// Last attempt: nothing left to wait for.
		if attempt == len(c.retryDelays)-1 {
			break
		}

		delay := c.jitter.Delay(baseDelay)
		c.log.Warn().
			Err(err).
			Str("pokemon_id", pokemonID).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Fetch failed, retrying after delay")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.log.Error().
		Str("pokemon_id", pokemonID).
		Int("attempts", len(c.retryDelays)).
		Msg("Max attempts reached, failed to fetch Pokemon data")

	return nil, nil, ErrNotFound
}

// attempt performs a single GET. When normalize is set, extraction runs as
// part of the attempt so a malformed body fails this attempt.
func (c *Client) attempt(ctx context.Context, url string, normalize bool) (json.RawMessage, *BattleData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if !normalize {
			return body, nil, nil
		}
		data, err := ExtractBattleData(body)
		if err != nil {
			return nil, nil, err
		}
		return body, data, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, nil, ErrNotFound

	default:
		return nil, nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
}

func (c *Client) requestURL(pokemonID string) string {
	base := c.baseURL
	if c.mirrorURL != "" {
		base = c.mirrorURL
	}
	return fmt.Sprintf("%s/%s/", base, pokemonID)
}
