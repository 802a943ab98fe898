// Package pokedex ties the cache and the PokeAPI client together with
// cache-aside semantics: check the cache first, fetch and populate on miss.
package pokedex

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pokearena/pokearena/internal/cache"
	"github.com/pokearena/pokearena/internal/pokeapi"
)

// ErrNotFound signals that the Pokemon exists in neither the cache nor the
// upstream source.
var ErrNotFound = errors.New("pokemon not found")

// CacheTTL is how long a fetched Pokemon stays in the cache.
const CacheTTL = 3600 * time.Second

// Fetcher is the upstream client capability the service needs.
type Fetcher interface {
	FetchBattleData(ctx context.Context, pokemonID string) (*pokeapi.BattleData, error)
}

// Service provides cached Pokemon lookups.
type Service struct {
	store  cache.Store
	client Fetcher
	ttl    time.Duration
	log    zerolog.Logger
}

// NewService creates a new pokedex service.
func NewService(store cache.Store, client Fetcher, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		ttl:    CacheTTL,
		log:    log.With().Str("service", "pokedex").Logger(),
	}
}

// GetPokemon returns battle data for a Pokemon id or name. Textual ids are
// lowercased before lookup. Cache failures are logged and treated as misses;
// the cache never faults a lookup. Misses are not cached.
//
// Two concurrent callers missing on the same key may both fetch and both
// write; that is acceptable because writes are idempotent and the upstream is
// read-only per id.
func (s *Service) GetPokemon(ctx context.Context, pokemonID string) (*pokeapi.BattleData, error) {
	pokemonID = strings.ToLower(pokemonID)

	if raw, err := s.store.Get(ctx, pokemonID); err != nil {
		s.log.Warn().Err(err).Str("pokemon_id", pokemonID).Msg("Cache read failed, treating as miss")
	} else if raw != nil {
		var data pokeapi.BattleData
		if err := json.Unmarshal(raw, &data); err != nil {
			s.log.Warn().Err(err).Str("pokemon_id", pokemonID).Msg("Undecodable cache entry, treating as miss")
		} else {
			s.log.Debug().Str("pokemon_id", pokemonID).Msg("Cache hit")
			return &data, nil
		}
	}

	data, err := s.client.FetchBattleData(ctx, pokemonID)
	if err != nil {
		if errors.Is(err, pokeapi.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.store.Set(ctx, pokemonID, data, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("pokemon_id", pokemonID).Msg("Failed to cache Pokemon data")
	}

	s.log.Info().Str("pokemon_id", pokemonID).Str("name", data.Name).Msg("Fetched Pokemon from upstream")

	return data, nil
}
