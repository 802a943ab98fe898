package pokedex

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokearena/pokearena/internal/cache"
	"github.com/pokearena/pokearena/internal/pokeapi"
)

// fakeFetcher counts upstream calls and serves canned data.
type fakeFetcher struct {
	calls int
	data  map[string]*pokeapi.BattleData
}

func (f *fakeFetcher) FetchBattleData(ctx context.Context, pokemonID string) (*pokeapi.BattleData, error) {
	f.calls++
	if data, ok := f.data[pokemonID]; ok {
		return data, nil
	}
	return nil, pokeapi.ErrNotFound
}

// failingStore simulates an unavailable cache backend.
type failingStore struct{}

func (failingStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return errors.New("backend unavailable")
}

func (failingStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	return nil, errors.New("backend unavailable")
}

func bulbasaur() *pokeapi.BattleData {
	return &pokeapi.BattleData{
		ID:           1,
		Name:         "bulbasaur",
		Stats:        map[string]int{"hp": 45, "attack": 49},
		Abilities:    []string{"overgrow"},
		Types:        []string{"grass"},
		PokemonImage: "https://example.com/bulbasaur.png",
	}
}

func TestGetPokemonMissThenHit(t *testing.T) {
	store := cache.NewMemoryStore()
	fetcher := &fakeFetcher{data: map[string]*pokeapi.BattleData{"bulbasaur": bulbasaur()}}
	svc := NewService(store, fetcher, zerolog.Nop())
	ctx := context.Background()

	// First lookup misses the cache and hits upstream.
	data, err := svc.GetPokemon(ctx, "bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, bulbasaur(), data)
	assert.Equal(t, 1, fetcher.calls)

	// Second lookup is served from the cache, field for field.
	cached, err := svc.GetPokemon(ctx, "bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, data, cached)
	assert.Equal(t, 1, fetcher.calls, "cache hit must not call upstream")
}

func TestGetPokemonLowercasesID(t *testing.T) {
	store := cache.NewMemoryStore()
	fetcher := &fakeFetcher{data: map[string]*pokeapi.BattleData{"bulbasaur": bulbasaur()}}
	svc := NewService(store, fetcher, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.GetPokemon(ctx, "Bulbasaur")
	require.NoError(t, err)

	_, err = svc.GetPokemon(ctx, "BULBASAUR")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "case variants must share one cache entry")
}

func TestGetPokemonNotFoundIsNotCached(t *testing.T) {
	store := cache.NewMemoryStore()
	fetcher := &fakeFetcher{}
	svc := NewService(store, fetcher, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.GetPokemon(ctx, "missingno")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := store.Get(ctx, "missingno")
	require.NoError(t, err)
	assert.Nil(t, raw, "absence must never be cached")

	// A second lookup goes upstream again.
	_, err = svc.GetPokemon(ctx, "missingno")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetPokemonCacheFailureDowngradesToMiss(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*pokeapi.BattleData{"bulbasaur": bulbasaur()}}
	svc := NewService(failingStore{}, fetcher, zerolog.Nop())

	data, err := svc.GetPokemon(context.Background(), "bulbasaur")
	require.NoError(t, err, "cache failures must never fault the lookup")
	assert.Equal(t, "bulbasaur", data.Name)
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetPokemonUndecodableCacheEntryIsAMiss(t *testing.T) {
	store := cache.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "bulbasaur", "not a battle record", time.Hour))

	fetcher := &fakeFetcher{data: map[string]*pokeapi.BattleData{"bulbasaur": bulbasaur()}}
	svc := NewService(store, fetcher, zerolog.Nop())

	data, err := svc.GetPokemon(context.Background(), "bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", data.Name)
	assert.Equal(t, 1, fetcher.calls)
}
