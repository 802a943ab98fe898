package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/pokearena/pokearena/internal/battle"
	"github.com/pokearena/pokearena/internal/database"
	"github.com/pokearena/pokearena/internal/pokeapi"
	"github.com/pokearena/pokearena/internal/pokedex"
)

// RawFetcher is the mirror-passthrough capability of the PokeAPI client.
type RawFetcher interface {
	FetchRaw(ctx context.Context, pokemonID string) (json.RawMessage, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	pokedex   *pokedex.Service
	raw       RawFetcher
	simulator *battle.Simulator
	battles   *battle.Repository
	cacheDB   *database.DB // nil unless the SQLite cache backend is active
	battlesDB *database.DB
	log       zerolog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(
	pokedexSvc *pokedex.Service,
	raw RawFetcher,
	simulator *battle.Simulator,
	battles *battle.Repository,
	cacheDB *database.DB,
	battlesDB *database.DB,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		pokedex:   pokedexSvc,
		raw:       raw,
		simulator: simulator,
		battles:   battles,
		cacheDB:   cacheDB,
		battlesDB: battlesDB,
		log:       log.With().Str("handler", "api").Logger(),
	}
}

// pokemonID accepts either a JSON string or integer; textual ids are
// lowercased.
type pokemonID string

func (p *pokemonID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = pokemonID(strings.ToLower(s))
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*p = pokemonID(strconv.Itoa(n))
		return nil
	}
	return fmt.Errorf("pokemon id must be a string or an integer")
}

// HandleGetPokemon handles GET /api/v1/pokemon/{pokemon_id}
func (h *Handlers) HandleGetPokemon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pokemon_id")

	data, err := h.pokedex.GetPokemon(r.Context(), id)
	if err != nil {
		if errors.Is(err, pokedex.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Pokemon with ID %s not found", id))
			return
		}
		h.log.Error().Err(err).Str("pokemon_id", id).Msg("Pokemon lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pokemon_data": data})
}

// HandleGetPokemonRaw handles GET /api/v1/pokemon/{pokemon_id}/raw
// It mirrors the upstream payload without normalization or caching.
func (h *Handlers) HandleGetPokemonRaw(w http.ResponseWriter, r *http.Request) {
	id := strings.ToLower(chi.URLParam(r, "pokemon_id"))

	payload, err := h.raw.FetchRaw(r.Context(), id)
	if err != nil {
		if errors.Is(err, pokeapi.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Pokemon with ID %s not found", id))
			return
		}
		h.log.Error().Err(err).Str("pokemon_id", id).Msg("Mirror fetch failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// battleRequest is the POST /battle body.
type battleRequest struct {
	Pokemon1 pokemonID `json:"pokemon1"`
	Pokemon2 pokemonID `json:"pokemon2"`
}

// HandleCreateBattle handles POST /api/v1/battle
func (h *Handlers) HandleCreateBattle(w http.ResponseWriter, r *http.Request) {
	var req battleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Pokemon1 == "" || req.Pokemon2 == "" {
		writeError(w, http.StatusBadRequest, "pokemon1 and pokemon2 are required")
		return
	}

	// Fighters are keyed by resolved name, so two ids naming the same Pokemon
	// collapse to one fighter and fail the arity check below.
	fighters := make(map[string]*pokeapi.BattleData, 2)
	for _, id := range []pokemonID{req.Pokemon1, req.Pokemon2} {
		data, err := h.pokedex.GetPokemon(r.Context(), string(id))
		if err != nil {
			if errors.Is(err, pokedex.ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("Pokemon with ID %s not found", id))
				return
			}
			h.log.Error().Err(err).Str("pokemon_id", string(id)).Msg("Fighter lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		fighters[data.Name] = data
	}

	result, err := h.simulator.Result(fighters)
	if err != nil {
		if errors.Is(err, battle.ErrInvalidFighters) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Battle simulation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.battles.Save(r.Context(), result); err != nil {
		h.log.Error().Err(err).Str("battle_id", result.ID).Msg("Failed to save battle result")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"battle_result": result})
}

// HandleGetBattle handles GET /api/v1/battle/{battle_id}
func (h *Handlers) HandleGetBattle(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battle_id")

	result, err := h.battles.GetByID(r.Context(), battleID)
	if err != nil {
		h.log.Error().Err(err).Str("battle_id", battleID).Msg("Battle lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("battle %s not found", battleID))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"battle_result": result})
}

// HandleSearchBattlesByWinner handles
// GET /api/v1/battle/search_by_winner/{name}?opponent=&timestamp=
func (h *Handlers) HandleSearchBattlesByWinner(w http.ResponseWriter, r *http.Request) {
	winner := chi.URLParam(r, "name")
	opponentPrefix := r.URL.Query().Get("opponent")

	var since int64
	if tsStr := r.URL.Query().Get("timestamp"); tsStr != "" {
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid timestamp %q", tsStr))
			return
		}
		since = ts
	}

	results, err := h.battles.SearchByWinner(r.Context(), winner, opponentPrefix, since)
	if err != nil {
		h.log.Error().Err(err).Str("winner", winner).Msg("Battle search failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []battle.Result{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"battles": results})
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status        string            `json:"status"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	Databases     map[string]string `json:"databases"`
}

// HandleHealth handles GET /api/v1/health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Databases: make(map[string]string),
	}

	for name, db := range map[string]*database.DB{"cache": h.cacheDB, "battles": h.battlesDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(ctx); err != nil {
			resp.Status = "degraded"
			resp.Databases[name] = err.Error()
		} else {
			resp.Databases[name] = "ok"
		}
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		resp.CPUPercent = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		resp.MemoryPercent = memStat.UsedPercent
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
