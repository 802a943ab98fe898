// Package battle simulates battles between two Pokemon and persists the
// results.
package battle

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pokearena/pokearena/internal/pokeapi"
)

// ErrInvalidFighters signals that the simulator was given anything other than
// exactly two fighters.
var ErrInvalidFighters = errors.New("exactly two fighters are required")

// upsetThreshold is the closeness ratio at which the outcome turns random:
// when the weaker fighter has at least 80% of the stronger one's total stats,
// either side can win.
const upsetThreshold = 0.8

// Result is the outcome of a single simulated battle.
type Result struct {
	ID                 string `json:"id"`
	Winner             string `json:"winner"`
	Opponent           string `json:"opponent"`
	Timestamp          int64  `json:"timestamp"`
	WinnerTotalStats   int    `json:"winner_total_stats"`
	OpponentTotalStats int    `json:"opponent_total_stats"`
}

// Simulator determines battle outcomes from fighters' aggregate stats.
// Aside from the random upset draw and the timestamp/id generation it is
// pure: no I/O, no dependency on cache or network state.
type Simulator struct {
	randIntn func(n int) int
	now      func() time.Time
}

// NewSimulator creates a simulator using the default random source and clock.
func NewSimulator() *Simulator {
	return &Simulator{randIntn: rand.Intn, now: time.Now}
}

// NewSimulatorWithSource creates a simulator with injected randomness and
// clock, used in tests to force upset outcomes.
func NewSimulatorWithSource(randIntn func(n int) int, now func() time.Time) *Simulator {
	return &Simulator{randIntn: randIntn, now: now}
}

// Result runs one battle between exactly two fighters, keyed by Pokemon id or
// name. The higher total wins outright unless the weaker fighter is within
// the upset threshold, in which case the winner is drawn uniformly.
func (s *Simulator) Result(fighters map[string]*pokeapi.BattleData) (*Result, error) {
	if len(fighters) != 2 {
		return nil, ErrInvalidFighters
	}

	totals := make(map[string]int, 2)
	ids := make([]string, 0, 2)
	for id, fighter := range fighters {
		totals[id] = fighter.TotalStats()
		ids = append(ids, id)
	}

	// Rank by total stats descending. Map iteration order is unstable, so
	// ties fall back to lexical id order to keep a given input deterministic.
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	preWinner, preOpponent := ids[0], ids[1]

	winner, opponent := preWinner, preOpponent
	if float64(totals[preOpponent]) >= float64(totals[preWinner])*upsetThreshold {
		// Close match: the weaker fighter has a chance to win.
		if s.randIntn(2) == 1 {
			winner, opponent = preOpponent, preWinner
		}
	}

	return &Result{
		ID:                 strings.ReplaceAll(uuid.NewString(), "-", ""),
		Winner:             winner,
		Opponent:           opponent,
		Timestamp:          s.now().Unix(),
		WinnerTotalStats:   totals[winner],
		OpponentTotalStats: totals[opponent],
	}, nil
}
