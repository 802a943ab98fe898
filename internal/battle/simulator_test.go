package battle

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokearena/pokearena/internal/pokeapi"
)

func fighter(name string, total int) *pokeapi.BattleData {
	return &pokeapi.BattleData{
		ID:    1,
		Name:  name,
		Stats: map[string]int{"attack": total},
	}
}

func TestResultDeterministicWhenNotClose(t *testing.T) {
	// Opponent at 50 is below the 80-point upset threshold for a 100 winner;
	// randomness must not apply. The rand source always picks the weaker
	// fighter to prove it is never consulted.
	sim := NewSimulatorWithSource(func(n int) int { return 1 }, time.Now)

	fighters := map[string]*pokeapi.BattleData{
		"machamp": fighter("machamp", 100),
		"weedle":  fighter("weedle", 50),
	}

	for i := 0; i < 100; i++ {
		result, err := sim.Result(fighters)
		require.NoError(t, err)
		assert.Equal(t, "machamp", result.Winner)
		assert.Equal(t, "weedle", result.Opponent)
		assert.Equal(t, 100, result.WinnerTotalStats)
		assert.Equal(t, 50, result.OpponentTotalStats)
	}
}

func TestResultUpsetForcedByInjectedRand(t *testing.T) {
	// 85 >= 100*0.8, so the outcome is randomized; a source that always draws
	// the underdog must crown the underdog.
	sim := NewSimulatorWithSource(func(n int) int { return 1 }, time.Now)

	fighters := map[string]*pokeapi.BattleData{
		"machamp": fighter("machamp", 100),
		"primeape": fighter("primeape", 85),
	}

	result, err := sim.Result(fighters)
	require.NoError(t, err)
	assert.Equal(t, "primeape", result.Winner)
	assert.Equal(t, "machamp", result.Opponent)
	assert.Equal(t, 85, result.WinnerTotalStats)
	assert.Equal(t, 100, result.OpponentTotalStats)
}

func TestResultUpsetKeepsFavoriteWhenDrawSaysSo(t *testing.T) {
	sim := NewSimulatorWithSource(func(n int) int { return 0 }, time.Now)

	fighters := map[string]*pokeapi.BattleData{
		"machamp": fighter("machamp", 100),
		"primeape": fighter("primeape", 85),
	}

	result, err := sim.Result(fighters)
	require.NoError(t, err)
	assert.Equal(t, "machamp", result.Winner)
}

func TestResultUpsetBothSidesWinOverManyTrials(t *testing.T) {
	src := rand.New(rand.NewSource(42))
	sim := NewSimulatorWithSource(src.Intn, time.Now)

	fighters := map[string]*pokeapi.BattleData{
		"machamp": fighter("machamp", 100),
		"primeape": fighter("primeape", 85),
	}

	winners := make(map[string]int)
	for i := 0; i < 500; i++ {
		result, err := sim.Result(fighters)
		require.NoError(t, err)
		winners[result.Winner]++
	}

	assert.Positive(t, winners["machamp"])
	assert.Positive(t, winners["primeape"])
}

func TestResultInvalidFighterCounts(t *testing.T) {
	sim := NewSimulator()

	cases := map[string]map[string]*pokeapi.BattleData{
		"zero": {},
		"one":  {"a": fighter("a", 10)},
		"three": {
			"a": fighter("a", 10),
			"b": fighter("b", 20),
			"c": fighter("c", 30),
		},
	}

	for name, fighters := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sim.Result(fighters)
			assert.ErrorIs(t, err, ErrInvalidFighters)
		})
	}
}

func TestResultMetadata(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	sim := NewSimulatorWithSource(func(n int) int { return 0 }, func() time.Time { return fixed })

	fighters := map[string]*pokeapi.BattleData{
		"machamp": fighter("machamp", 100),
		"weedle":  fighter("weedle", 50),
	}

	result, err := sim.Result(fighters)
	require.NoError(t, err)
	assert.Len(t, result.ID, 32, "id is a hex uuid without dashes")
	assert.Equal(t, int64(1700000000), result.Timestamp)

	other, err := sim.Result(fighters)
	require.NoError(t, err)
	assert.NotEqual(t, result.ID, other.ID)
}

func TestResultSumsAllStats(t *testing.T) {
	sim := NewSimulatorWithSource(func(n int) int { return 0 }, time.Now)

	strong := &pokeapi.BattleData{
		Name:  "charizard",
		Stats: map[string]int{"hp": 78, "attack": 84, "defense": 78},
	}
	weak := &pokeapi.BattleData{
		Name:  "caterpie",
		Stats: map[string]int{"hp": 45, "attack": 30, "defense": 35},
	}

	result, err := sim.Result(map[string]*pokeapi.BattleData{
		"charizard": strong,
		"caterpie":  weak,
	})
	require.NoError(t, err)
	assert.Equal(t, "charizard", result.Winner)
	assert.Equal(t, 240, result.WinnerTotalStats)
	assert.Equal(t, 110, result.OpponentTotalStats)
}
