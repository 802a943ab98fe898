package battle

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)

	return db
}

func sampleResult(id, winner, opponent string, ts int64) *Result {
	return &Result{
		ID:                 id,
		Winner:             winner,
		Opponent:           opponent,
		Timestamp:          ts,
		WinnerTotalStats:   320,
		OpponentTotalStats: 250,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	saved := sampleResult("abc123", "pikachu", "meowth", 1700000000)
	require.NoError(t, repo.Save(ctx, saved))

	got, err := repo.GetByID(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved, got)
}

func TestGetByIDMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchByWinner(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleResult("b1", "pikachu", "meowth", 100)))
	require.NoError(t, repo.Save(ctx, sampleResult("b2", "pikachu", "mewtwo", 200)))
	require.NoError(t, repo.Save(ctx, sampleResult("b3", "pikachu", "onix", 300)))
	require.NoError(t, repo.Save(ctx, sampleResult("b4", "charizard", "meowth", 400)))

	t.Run("winner only", func(t *testing.T) {
		results, err := repo.SearchByWinner(ctx, "pikachu", "", 0)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("opponent prefix", func(t *testing.T) {
		results, err := repo.SearchByWinner(ctx, "pikachu", "me", 0)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "meowth", results[0].Opponent)
		assert.Equal(t, "mewtwo", results[1].Opponent)
	})

	t.Run("timestamp lower bound", func(t *testing.T) {
		results, err := repo.SearchByWinner(ctx, "pikachu", "", 200)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "b2", results[0].ID)
		assert.Equal(t, "b3", results[1].ID)
	})

	t.Run("prefix and timestamp combined", func(t *testing.T) {
		results, err := repo.SearchByWinner(ctx, "pikachu", "me", 150)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "mewtwo", results[0].Opponent)
	})

	t.Run("no matches", func(t *testing.T) {
		results, err := repo.SearchByWinner(ctx, "missingno", "", 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearchByWinnerPrefixIsLiteral(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleResult("b1", "pikachu", "mew", 100)))

	// LIKE metacharacters in the prefix must not act as wildcards.
	results, err := repo.SearchByWinner(ctx, "pikachu", "%", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = repo.SearchByWinner(ctx, "pikachu", "me_", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
