package battle

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the battles database schema. The two indexes back the search
// paths: by winner with an opponent-name prefix, and by winner with a
// timestamp lower bound.
const Schema = `
CREATE TABLE IF NOT EXISTS battles (
	id TEXT PRIMARY KEY,
	winner TEXT NOT NULL,
	opponent TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	winner_total_stats INTEGER NOT NULL,
	opponent_total_stats INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_battles_winner_opponent ON battles(winner, opponent);
CREATE INDEX IF NOT EXISTS idx_battles_winner_timestamp ON battles(winner, timestamp);
`

// Repository persists battle results.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new battle repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a battle result. Results are immutable; ids never collide.
func (r *Repository) Save(ctx context.Context, result *Result) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO battles (id, winner, opponent, timestamp, winner_total_stats, opponent_total_stats)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID, result.Winner, result.Opponent, result.Timestamp,
		result.WinnerTotalStats, result.OpponentTotalStats,
	)
	if err != nil {
		return fmt.Errorf("failed to save battle %s: %w", result.ID, err)
	}
	return nil
}

// GetByID returns a stored battle result, or (nil, nil) if it doesn't exist.
func (r *Repository) GetByID(ctx context.Context, battleID string) (*Result, error) {
	var result Result
	err := r.db.QueryRowContext(ctx,
		`SELECT id, winner, opponent, timestamp, winner_total_stats, opponent_total_stats
		 FROM battles WHERE id = ?`,
		battleID,
	).Scan(&result.ID, &result.Winner, &result.Opponent, &result.Timestamp,
		&result.WinnerTotalStats, &result.OpponentTotalStats)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battle %s: %w", battleID, err)
	}
	return &result, nil
}

// SearchByWinner returns battles won by a Pokemon, optionally narrowed to
// opponents whose name starts with opponentPrefix and/or battles at or after
// the since timestamp. Zero values disable a filter.
func (r *Repository) SearchByWinner(ctx context.Context, winner, opponentPrefix string, since int64) ([]Result, error) {
	query := `SELECT id, winner, opponent, timestamp, winner_total_stats, opponent_total_stats
	          FROM battles WHERE winner = ?`
	args := []any{winner}

	if opponentPrefix != "" {
		query += " AND opponent LIKE ? ESCAPE '\\'"
		args = append(args, escapeLike(opponentPrefix)+"%")
	}
	if since > 0 {
		query += " AND timestamp >= ?"
		args = append(args, since)
	}
	query += " ORDER BY timestamp"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search battles for winner %s: %w", winner, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var result Result
		if err := rows.Scan(&result.ID, &result.Winner, &result.Opponent, &result.Timestamp,
			&result.WinnerTotalStats, &result.OpponentTotalStats); err != nil {
			return nil, fmt.Errorf("failed to scan battle row: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate battle rows: %w", err)
	}

	return results, nil
}

// escapeLike escapes LIKE metacharacters so a prefix match stays a literal
// prefix match.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
