package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trophyroom/backend/internal/model"
)

var ErrTrophyNotFound = errors.New("trophy not found")

func (r *Repository) CreateTrophy(ctx context.Context, trophy *model.Trophy, now time.Time) error {
	if trophy.ID == uuid.Nil {
		trophy.ID = uuid.New()
	}
	trophy.CreatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trophies (id, user_id, race_name, result_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		trophy.ID, trophy.UserID, trophy.RaceName, trophy.ResultID, now)
	return err
}

func (r *Repository) GetTrophy(ctx context.Context, id uuid.UUID) (*model.Trophy, error) {
	var trophy model.Trophy
	err := r.db.GetContext(ctx, &trophy, `SELECT * FROM trophies WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrophyNotFound
		}
		return nil, err
	}
	return &trophy, nil
}

// LinkTrophyResult attaches a race result to a trophy. First write wins;
// reports whether this call did the linking.
func (r *Repository) LinkTrophyResult(ctx context.Context, trophyID uuid.UUID, resultID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trophies SET result_id = $1 WHERE id = $2 AND result_id IS NULL`,
		resultID, trophyID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountValidatedTrophies counts a user's trophies with a linked race result.
func (r *Repository) CountValidatedTrophies(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM trophies
		WHERE user_id = $1 AND result_id IS NOT NULL`,
		userID)
	return count, err
}
