package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

// TrophyService is the persistence hook for the scan flow. Capture, AI
// matching and 3D placement live in the mobile client and its vision
// backend; the token economy only needs to know when a trophy exists and
// when it acquires a race result.
type TrophyService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewTrophyService(repo *repository.Repository) *TrophyService {
	return &TrophyService{repo: repo, now: time.Now}
}

func (s *TrophyService) CreateTrophy(ctx context.Context, userID int64, raceName string) (*model.Trophy, error) {
	trophy := &model.Trophy{UserID: userID}
	if raceName != "" {
		trophy.RaceName = &raceName
	}
	if err := s.repo.CreateTrophy(ctx, trophy, s.now().UTC()); err != nil {
		return nil, err
	}
	return trophy, nil
}

// ValidateTrophy links a race result to the user's trophy. Reports whether
// this call did the linking; re-validation is a no-op.
func (s *TrophyService) ValidateTrophy(ctx context.Context, userID int64, trophyID uuid.UUID, resultID string) (bool, error) {
	trophy, err := s.repo.GetTrophy(ctx, trophyID)
	if err != nil {
		return false, err
	}
	if trophy.UserID != userID {
		return false, ErrTrophyNotFound
	}
	return s.repo.LinkTrophyResult(ctx, trophyID, resultID)
}
