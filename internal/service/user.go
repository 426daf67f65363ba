package service

import (
	"context"
	"crypto/rand"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/trophyroom/backend/internal/model"
	"github.com/trophyroom/backend/internal/repository"
)

type UserService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// GetOrCreateUser returns the account for a user id, creating it with
// balance 0 and a fresh referral code on first sight. Re-registering only
// refreshes the first name.
func (s *UserService) GetOrCreateUser(ctx context.Context, id int64, firstName string) (*model.User, error) {
	existing, err := s.repo.GetUser(ctx, id)
	if err == nil {
		if firstName != "" && (existing.FirstName == nil || *existing.FirstName != firstName) {
			existing.FirstName = &firstName
			if err := s.repo.CreateUser(ctx, existing, s.now().UTC()); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{ID: id}
	if firstName != "" {
		user.FirstName = &firstName
	}

	// Codes are human-shareable, derived from the first name plus a numeric
	// suffix. On collision the suffix widens (2 -> 3 -> 4 digits); if all of
	// those collide too, a timestamp-derived suffix breaks the tie. The
	// unique constraint on the code column is what actually guarantees no
	// two users share a code.
	for _, digits := range []int{2, 3, 4} {
		user.ReferralCode = referralCode(firstName, digits)
		err := s.repo.CreateUser(ctx, user, s.now().UTC())
		if errors.Is(err, repository.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.repo.GetUser(ctx, id)
	}

	user.ReferralCode = codePrefix(firstName) + strconv.FormatInt(s.now().UnixMilli()%1_000_000, 10)
	if err := s.repo.CreateUser(ctx, user, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func referralCode(firstName string, digits int) string {
	return codePrefix(firstName) + randomDigits(digits)
}

func codePrefix(firstName string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(firstName) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
		if b.Len() >= 8 {
			break
		}
	}
	if b.Len() == 0 {
		return "RUNNER"
	}
	return b.String()
}

func randomDigits(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in real trouble; fall
		// back to something deterministic rather than crash code issuance.
		return strings.Repeat("0", n)
	}
	for i, b := range buf {
		buf[i] = '0' + b%10
	}
	return string(buf)
}
