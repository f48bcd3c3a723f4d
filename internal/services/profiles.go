package services

import (
	"context"
	"time"

	"keep-backend-go/internal/models"
	"keep-backend-go/internal/policy"

	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, email, full_name, role, created_at, updated_at`

// ensureProfile creates the profile row for a user. Running it twice, or
// racing another caller, leaves exactly one row and reports no error.
func ensureProfile(ctx context.Context, exec sqlx.ExecerContext, userID, email string, fullName *string) error {
	_, err := exec.ExecContext(ctx, `
INSERT INTO profiles (id, email, full_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`, userID, email, fullName, models.RoleUser)
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// EnsureProfile is the authorized form of profile creation: a principal may
// only create its own profile.
func (s *Inventory) EnsureProfile(ctx context.Context, p policy.Principal, email string, fullName *string) error {
	if err := s.authorize(ctx, policy.OpCreate, policy.EntityProfile, policy.Record{ID: p.ID}, p); err != nil {
		return err
	}
	return ensureProfile(ctx, s.DB, p.ID, email, trimPtr(fullName))
}

func (s *Inventory) GetProfile(ctx context.Context, p policy.Principal, id string) (models.Profile, error) {
	if err := s.authorize(ctx, policy.OpRead, policy.EntityProfile, policy.Record{ID: id}, p); err != nil {
		return models.Profile{}, err
	}
	var profile models.Profile
	err := s.DB.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return profile, Classify(err)
}

type ProfileInput struct {
	FullName *string `json:"fullName" validate:"omitempty,max=200"`
}

func (s *Inventory) UpdateProfile(ctx context.Context, p policy.Principal, id string, input ProfileInput) (models.Profile, error) {
	if err := s.authorize(ctx, policy.OpUpdate, policy.EntityProfile, policy.Record{ID: id}, p); err != nil {
		return models.Profile{}, err
	}
	if err := Validate(input); err != nil {
		return models.Profile{}, err
	}
	var profile models.Profile
	err := s.DB.GetContext(ctx, &profile, `
UPDATE profiles SET full_name = $1, updated_at = $2
WHERE id = $3
RETURNING `+profileColumns, trimPtr(input.FullName), s.now(), id)
	return profile, Classify(err)
}

func (s *Inventory) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
