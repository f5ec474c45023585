package research

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestSession returns the user's newest session, or nil when none exists.
func (r *Repo) LatestSession(ctx context.Context, userID uint64) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Save(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// ListSessions returns the newest sessions first.
func (r *Repo) ListSessions(ctx context.Context, userID uint64, limit int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PruneSessions deletes all but the newest keep sessions for the user.
func (r *Repo) PruneSessions(ctx context.Context, userID uint64, keep int) error {
	if keep <= 0 {
		keep = 50
	}
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(keep).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id NOT IN ?", userID, ids).
		Delete(&Session{}).Error
}
