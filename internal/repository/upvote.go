package repository

import (
	"context"
	"errors"

	"tally/internal/cache"
	"tally/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpvoteRepository defines persistence operations for upvotes.
// Upvotes are created at most once per (user, post) pair and never removed.
type UpvoteRepository interface {
	Find(ctx context.Context, userID, postID uint) (*models.Upvote, error)
	Upvote(ctx context.Context, userID, postID, tenantID uint) (*models.Upvote, error)
}

type upvoteRepository struct {
	db *gorm.DB
}

// NewUpvoteRepository creates a new upvote repository
func NewUpvoteRepository(db *gorm.DB) UpvoteRepository {
	return &upvoteRepository{db: db}
}

// Find returns (nil, nil) when the user has not upvoted the post.
func (r *upvoteRepository) Find(ctx context.Context, userID, postID uint) (*models.Upvote, error) {
	var upvote models.Upvote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&upvote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &upvote, nil
}

// Upvote inserts the (user, post) row if it does not exist and returns the
// stored row either way. ON CONFLICT DO NOTHING against the composite unique
// index makes concurrent duplicates collapse into a single row.
func (r *upvoteRepository) Upvote(ctx context.Context, userID, postID, tenantID uint) (*models.Upvote, error) {
	upvote := models.Upvote{
		UserID:   userID,
		PostID:   postID,
		TenantID: tenantID,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(&upvote).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// On conflict the insert is a no-op and leaves the struct without an ID;
	// reload so the caller always sees the persisted row.
	stored, err := r.Find(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, models.NewInternalError(errors.New("upvote vanished after insert"))
	}

	cache.InvalidatePostsList(ctx, tenantID)
	return stored, nil
}
