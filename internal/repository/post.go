package repository

import (
	"context"
	"errors"

	"tally/internal/cache"
	"tally/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts. Every read and
// write is scoped to a tenant; a post outside the given tenant behaves as if
// it did not exist.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, tenantID, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, tenantID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	UpdateStatus(ctx context.Context, post *models.Post, status models.PostStatus) error
}

// cacheablePostListLimit is the only page size served from the cache. The
// list key carries no limit, so caching any other size would leak that size
// into later requests.
const cacheablePostListLimit = 100

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx, post.TenantID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id, tenantID, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Where("posts.id = ? AND posts.tenant_id = ?", id, tenantID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, tenantID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post

	fetch := func() error {
		err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
			Where("posts.tenant_id = ?", tenantID).
			Order("created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	// Only the anonymous default-limit first page is cacheable; the upvoted
	// flag is per-caller and deeper pages churn too much to be worth it.
	if currentUserID == 0 && offset == 0 && limit == cacheablePostListLimit {
		if err := cache.Aside(ctx, cache.PostsListKey(tenantID), &posts, cache.PostsListTTL, fetch); err != nil {
			return nil, err
		}
		return posts, nil
	}

	if err := fetch(); err != nil {
		return nil, err
	}
	return posts, nil
}

// applyPostDetails adds subqueries to fetch the upvote count and the
// caller's upvoted flag in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM upvotes WHERE upvotes.post_id = posts.id) as upvotes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM upvotes WHERE upvotes.post_id = posts.id AND upvotes.user_id = ?) as upvoted", currentUserID)
	}

	return db.Select(selectQuery + ", false as upvoted")
}

func (r *postRepository) UpdateStatus(ctx context.Context, post *models.Post, status models.PostStatus) error {
	if err := r.db.WithContext(ctx).
		Model(post).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	post.Status = status
	cache.InvalidatePostsList(ctx, post.TenantID)
	return nil
}
