package repository

import (
	"context"
	"testing"

	"tally/internal/cache"
	"tally/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCacheTestDB(t *testing.T) (*gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	db := setupTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)

	cache.InitRedis(mr.Addr())
	require.NotNil(t, cache.GetClient(), "expected a live client against miniredis")

	t.Cleanup(func() {
		_ = cache.Close()
		mr.Close()
	})
	return db, mr
}

func seedPost(t *testing.T, db *gorm.DB, title string, user models.User) models.Post {
	t.Helper()
	post := models.Post{Title: title, Description: "d", Status: models.StatusPlanned, UserID: user.ID, TenantID: user.TenantID}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func TestPostRepository_ListServesDefaultPageFromCache(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	_, user := seedTenantAndUser(t, db)

	seedPost(t, db, "First", user)
	seedPost(t, db, "Second", user)

	posts, err := repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.True(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	// Insert behind the repository's back; a cache hit must not see it.
	seedPost(t, db, "Third", user)

	posts, err = repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestPostRepository_ListOnlyCachesDefaultLimit(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	_, user := seedTenantAndUser(t, db)

	seedPost(t, db, "First", user)
	seedPost(t, db, "Second", user)

	// A truncated page must not be written under the tenant's list key.
	posts, err := repo.List(ctx, user.TenantID, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.False(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	posts, err = repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	// And a warm full page must not be handed back for a smaller limit.
	posts, err = repo.List(ctx, user.TenantID, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestPostRepository_CreateInvalidatesList(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	_, user := seedTenantAndUser(t, db)

	seedPost(t, db, "First", user)

	_, err := repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	post := models.Post{Title: "Second", Description: "d", Status: models.StatusPlanned, UserID: user.ID, TenantID: user.TenantID}
	require.NoError(t, repo.Create(ctx, &post))
	assert.False(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	posts, err := repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestUpvoteRepository_UpvoteInvalidatesList(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	postRepo := NewPostRepository(db)
	upvoteRepo := NewUpvoteRepository(db)
	ctx := context.Background()
	_, user := seedTenantAndUser(t, db)

	post := seedPost(t, db, "First", user)

	posts, err := postRepo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 0, posts[0].UpvotesCount)
	require.True(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	_, err = upvoteRepo.Upvote(ctx, user.ID, post.ID, user.TenantID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	posts, err = postRepo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, posts[0].UpvotesCount)
}

func TestPostRepository_UpdateStatusInvalidatesList(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	_, user := seedTenantAndUser(t, db)

	post := seedPost(t, db, "First", user)

	posts, err := repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	require.Equal(t, models.StatusPlanned, posts[0].Status)

	require.NoError(t, repo.UpdateStatus(ctx, &post, models.StatusCompleted))
	assert.False(t, mr.Exists(cache.PostsListKey(user.TenantID)))

	posts, err = repo.List(ctx, user.TenantID, 100, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, posts[0].Status)
}

func TestTenantRepository_GetByIDServedFromCache(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	tenant := models.Tenant{CompanyName: "Acme", Slug: "acme"}
	require.NoError(t, repo.Create(ctx, &tenant))

	got, err := repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.True(t, mr.Exists(cache.TenantKey(tenant.ID)))

	// Rename behind the repository's back; a cache hit keeps the old name.
	require.NoError(t, db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Update("company_name", "Renamed").Error)

	got, err = repo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)
}

func TestTenantRepository_CreateInvalidatesList(t *testing.T) {
	db, mr := setupCacheTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Tenant{CompanyName: "Acme", Slug: "acme"}))

	tenants, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.True(t, mr.Exists(cache.TenantListKey))

	require.NoError(t, repo.Create(ctx, &models.Tenant{CompanyName: "Globex", Slug: "globex"}))
	assert.False(t, mr.Exists(cache.TenantListKey))

	tenants, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}
