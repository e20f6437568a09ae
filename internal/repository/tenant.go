package repository

import (
	"context"
	"errors"

	"tally/internal/cache"
	"tally/internal/models"

	"gorm.io/gorm"
)

// TenantRepository defines persistence operations for tenants.
// Tenants are never mutated or deleted, which makes them safe to cache.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository returns a new TenantRepository implementation.
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Company name or slug already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateTenantList(ctx)
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	key := cache.TenantKey(id)

	err := cache.Aside(ctx, key, &tenant, cache.TenantTTL, func() error {
		if err := r.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Tenant", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant

	err := cache.Aside(ctx, cache.TenantListKey, &tenants, cache.TenantTTL, func() error {
		if err := r.db.WithContext(ctx).Order("id").Find(&tenants).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tenants, nil
}
