package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	TenantKeyPrefix = "tenant:%d"
	TenantListKey   = "tenants:all"
	PostsListPrefix = "posts:tenant:%d"
)

const (
	TenantTTL    = 10 * time.Minute
	PostsListTTL = 30 * time.Second
)

func TenantKey(tenantID uint) string {
	return fmt.Sprintf(TenantKeyPrefix, tenantID)
}

func PostsListKey(tenantID uint) string {
	return fmt.Sprintf(PostsListPrefix, tenantID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateTenantList(ctx context.Context) {
	Invalidate(ctx, TenantListKey)
}

func InvalidatePostsList(ctx context.Context, tenantID uint) {
	Invalidate(ctx, PostsListKey(tenantID))
}
