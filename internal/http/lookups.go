package http

import (
	"context"

	"opsdesk/internal/api"
	"opsdesk/internal/cache"
	"opsdesk/internal/core"
)

// Lookup tables are cached per backend session so each visitor only sees
// what the backend lets them see.
const (
	cacheCategories = "categories"
	cacheUsers      = "users"
	cacheProducts   = "products"
	cacheSettings   = "settings"
)

func (s *Server) categories(ctx context.Context) ([]core.Category, error) {
	return s.categoryCache.GetOrLoad(ctx, cache.Key(cacheCategories, api.SessionCookie(ctx)), s.api.ExpenseCategories)
}

func (s *Server) users(ctx context.Context) ([]core.User, error) {
	return s.userCache.GetOrLoad(ctx, cache.Key(cacheUsers, api.SessionCookie(ctx)), s.api.Users)
}

func (s *Server) products(ctx context.Context) ([]core.Product, error) {
	return s.productCache.GetOrLoad(ctx, cache.Key(cacheProducts, api.SessionCookie(ctx)), s.api.Products)
}

func (s *Server) settings(ctx context.Context) (core.Settings, error) {
	return s.settingsCache.GetOrLoad(ctx, cache.Key(cacheSettings, api.SessionCookie(ctx)), s.api.Settings)
}

// product finds one product in the cached catalog.
func (s *Server) product(ctx context.Context, id string) (core.Product, bool, error) {
	all, err := s.products(ctx)
	if err != nil {
		return core.Product{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return core.Product{}, false, nil
}
