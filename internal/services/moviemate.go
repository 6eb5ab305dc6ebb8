package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/moviemate/internal/models"
)

// ListCatalog fetches one page of the admin catalog.
func (a *APIService) ListCatalog(ctx context.Context, opts models.ListOptions) (*models.Page[models.CatalogItem], error) {
	var page models.Page[models.CatalogItem]
	if err := a.do(ctx, http.MethodGet, "/catalog", opts.Query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCatalog fetches a single catalog entry.
func (a *APIService) GetCatalog(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/catalog/%d", id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListCollection fetches one page of the authenticated user's collection.
func (a *APIService) ListCollection(ctx context.Context, opts models.ListOptions) (*models.Page[models.CollectionItem], error) {
	var page models.Page[models.CollectionItem]
	if err := a.do(ctx, http.MethodGet, "/collection", opts.Query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCollection fetches a single collection record, including its updated_at marker.
func (a *APIService) GetCollection(ctx context.Context, id int64) (*models.CollectionItem, error) {
	var item models.CollectionItem
	if err := a.do(ctx, http.MethodGet, collectionPath(id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFromCatalog creates a collection record copied from a catalog entry.
func (a *APIService) CreateFromCatalog(ctx context.Context, catalogID int64) (*models.CollectionItem, error) {
	var item models.CollectionItem
	path := fmt.Sprintf("/collection/from-catalog/%d", catalogID)
	if err := a.do(ctx, http.MethodPost, path, nil, struct{}{}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCollection creates a custom collection record.
func (a *APIService) CreateCollection(ctx context.Context, payload models.CollectionPayload) (*models.CollectionItem, error) {
	var item models.CollectionItem
	if err := a.do(ctx, http.MethodPost, "/collection", nil, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// PatchCollection applies a partial update and returns the stored record.
func (a *APIService) PatchCollection(ctx context.Context, id int64, patch any) (*models.CollectionItem, error) {
	var item models.CollectionItem
	if err := a.do(ctx, http.MethodPatch, collectionPath(id), nil, patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteCollection removes a collection record.
func (a *APIService) DeleteCollection(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, collectionPath(id), nil, nil, nil)
}

// Login exchanges credentials for tokens.
func (a *APIService) Login(ctx context.Context, creds models.Credentials) (*models.Tokens, error) {
	var tokens models.Tokens
	if err := a.do(ctx, http.MethodPost, "/auth/login", nil, creds, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Signup registers a new account and returns its tokens.
func (a *APIService) Signup(ctx context.Context, form models.SignupForm) (*models.Tokens, error) {
	var tokens models.Tokens
	if err := a.do(ctx, http.MethodPost, "/auth/signup", nil, form, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Me fetches the authenticated user's profile.
func (a *APIService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func collectionPath(id int64) string {
	return fmt.Sprintf("/collection/%d", id)
}
