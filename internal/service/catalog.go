package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

const (
	// DefaultPerPage is the catalog page size.
	DefaultPerPage = 4
	maxPerPage     = 100
	imagePrefix    = "items/"
)

var (
	itemUpdaters = model.NewPermissionSet(model.PermissionAdmin, model.PermissionItemUpdate)
	itemDeleters = model.NewPermissionSet(model.PermissionAdmin, model.PermissionItemDelete)
)

// Catalog serves catalog reads and guards item mutations.
type Catalog struct {
	items    model.ItemStore
	storage  model.Storage
	guard    *Guard
	logger   *logger.Logger
	timeouts Timeouts
	now      func() time.Time
}

func NewCatalog(items model.ItemStore, storage model.Storage, guard *Guard, logger *logger.Logger, timeouts Timeouts) *Catalog {
	return &Catalog{
		items:    items,
		storage:  storage,
		guard:    guard,
		logger:   logger,
		timeouts: timeouts,
		now:      time.Now,
	}
}

// Items returns the 1-based page of items matching query, newest first. The
// query is matched case-insensitively against titles and descriptions.
func (c *Catalog) Items(ctx context.Context, query string, page, perPage int) (model.ItemPage, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, maxPerPage)

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	items, err := c.items.List(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return model.ItemPage{}, fmt.Errorf("failed to list items: %w", err)
	}
	total, err := c.items.Count(ctx, query)
	if err != nil {
		return model.ItemPage{}, fmt.Errorf("failed to count items: %w", err)
	}

	return model.ItemPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (c *Catalog) Item(ctx context.Context, id uuid.UUID) (model.Item, error) {
	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	item, err := c.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Item{}, model.NewErrNotFound("item")
		}
		return model.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// CreateItem adds an item owned by the principal.
func (c *Catalog) CreateItem(ctx context.Context, p model.Principal, params model.CreateItemParams) (model.Item, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return model.Item{}, err
	}

	item := model.Item{
		ID:          uuid.New(),
		OwnerID:     p.ID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Price:       params.Price,
		Image:       params.Image,
		LargeImage:  params.LargeImage,
		CreatedAt:   c.now(),
		UpdatedAt:   c.now(),
	}
	if err := validateItem(item); err != nil {
		return model.Item{}, err
	}

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	saved, err := c.items.Create(ctx, item)
	if err != nil {
		c.logger.Error("Catalog service: failed to create item",
			"user_id", p.ID.String(),
			"error", err.Error())
		return model.Item{}, fmt.Errorf("failed to create item: %w", err)
	}

	c.logger.Info("Catalog service: item created",
		"user_id", p.ID.String(),
		"item_id", saved.ID.String())

	return saved, nil
}

// UpdateItem applies patch for the owner or an ADMIN/ITEMUPDATE holder.
func (c *Catalog) UpdateItem(ctx context.Context, p model.Principal, id uuid.UUID, patch model.ItemPatch) (model.Item, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return model.Item{}, err
	}

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	item, err := c.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Item{}, model.NewErrNotFound("item")
		}
		return model.Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	if err := c.guard.Authorize(p, itemUpdaters, &item.OwnerID).Err(); err != nil {
		return model.Item{}, err
	}

	applyPatch(&item, patch)
	if err := validateItem(item); err != nil {
		return model.Item{}, err
	}

	saved, err := c.items.Update(ctx, item)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Item{}, model.NewErrNotFound("item")
		}
		return model.Item{}, fmt.Errorf("failed to update item: %w", err)
	}

	c.logger.Info("Catalog service: item updated",
		"user_id", p.ID.String(),
		"item_id", id.String())

	return saved, nil
}

// DeleteItem removes an item for the owner or an ADMIN/ITEMDELETE holder,
// together with its stored images.
func (c *Catalog) DeleteItem(ctx context.Context, p model.Principal, id uuid.UUID) (model.Item, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return model.Item{}, err
	}

	storeCtx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	item, err := c.items.GetByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Item{}, model.NewErrNotFound("item")
		}
		return model.Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	if err := c.guard.Authorize(p, itemDeleters, &item.OwnerID).Err(); err != nil {
		return model.Item{}, err
	}

	if err := c.items.Delete(storeCtx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Item{}, model.NewErrNotFound("item")
		}
		return model.Item{}, fmt.Errorf("failed to delete item: %w", err)
	}

	for _, key := range []string{item.Image, item.LargeImage} {
		if !strings.HasPrefix(key, imagePrefix) {
			continue
		}
		if err := c.storage.Delete(storeCtx, key); err != nil {
			c.logger.Warn("Catalog service: failed to delete item image",
				"item_id", id.String(),
				"key", key,
				"error", err.Error())
		}
	}

	c.logger.Info("Catalog service: item deleted",
		"user_id", p.ID.String(),
		"item_id", id.String())

	return item, nil
}

// UploadImage stores an item image and returns its storage key.
func (c *Catalog) UploadImage(ctx context.Context, p model.Principal, filename, contentType string, size int64, r io.Reader) (string, error) {
	if err := c.guard.RequireLogin(p); err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", model.NewErrValidation("only image uploads are accepted")
	}

	key := imagePrefix + uuid.NewString() + strings.ToLower(path.Ext(filename))

	ctx, cancel := withTimeout(ctx, c.timeouts.Store)
	defer cancel()

	if err := c.storage.Upload(ctx, key, r, size, contentType); err != nil {
		c.logger.Error("Catalog service: failed to upload image",
			"user_id", p.ID.String(),
			"error", err.Error())
		return "", model.NewErrUpstream("upload image", err)
	}

	c.logger.Info("Catalog service: image uploaded",
		"user_id", p.ID.String(),
		"key", key)

	return key, nil
}

// Image opens a stored item image.
func (c *Catalog) Image(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, imagePrefix) || strings.Contains(key, "..") {
		return nil, model.NewErrNotFound("image")
	}

	rc, err := c.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewErrNotFound("image")
		}
		return nil, model.NewErrUpstream("download image", err)
	}
	return rc, nil
}

func applyPatch(item *model.Item, patch model.ItemPatch) {
	if patch.Title != nil {
		item.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.Image != nil {
		item.Image = *patch.Image
	}
	if patch.LargeImage != nil {
		item.LargeImage = *patch.LargeImage
	}
}

func validateItem(item model.Item) error {
	if item.Title == "" {
		return model.NewErrValidation("title is required")
	}
	if item.Price < 0 {
		return model.NewErrValidation("price must not be negative")
	}
	return nil
}
