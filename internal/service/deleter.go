package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/masumrana0/Uploader/internal/domain"
	"github.com/masumrana0/Uploader/internal/storage"
	"github.com/masumrana0/Uploader/pkg/logger"
)

// Deleter removes objects addressed by key or public URL.
type Deleter struct {
	store    storage.ObjectStore
	resolver storage.KeyResolver
	log      zerolog.Logger
}

func NewDeleter(store storage.ObjectStore, resolver storage.KeyResolver) *Deleter {
	return &Deleter{
		store:    store,
		resolver: resolver,
		log:      logger.Component("deleter"),
	}
}

// Delete resolves raw to a key and removes it. Errors are classified as
// KindValidation, KindNotFound or KindStore.
func (d *Deleter) Delete(ctx context.Context, raw string) (domain.DeletionResult, error) {
	key, err := d.resolver.Resolve(raw)
	if err != nil {
		return domain.DeletionResult{}, domain.NewError(domain.KindValidation, "Invalid 'key' query parameter", err)
	}

	if err := d.store.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return domain.DeletionResult{}, domain.NewError(domain.KindNotFound, "File not found", err)
		}
		d.log.Error().Err(err).Str("key", key).Msg("delete failed")
		return domain.DeletionResult{}, domain.NewError(domain.KindStore, "Failed to delete file", err)
	}

	d.log.Info().Str("key", key).Msg("object deleted")
	return domain.DeletionResult{Success: true, Key: key}, nil
}
