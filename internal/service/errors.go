package service

import (
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// storeError converts a repository error into a classified one. notFound is
// the message used when the entity is missing. Already classified errors
// pass through.
func storeError(err error, notFound, failed string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(notFound)
	}
	return domain.Dependency(failed, err)
}
