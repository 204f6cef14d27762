package mongodb

import (
	"context"
	"errors"

	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/YashPS24/CAQMS/pkg/resilience"
	"go.mongodb.org/mongo-driver/mongo"
)

// TranslateError is the single place driver errors become application errors.
// Repositories call it on every error they return; callers above the storage
// boundary only ever see *errors.AppError values.
//
// mongo.ErrNoDocuments is deliberately not handled here: repositories turn it
// into a nil result before they get this far.
func TranslateError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case mongo.IsDuplicateKeyError(err):
		return apperrors.ErrConflict("a record with the same key already exists").
			WithDetail("operation", operation).Wrap(err)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ErrServiceUnavailable("order store").
			WithDetail("operation", operation).Wrap(err)
	case errors.Is(err, context.Canceled):
		return apperrors.ErrBadRequest("request cancelled").Wrap(err)
	default:
		// Timeouts, network and storage-side validation failures are all
		// retryable by resubmitting the same request.
		return apperrors.ErrPersistFailed(err).WithDetail("operation", operation)
	}
}
