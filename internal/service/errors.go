package service

import (
	"context"
	"log/slog"

	"github.com/sakif/linkbio/internal/apperror"
)

// expectedKinds are the outcomes services hand back to callers unchanged.
var expectedKinds = []error{
	apperror.ErrValidation,
	apperror.ErrBadRequest,
	apperror.ErrConflict,
	apperror.ErrNotFound,
	apperror.ErrUnauthorized,
}

// fail passes expected error kinds through and replaces anything else with a
// Bad-Request carrying message. The original cause is logged, never returned.
func fail(ctx context.Context, logger *slog.Logger, err error, op, message string) error {
	if apperror.IsKind(err, expectedKinds...) {
		return err
	}
	logger.ErrorContext(ctx, "unexpected failure",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apperror.BadRequest(message)
}
