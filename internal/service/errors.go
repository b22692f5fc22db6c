package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/platepick/internal/auth"
	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/middleware"
	"github.com/mmynk/platepick/internal/validation"
)

// codeFor maps an error kind to its Connect code.
func codeFor(kind errs.Kind) connect.Code {
	switch kind {
	case errs.NotFound:
		return connect.CodeNotFound
	case errs.InvalidInput:
		return connect.CodeInvalidArgument
	case errs.Unauthorized:
		return connect.CodePermissionDenied
	case errs.Conflict:
		return connect.CodeAlreadyExists
	case errs.Timeout:
		return connect.CodeDeadlineExceeded
	case errs.Upstream:
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

// toConnectError converts err to a *connect.Error carrying the code of its
// kind. Errors that already are Connect errors pass through.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	if errs.KindOf(err) == errs.Unknown && errors.Is(err, context.Canceled) {
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(codeFor(errs.KindOf(err)), err)
}

// requireUser returns the authenticated caller's ID.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// validateRequest checks msg's validate tags.
func validateRequest(msg any) error {
	if err := validation.Struct(msg); err != nil {
		return toConnectError(err)
	}
	return nil
}
