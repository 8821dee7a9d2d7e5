package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// mapError turns a gRPC status into the matching common sentinel. The
// server's message is kept when it says more than the sentinel does.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		switch st.Message() {
		case common.ErrTokenExpired.Error():
			sentinel = common.ErrTokenExpired
		case common.ErrRefreshTokenExpired.Error():
			sentinel = common.ErrRefreshTokenExpired
		default:
			sentinel = common.ErrorUnauthorized
		}
	case codes.PermissionDenied:
		sentinel = common.ErrReauthRequired
	case codes.NotFound:
		sentinel = common.ErrorNotFound
	case codes.AlreadyExists:
		sentinel = common.ErrorAlreadyExists
	case codes.InvalidArgument:
		sentinel = common.ErrorValidation
	case codes.FailedPrecondition:
		sentinel = common.ErrMissingIdentifier
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Canceled:
		return fmt.Errorf("rpc error: %w", err)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}

	if msg := st.Message(); msg != "" && msg != sentinel.Error() {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return sentinel
}
