package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/qlip/internal/history"
)

// ErrNoClipboard is returned by Use and SetPaused when the daemon runs
// without clipboard capture.
var ErrNoClipboard = errors.New("clipboard capture is disabled")

// toStatus maps store errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, history.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, history.ErrEmptyContent), errors.Is(err, history.ErrInvalidKind):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNoClipboard):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus maps gRPC status codes back onto the sentinel errors so that
// callers can use errors.Is regardless of transport.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return history.ErrNotFound
	case codes.InvalidArgument:
		if st.Message() == history.ErrEmptyContent.Error() {
			return history.ErrEmptyContent
		}
		return history.ErrInvalidKind
	case codes.FailedPrecondition:
		return ErrNoClipboard
	}
	return err
}
