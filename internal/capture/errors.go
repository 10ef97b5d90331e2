package capture

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by clip extraction. Triggering callers branch on
// these with errors.Is; the daemon API maps them to response codes.
var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrEncodingUnavailable = errors.New("encoding unavailable")
	ErrMuxingFailure       = errors.New("muxing failure")
	ErrCancelled           = errors.New("capture cancelled")
	ErrTimeout             = errors.New("capture timed out")
)

// wrap tags an error with one of the exported kinds plus operation context.
func wrap(kind error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", kind, detail, err)
	}
	return fmt.Errorf("%w: %s", kind, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "capture failure"
	}
	return strings.Join(parts, ": ")
}
