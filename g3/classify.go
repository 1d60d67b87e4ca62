package g3

import (
	"context"
	"errors"
	"net"

	"panelclient/internal/model"
)

// classifyTCP maps a raw dial/read/write failure to the library's
// ErrorKind taxonomy (spec §7): a timed-out dial or read is distinguished
// from a hard connection refusal so callers can tell a slow panel from an
// absent one.
func classifyTCP(err error) model.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.Timeout
	}
	return model.GrpcConnect
}
