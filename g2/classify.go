package g2

import (
	"context"
	"errors"
	"net"

	"panelclient/internal/model"
	"panelclient/internal/retry"
)

// httpError carries a response status code through the classification path.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

// classifyHTTP maps a raw transport/HTTP failure to the library's
// ErrorKind taxonomy (spec §7).
func classifyHTTP(err error) model.ErrorKind {
	var he *httpError
	if errors.As(err, &he) && he.status != 0 {
		switch he.status {
		case 401, 403:
			return model.AuthError
		case 500:
			return model.ServerError
		case 502, 503, 504:
			return model.RetriableHttp
		default:
			return model.UnexpectedStatus
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return model.Timeout
		}
		return model.NetworkConnect
	}
	return model.ValidationError
}

// retryKind adapts an ErrorKind into the retry engine's coarser Kind,
// modeling the G2-specific AuthError escalation (spec §4.C): from the
// retry engine's own point of view AuthError is never itself retried —
// the one forced re-authentication pass is handled by the caller
// (endpoint wrapper), one layer above the engine.
func retryKind(kind model.ErrorKind) retry.Kind {
	if kind == model.AuthError {
		return retry.KindAuth
	}
	if kind.Retriable() {
		return retry.KindTransient
	}
	return retry.KindTerminal
}

func retryClassifier(err error) retry.Kind {
	return retryKind(classifyHTTP(err))
}
