package panelclient

import "panelclient/internal/model"

// ErrorKind classifies every failure the library can surface, per the
// G2/G3 error taxonomy (spec §7). Aliased from internal/model so that the
// g2 and g3 transport packages can construct classified errors without
// importing this root package (which in turn constructs g2/g3 clients in
// factory.go), avoiding an import cycle while keeping one public type.
type ErrorKind = model.ErrorKind

const (
	AuthError         = model.AuthError
	ValidationError   = model.ValidationError
	UnexpectedStatus  = model.UnexpectedStatus
	ServerError       = model.ServerError
	RetriableHttp     = model.RetriableHttp
	NetworkConnect    = model.NetworkConnect
	Timeout           = model.Timeout
	GrpcError         = model.GrpcError
	GrpcConnect       = model.GrpcConnect
	CodecError        = model.CodecError
	TopologyMismatch  = model.TopologyMismatch
	ConfigError       = model.ConfigError
	NoTransport       = model.NoTransport
)

// Error is the error type every exported operation returns.
type Error = model.Error

// NewError constructs a classified error for the given operation.
func NewError(kind ErrorKind, op string, cause error) *Error {
	return model.NewError(kind, op, cause)
}

// IsRetriable reports whether the retry engine should consider this kind
// for automatic retry.
func IsRetriable(kind ErrorKind) bool { return kind.Retriable() }

var (
	ErrNoTransport      = model.ErrNoTransport
	ErrTopologyMismatch = model.ErrTopologyMismatch
)
