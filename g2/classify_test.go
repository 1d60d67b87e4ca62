package g2

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"panelclient/internal/model"
	"panelclient/internal/retry"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestClassifyHTTPStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   model.ErrorKind
	}{
		{401, model.AuthError},
		{403, model.AuthError},
		{500, model.ServerError},
		{502, model.RetriableHttp},
		{503, model.RetriableHttp},
		{504, model.RetriableHttp},
		{418, model.UnexpectedStatus},
	}
	for _, tc := range cases {
		got := classifyHTTP(&httpError{status: tc.status, err: errors.New("x")})
		require.Equal(t, tc.want, got, "status %d", tc.status)
	}
}

func TestClassifyHTTPContextDeadline(t *testing.T) {
	require.Equal(t, model.Timeout, classifyHTTP(context.DeadlineExceeded))
}

func TestClassifyHTTPNetErrors(t *testing.T) {
	require.Equal(t, model.Timeout, classifyHTTP(fakeNetError{timeout: true}))
	var _ net.Error = fakeNetError{}
	require.Equal(t, model.NetworkConnect, classifyHTTP(fakeNetError{timeout: false}))
}

func TestClassifyHTTPFallsBackToValidation(t *testing.T) {
	require.Equal(t, model.ValidationError, classifyHTTP(errors.New("weird")))
}

func TestRetryKindMapping(t *testing.T) {
	require.Equal(t, retry.KindAuth, retryKind(model.AuthError))
	require.Equal(t, retry.KindTransient, retryKind(model.RetriableHttp))
	require.Equal(t, retry.KindTransient, retryKind(model.Timeout))
	require.Equal(t, retry.KindTerminal, retryKind(model.ServerError))
	require.Equal(t, retry.KindTerminal, retryKind(model.ValidationError))
}
