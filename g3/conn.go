package g3

import (
	"context"
	"net"

	"panelclient/internal/model"
	"panelclient/internal/wire"
)

// Request/response envelope field numbers. The three RPC methods share one
// plaintext channel (spec §6: "three methods on a single service"), so
// every frame is wrapped in a small envelope naming which method it
// belongs to and carrying a status code on the way back.
const (
	envMethodID  = 1 // request: which method (methodGetInstances/GetRevision/Subscribe)
	envStatus    = 1 // response: 0 = ok, nonzero = error
	envPayload   = 2 // request and response: method-specific payload bytes
	envErrorText = 3 // response: human-readable error detail when status != 0
)

const (
	methodGetInstances = 1
	methodGetRevision  = 2
	methodSubscribe    = 3
)

func encodeRequestEnvelope(methodID int, payload []byte) []byte {
	buf := wire.PutVarintField(nil, envMethodID, uint64(methodID))
	return wire.PutBytesField(buf, envPayload, payload)
}

func decodeResponseEnvelope(frame []byte) (status int, payload []byte, errText string, err error) {
	derr := wire.Dispatch(frame, func(f wire.Field) bool {
		switch f.Number {
		case envStatus:
			v, e := f.Uint64()
			if e != nil {
				err = e
				return false
			}
			status = int(v)
		case envPayload:
			b, e := f.Bytes()
			if e != nil {
				err = e
				return false
			}
			payload = b
		case envErrorText:
			b, e := f.Bytes()
			if e != nil {
				err = e
				return false
			}
			errText = string(b)
		}
		return true
	})
	if derr != nil {
		return 0, nil, "", derr
	}
	return status, payload, errText, err
}

// rpcChannel is a plaintext TCP connection to the panel's RPC service
// (spec §4.E: "opens a plaintext RPC channel to port 50065. No
// credentials."). It is not safe for concurrent use by more than one
// in-flight request/response call at a time; the client serializes
// GetInstances/GetRevision calls and owns a dedicated channel for the
// long-lived Subscribe stream.
type rpcChannel struct {
	conn net.Conn
}

func dial(ctx context.Context, address string) (*rpcChannel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, model.NewError(classifyTCP(err), "g3.connect", err)
	}
	return &rpcChannel{conn: conn}, nil
}

func (c *rpcChannel) close() error {
	return c.conn.Close()
}

// call sends one request envelope and reads exactly one response envelope,
// for GetInstances and GetRevision.
func (c *rpcChannel) call(methodID int, payload []byte) ([]byte, error) {
	req := encodeRequestEnvelope(methodID, payload)
	if err := wire.WriteLengthPrefixedMessage(c.conn, req); err != nil {
		return nil, model.NewError(model.GrpcError, "g3.call", err)
	}
	frame, err := wire.ReadLengthPrefixedMessage(c.conn)
	if err != nil {
		return nil, model.NewError(model.CodecError, "g3.call", err)
	}
	status, respPayload, errText, err := decodeResponseEnvelope(frame)
	if err != nil {
		return nil, model.NewError(model.CodecError, "g3.call", err)
	}
	if status != 0 {
		return nil, model.NewError(model.GrpcError, "g3.call", errorString(errText))
	}
	return respPayload, nil
}

// subscribe sends the Subscribe request once, then invokes onFrame for
// every subsequent response envelope's payload until onFrame returns
// false, the channel errors, or it is closed from another goroutine
// (stop_streaming closes the underlying conn to unblock the read).
func (c *rpcChannel) subscribe(onFrame func(payload []byte) bool) error {
	req := encodeRequestEnvelope(methodSubscribe, nil)
	if err := wire.WriteLengthPrefixedMessage(c.conn, req); err != nil {
		return model.NewError(model.GrpcError, "g3.subscribe", err)
	}
	for {
		frame, err := wire.ReadLengthPrefixedMessage(c.conn)
		if err != nil {
			return err
		}
		status, payload, errText, err := decodeResponseEnvelope(frame)
		if err != nil {
			return model.NewError(model.CodecError, "g3.subscribe", err)
		}
		if status != 0 {
			return model.NewError(model.GrpcError, "g3.subscribe", errorString(errText))
		}
		if !onFrame(payload) {
			return nil
		}
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }
