package g2

import (
	"context"
	"sync/atomic"
)

// fakeSource is an in-memory dataSource/writableSource/authSource double
// driving the Client orchestration tests without a real HTTP server.
type fakeSource struct {
	status   StatusResponse
	panel    PanelStateResponse
	circuits CircuitsResponse
	storage  StorageSOEResponse

	statusErr   error
	panelErr    error
	circuitsErr error
	storageErr  error

	statusCalls   atomic.Int32
	panelCalls    atomic.Int32
	circuitsCalls atomic.Int32
	storageCalls  atomic.Int32

	relayCalls    atomic.Int32
	priorityCalls atomic.Int32

	authCalls   atomic.Int32
	lastToken   string
	authToken   string
}

func (f *fakeSource) FetchStatus(ctx context.Context) (StatusResponse, error) {
	f.statusCalls.Add(1)
	if f.statusErr != nil {
		err := f.statusErr
		f.statusErr = nil
		return StatusResponse{}, err
	}
	return f.status, nil
}

func (f *fakeSource) FetchPanelState(ctx context.Context) (PanelStateResponse, error) {
	f.panelCalls.Add(1)
	if f.panelErr != nil {
		err := f.panelErr
		f.panelErr = nil
		return PanelStateResponse{}, err
	}
	return f.panel, nil
}

func (f *fakeSource) FetchCircuits(ctx context.Context) (CircuitsResponse, error) {
	f.circuitsCalls.Add(1)
	if f.circuitsErr != nil {
		err := f.circuitsErr
		f.circuitsErr = nil
		return CircuitsResponse{}, err
	}
	return f.circuits, nil
}

func (f *fakeSource) FetchStorageSOE(ctx context.Context) (StorageSOEResponse, error) {
	f.storageCalls.Add(1)
	if f.storageErr != nil {
		err := f.storageErr
		f.storageErr = nil
		return StorageSOEResponse{}, err
	}
	return f.storage, nil
}

func (f *fakeSource) SetCircuitRelay(ctx context.Context, id, state string) error {
	f.relayCalls.Add(1)
	return nil
}

func (f *fakeSource) SetCircuitPriority(ctx context.Context, id, priority string) error {
	f.priorityCalls.Add(1)
	return nil
}

func (f *fakeSource) Authenticate(ctx context.Context, name, description string) (AuthResponse, error) {
	f.authCalls.Add(1)
	return AuthResponse{AccessToken: f.authToken}, nil
}

func (f *fakeSource) SetAccessToken(token string) {
	f.lastToken = token
}
