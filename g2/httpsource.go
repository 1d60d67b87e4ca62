package g2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// httpSource is the live dataSource talking to an actual G2 panel over
// HTTP, with bearer-token authentication. The underlying typed HTTP layer
// raises on any status outside an endpoint's declared response set (spec
// §4.D), surfaced here as an *httpError for classify.go to map.
type httpSource struct {
	baseURL string
	client  *http.Client
	token   *tokenManager
}

func newHTTPSource(baseURL string, client *http.Client, token *tokenManager) *httpSource {
	return &httpSource{baseURL: baseURL, client: client, token: token}
}

func (s *httpSource) do(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &httpError{err: fmt.Errorf("g2: encode request: %w", err)}
		}
		reqBody = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return &httpError{err: fmt.Errorf("g2: build request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if tok := s.token.get(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &httpError{err: fmt.Errorf("g2: request %s: %w", path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpError{status: resp.StatusCode, err: fmt.Errorf("g2: %s returned status %d", path, resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &httpError{err: fmt.Errorf("g2: decode %s response: %w", path, err)}
	}
	return nil
}

func (s *httpSource) FetchStatus(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := s.do(ctx, http.MethodGet, "/api/v1/status", nil, true, &out)
	return out, err
}

func (s *httpSource) FetchPanelState(ctx context.Context) (PanelStateResponse, error) {
	var out PanelStateResponse
	err := s.do(ctx, http.MethodGet, "/api/v1/panel", nil, true, &out)
	return out, err
}

func (s *httpSource) FetchCircuits(ctx context.Context) (CircuitsResponse, error) {
	var out CircuitsResponse
	err := s.do(ctx, http.MethodGet, "/api/v1/circuits", nil, true, &out)
	return out, err
}

func (s *httpSource) FetchStorageSOE(ctx context.Context) (StorageSOEResponse, error) {
	var out StorageSOEResponse
	err := s.do(ctx, http.MethodGet, "/api/v1/storage/soe", nil, true, &out)
	return out, err
}

func (s *httpSource) SetCircuitRelay(ctx context.Context, id string, state string) error {
	path := fmt.Sprintf("/api/v1/circuits/%s/relay", id)
	return s.do(ctx, http.MethodPost, path, map[string]string{"relay_state": state}, true, nil)
}

func (s *httpSource) SetCircuitPriority(ctx context.Context, id string, priority string) error {
	path := fmt.Sprintf("/api/v1/circuits/%s/priority", id)
	return s.do(ctx, http.MethodPost, path, map[string]string{"priority": priority}, true, nil)
}

func (s *httpSource) Authenticate(ctx context.Context, name, description string) (AuthResponse, error) {
	var out AuthResponse
	err := s.do(ctx, http.MethodPost, "/api/v1/auth", map[string]string{"name": name, "description": description}, false, &out)
	return out, err
}

func (s *httpSource) SetAccessToken(token string) {
	s.token.set(token)
}

// ping is used by the factory's auto-detect probe (spec §4.H): a cheap
// unauthenticated call that succeeds iff a G2 panel answers.
func (s *httpSource) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/status", nil)
	if err != nil {
		return &httpError{err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &httpError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpError{status: resp.StatusCode, err: fmt.Errorf("g2: ping returned status %d", resp.StatusCode)}
	}
	return nil
}
