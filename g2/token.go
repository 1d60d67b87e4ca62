package g2

import "sync"

// tokenManager holds the bearer token in process memory only — spec.md's
// Non-goals explicitly exclude persistence of tokens across process
// lifetimes (caller's concern).
//
// Open question resolution (SPEC_FULL.md §9 / spec.md §9): the cache is
// not invalidated on token change. The source's accepted rationale is
// that panel data is not user-specific, so a fresh token does not imply
// stale cached telemetry; this is kept exactly as specified.
type tokenManager struct {
	mu    sync.RWMutex
	value string
}

func (t *tokenManager) set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = token
}

func (t *tokenManager) get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}
