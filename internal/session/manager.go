package session

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/guidebase/guidebase/internal/gateway"
)

// State is the tri-state validity of the held credential.
type State int

const (
	// Unverified means a token may be held but has not been probed this run.
	Unverified State = iota
	// Valid means the verification probe has succeeded for the held token.
	Valid
	// Invalid means the service rejected the credential; the persisted token
	// has been cleared.
	Invalid
)

func (s State) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by Verify when a newer verify call for the same
// token was initiated while this one was in flight; the outcome was discarded.
var ErrSuperseded = errors.New("session: verify superseded by a newer attempt")

// ErrNotSignedIn is returned when an operation needs a verified credential.
var ErrNotSignedIn = errors.New("session: not signed in")

const expiredNotice = "Session expired. Sign in again."

// Verifier is the slice of the gateway the manager needs.
type Verifier interface {
	VerifyAdmin(ctx context.Context, token string) error
}

// Manager owns the credential token and its validity state.
//
// Transition rules (no others permitted):
//
//	unverified --verify success--> valid
//	unverified --verify 401-----> invalid
//	valid      --any call 401---> invalid
//	valid      --logout---------> unverified
//	invalid    --login success--> valid
//
// A token is never treated as valid until the verification probe has
// succeeded at least once in the current process lifetime. Any 401 clears
// the persisted token.
//
// Concurrent verify calls for the same token resolve last-initiated-wins: a
// completion belonging to a superseded attempt is discarded. Calls for
// different tokens resolve last-resolved-wins.
type Manager struct {
	verifier Verifier
	store    Store

	mu                sync.Mutex
	state             State
	token             string
	notice            string
	verifySeq         uint64
	latestVerifyToken string
}

// NewManager creates a manager in the unverified state with no token.
func NewManager(verifier Verifier, store Store) *Manager {
	return &Manager{verifier: verifier, store: store}
}

// Restore loads a persisted token, if any, and verifies it. A missing token
// leaves the manager unverified with nothing to do. The restored token is not
// assumed valid: only a successful probe promotes it.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	m.mu.Lock()
	m.token = token
	m.state = Unverified
	m.mu.Unlock()

	return m.Verify(ctx, token)
}

// Verify probes the admin endpoint with the given token.
//
// On success the token is persisted and the session becomes valid. On a 401
// the session becomes invalid and the persisted token is cleared. Any other
// failure is transient: it is surfaced without mutating session or persisted
// state, so "not authorized" stays distinguishable from "could not check".
func (m *Manager) Verify(ctx context.Context, token string) error {
	m.mu.Lock()
	m.verifySeq++
	seq := m.verifySeq
	m.latestVerifyToken = token
	m.mu.Unlock()

	err := m.verifier.VerifyAdmin(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.verifySeq && token == m.latestVerifyToken {
		// A newer verify for the same token was initiated while this one was
		// in flight; its outcome governs, not ours.
		return ErrSuperseded
	}

	if err == nil {
		if storeErr := m.store.Save(token); storeErr != nil {
			log.Printf("[session] failed to persist credential: %v", storeErr)
		}
		m.token = token
		m.state = Valid
		m.notice = ""
		return nil
	}

	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		m.expireLocked()
		return err
	}

	// Transient failure: leave state and persisted token untouched.
	return err
}

// Login encodes the credentials into the Basic token the gateway expects and
// verifies them. On success this becomes the active session.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return m.Verify(ctx, token)
}

// Logout clears the persisted and in-memory credential synchronously. It
// always succeeds and never touches the network.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		log.Printf("[session] failed to clear credential store: %v", err)
	}
	m.token = ""
	m.state = Unverified
	m.notice = "Signed out."
}

// Expire is the shared 401 path: any authorized call that receives a 401
// routes through here, regardless of which call it was. The session becomes
// invalid and the persisted token is cleared.
func (m *Manager) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
}

func (m *Manager) expireLocked() {
	if err := m.store.Clear(); err != nil {
		log.Printf("[session] failed to clear credential store: %v", err)
	}
	m.token = ""
	m.state = Invalid
	m.notice = expiredNotice
}

// Token returns the active credential. It is only available while the
// session is valid.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Valid || m.token == "" {
		return "", false
	}
	return m.token, true
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Notice returns the pending human-readable status message, such as the
// session-expired prompt.
func (m *Manager) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}
