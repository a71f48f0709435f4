package challenge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

type journalEntry struct {
	Key   string `json:"key"`
	State string `json:"state"`
	TS    string `json:"ts"`
}

// Store tracks the terminal state of every (service_id, challenge_nonce)
// pair a service has attempted, so that a given pair can be Consumed at
// most once (§8: "Challenge uniqueness") even under concurrent callback
// delivery (§5). An optional append-only journal file lets the tracked
// state survive a process restart; pass an empty path for an in-memory
// store suitable for tests or single-process demos.
type Store struct {
	path string

	mu      sync.Mutex
	claimed map[string]struct{}
	final   map[string]heshatypes.ChallengeState
}

// NewStore builds a Store, loading any previously recorded terminal
// states from path if it exists. An empty path disables persistence.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    path,
		claimed: make(map[string]struct{}),
		final:   make(map[string]heshatypes.ChallengeState),
	}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("challenge: load journal: %w", err)
	}
	return s, nil
}

// key is the replay-protection key for one challenge_nonce, scoped to
// the service that issued it.
func key(serviceID, challengeNonce string) string {
	return serviceID + "|" + challengeNonce
}

// tryClaim atomically reserves (serviceID, challengeNonce) for
// processing. If it was already claimed — in flight or terminal — it
// returns false along with whatever final state was recorded (which
// may be the zero value if the prior attempt is still in flight, an
// edge case this single-process implementation does not expect since
// finish always runs synchronously before a claim's caller returns).
func (s *Store) tryClaim(serviceID, challengeNonce string) (ok bool, prior heshatypes.ChallengeState) {
	k := key(serviceID, challengeNonce)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.claimed[k]; taken {
		return false, s.final[k]
	}
	s.claimed[k] = struct{}{}
	return true, ""
}

// finish records the terminal state reached for (serviceID,
// challengeNonce) and persists it if the store was opened with a path.
func (s *Store) finish(serviceID, challengeNonce string, state heshatypes.ChallengeState, now time.Time) error {
	k := key(serviceID, challengeNonce)
	s.mu.Lock()
	s.final[k] = state
	s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	entry := journalEntry{Key: k, State: string(state), TS: now.UTC().Format(time.RFC3339Nano)}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.appendLine(string(b))
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var e journalEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		if e.Key == "" {
			continue
		}
		s.claimed[e.Key] = struct{}{}
		s.final[e.Key] = heshatypes.ChallengeState(e.State)
	}
	return scanner.Err()
}

func (s *Store) appendLine(line string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("challenge: journal mkdir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("challenge: journal open: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("challenge: journal write: %w", err)
	}
	return f.Sync()
}
