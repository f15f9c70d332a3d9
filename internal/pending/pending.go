// Package pending queues access requests from unknown users until the
// admin approves or denies them.
package pending

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Request is one unknown user waiting for an admin decision.
type Request struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	RequestedAt time.Time `json:"requested_at"`
}

type Repository struct {
	path string
	mu   sync.Mutex
}

func NewRepository(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return &Repository{path: path}, nil
}

// Add records a request if the user is not already queued. It reports
// whether a new request was added.
func (r *Repository) Add(req Request) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reqs, err := r.loadUnlocked()
	if err != nil {
		return false, err
	}
	for _, existing := range reqs {
		if existing.UserID == req.UserID {
			return false, nil
		}
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	return true, r.saveUnlocked(append(reqs, req))
}

// Take removes and returns the request for the given user, if queued.
func (r *Repository) Take(userID int64) (Request, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reqs, err := r.loadUnlocked()
	if err != nil {
		return Request{}, false, err
	}
	for i, req := range reqs {
		if req.UserID == userID {
			if err := r.saveUnlocked(append(reqs[:i], reqs[i+1:]...)); err != nil {
				return Request{}, false, err
			}
			return req, true, nil
		}
	}
	return Request{}, false, nil
}

func (r *Repository) List() ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *Repository) loadUnlocked() ([]Request, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pending requests: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var reqs []Request
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("parse pending requests: %w", err)
	}
	return reqs, nil
}

func (r *Repository) saveUnlocked(reqs []Request) error {
	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pending requests: %w", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write pending requests: %w", err)
	}
	return nil
}
