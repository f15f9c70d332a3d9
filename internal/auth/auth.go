// Package auth gates bot access to the allowlisted Telegram users.
package auth

import "sync"

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Repository interface {
	LoadAll() ([]User, error)
	Upsert(user User) error
	Remove(userID int64) error
}

type Service struct {
	mu      sync.RWMutex
	repo    Repository
	allowed map[int64]User
}

// NewService preloads the allowlist from the repository and merges the
// env-seeded IDs (which carry no usernames).
func NewService(repo Repository, seed []int64) (*Service, error) {
	s := &Service{repo: repo, allowed: make(map[int64]User)}
	if repo != nil {
		users, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			s.allowed[u.ID] = u
		}
	}
	for _, id := range seed {
		if _, ok := s.allowed[id]; !ok {
			s.allowed[id] = User{ID: id}
		}
	}
	return s, nil
}

func (s *Service) IsAllowed(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allowed[userID]
	return ok
}

func (s *Service) Allow(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[user.ID] = user
	if s.repo != nil {
		return s.repo.Upsert(user)
	}
	return nil
}

func (s *Service) Revoke(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.allowed, userID)
	if s.repo != nil {
		return s.repo.Remove(userID)
	}
	return nil
}

func (s *Service) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.allowed))
	for _, u := range s.allowed {
		out = append(out, u)
	}
	return out
}
