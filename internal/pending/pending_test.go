package pending

import (
	"path/filepath"
	"testing"
)

func TestRepository_AddTakeCycle(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "pending.json"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	added, err := repo.Add(Request{UserID: 1, Username: "alice"})
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = repo.Add(Request{UserID: 1, Username: "alice"})
	if err != nil || added {
		t.Fatalf("duplicate must not re-queue: added=%v err=%v", added, err)
	}
	if _, err := repo.Add(Request{UserID: 2, Username: "bob"}); err != nil {
		t.Fatalf("second add: %v", err)
	}

	reqs, err := repo.List()
	if err != nil || len(reqs) != 2 {
		t.Fatalf("list: %+v err=%v", reqs, err)
	}
	if reqs[0].RequestedAt.IsZero() {
		t.Fatalf("requested_at not stamped: %+v", reqs[0])
	}

	req, ok, err := repo.Take(1)
	if err != nil || !ok || req.Username != "alice" {
		t.Fatalf("take: %+v ok=%v err=%v", req, ok, err)
	}
	if _, ok, _ := repo.Take(1); ok {
		t.Fatalf("taken request still queued")
	}

	reqs, _ = repo.List()
	if len(reqs) != 1 || reqs[0].UserID != 2 {
		t.Fatalf("unexpected remainder: %+v", reqs)
	}
}
