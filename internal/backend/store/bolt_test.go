package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestBoltPersistsUsersAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.db")

	db, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}

	s := New()
	if err := s.AttachBolt(db); err != nil {
		t.Fatalf("AttachBolt failed: %v", err)
	}
	err = s.SetUser(User{
		ID:        "u1",
		Email:     "ada@example.com",
		UserCards: []json.RawMessage{json.RawMessage(`"Amex Gold"`)},
	})
	if err != nil {
		t.Fatalf("SetUser failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db2, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	fresh := New()
	if err := fresh.AttachBolt(db2); err != nil {
		t.Fatalf("AttachBolt on reopen failed: %v", err)
	}

	got, ok := fresh.GetUser("ada@example.com")
	if !ok {
		t.Fatal("expected persisted user after reopen")
	}
	if len(got.UserCards) != 1 || string(got.UserCards[0]) != `"Amex Gold"` {
		t.Errorf("expected cards to survive persistence, got %v", got.UserCards)
	}
}

func TestBoltLoadUsersEmpty(t *testing.T) {
	db, err := OpenBolt(filepath.Join(t.TempDir(), "advisor.db"))
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	defer db.Close()

	users, err := db.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty database, got %d users", len(users))
	}
}
