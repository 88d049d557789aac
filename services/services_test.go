package services

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/db"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

var (
	parent = models.Actor{Username: "parent", Role: models.RoleParent, StudentID: "s1"}
	admin  = models.Actor{Username: "admin", Role: models.RoleAdmin}
)

func parentOf(studentID string) models.Actor {
	return models.Actor{Username: "parent-" + studentID, Role: models.RoleParent, StudentID: studentID}
}

// recorder collects notifications.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) SessionChanged(s models.Session, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, reason+":"+s.ID)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newStore(t *testing.T, sessions []models.Session) *db.RedisService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := db.NewRedisService(client, zap.NewNop(), 20)
	if sessions != nil {
		if err := store.SaveSessions(context.Background(), sessions); err != nil {
			t.Fatalf("SaveSessions: %v", err)
		}
	}
	return store
}

func mustGet(t *testing.T, store *db.RedisService, id string) *models.Session {
	t.Helper()
	s, err := store.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSession(%s): %v", id, err)
	}
	return s
}
