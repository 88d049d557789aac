package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/sobanshoaib/schedular-app-challenge/models"
)

// Txn is the working set of one RedisService.Update call. Reads go through
// WATCH so a concurrent write aborts the EXEC; writes are buffered and
// flushed together.
type Txn struct {
	ctx context.Context
	tx  *redis.Tx

	sessions map[string]*models.Session // nil value: looked up, does not exist
	dirty    []string

	holders      map[string]string // instructor ID -> session ID, "" when free
	dirtyHolders []string
}

func newTxn(ctx context.Context, tx *redis.Tx) *Txn {
	return &Txn{
		ctx:      ctx,
		tx:       tx,
		sessions: make(map[string]*models.Session),
		holders:  make(map[string]string),
	}
}

// Session returns the session for mutation. Changes only persist after Put.
func (t *Txn) Session(sessionID string) (*models.Session, error) {
	if s, ok := t.sessions[sessionID]; ok {
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return s, nil
	}

	infoKey := getSessionInfoKey(sessionID)
	studentsKey := getSessionStudentsKey(sessionID)
	if err := t.tx.Watch(t.ctx, infoKey, studentsKey).Err(); err != nil {
		return nil, fmt.Errorf("failed to watch session %s: %w", sessionID, err)
	}

	data, err := t.tx.HGetAll(t.ctx, infoKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	if len(data) == 0 {
		t.sessions[sessionID] = nil
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	students, err := t.tx.SMembers(t.ctx, studentsKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get students of session %s: %w", sessionID, err)
	}

	session, err := decodeSession(data, students)
	if err != nil {
		return nil, err
	}
	t.sessions[sessionID] = session
	return session, nil
}

// Put schedules s to be written on commit. New sessions are fine too.
func (t *Txn) Put(s *models.Session) {
	t.sessions[s.ID] = s
	for _, id := range t.dirty {
		if id == s.ID {
			return
		}
	}
	t.dirty = append(t.dirty, s.ID)
}

// Holder returns the ID of the session the instructor is assigned to, or ""
func (t *Txn) Holder(instructorID string) (string, error) {
	if sessionID, ok := t.holders[instructorID]; ok {
		return sessionID, nil
	}

	key := getInstructorHolderKey(instructorID)
	if err := t.tx.Watch(t.ctx, key).Err(); err != nil {
		return "", fmt.Errorf("failed to watch instructor %s: %w", instructorID, err)
	}
	sessionID, err := t.tx.Get(t.ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("failed to get assignment of instructor %s: %w", instructorID, err)
		}
		sessionID = ""
	}
	t.holders[instructorID] = sessionID
	return sessionID, nil
}

// SetHolder records that instructorID now holds sessionID ("" frees it).
func (t *Txn) SetHolder(instructorID, sessionID string) {
	t.holders[instructorID] = sessionID
	for _, id := range t.dirtyHolders {
		if id == instructorID {
			return
		}
	}
	t.dirtyHolders = append(t.dirtyHolders, instructorID)
}

func (t *Txn) changed() bool {
	return len(t.dirty) > 0 || len(t.dirtyHolders) > 0
}

func (t *Txn) commit() error {
	if !t.changed() {
		return nil
	}
	_, err := t.tx.TxPipelined(t.ctx, func(pipe redis.Pipeliner) error {
		for _, id := range t.dirty {
			writeSession(t.ctx, pipe, t.sessions[id])
		}
		for _, instructorID := range t.dirtyHolders {
			key := getInstructorHolderKey(instructorID)
			if sessionID := t.holders[instructorID]; sessionID != "" {
				pipe.Set(t.ctx, key, sessionID, 0)
			} else {
				pipe.Del(t.ctx, key)
			}
		}
		return nil
	})
	return err
}
