package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/config"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

const (
	sessionsKey          = "sessions"    // Sorted set: session IDs scored by start time
	sessionInfoPrefix    = "session:"    // Hash prefix: session:{id} -> scalar session fields
	sessionStudentsKey   = ":students"   // Set suffix: session:{id}:students -> enrolled student IDs
	instructorInfoPrefix = "instructor:" // String prefix: instructor:{id}:session -> holding session ID
)

// RedisService handles operations with the Redis database
type RedisService struct {
	Client  *redis.Client
	logger  *zap.Logger
	retries int
}

// NewRedisService creates a new RedisService instance. retries bounds how
// often a guarded update is replayed after a concurrent write.
func NewRedisService(client *redis.Client, logger *zap.Logger, retries int) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries <= 0 {
		retries = 1
	}
	return &RedisService{
		Client:  client,
		logger:  logger,
		retries: retries,
	}
}

func getSessionInfoKey(sessionID string) string {
	return sessionInfoPrefix + sessionID
}

func getSessionStudentsKey(sessionID string) string {
	return sessionInfoPrefix + sessionID + sessionStudentsKey
}

func getInstructorHolderKey(instructorID string) string {
	return instructorInfoPrefix + instructorID + ":session"
}

// --- Encoding ---

func sessionFields(s *models.Session) map[string]interface{} {
	return map[string]interface{}{
		"id":           s.ID,
		"date":         s.Date,
		"slotsTotal":   s.SlotsTotal,
		"slotsFilled":  s.SlotsFilled,
		"instructorId": s.InstructorID,
		"startTime":    s.StartTime,
		"endTime":      s.EndTime,
		"costPerHour":  s.CostPerHour.String(),
	}
}

// sessionScore orders sessions chronologically; the zone does not matter
// because all sessions are compared in the same one.
func sessionScore(s *models.Session) float64 {
	start, err := s.Start(time.UTC)
	if err != nil {
		return 0
	}
	return float64(start.Unix())
}

func decodeSession(data map[string]string, students []string) (*models.Session, error) {
	total, err := strconv.Atoi(data["slotsTotal"])
	if err != nil {
		return nil, fmt.Errorf("session %s: bad slotsTotal %q: %w", data["id"], data["slotsTotal"], err)
	}
	filled, err := strconv.Atoi(data["slotsFilled"])
	if err != nil {
		return nil, fmt.Errorf("session %s: bad slotsFilled %q: %w", data["id"], data["slotsFilled"], err)
	}
	cost, err := decimal.NewFromString(data["costPerHour"])
	if err != nil {
		return nil, fmt.Errorf("session %s: bad costPerHour %q: %w", data["id"], data["costPerHour"], err)
	}
	sort.Strings(students)
	if students == nil {
		students = []string{}
	}
	return &models.Session{
		ID:               data["id"],
		Date:             data["date"],
		SlotsTotal:       total,
		SlotsFilled:      filled,
		InstructorID:     data["instructorId"],
		StartTime:        data["startTime"],
		EndTime:          data["endTime"],
		CostPerHour:      cost,
		EnrolledStudents: students,
	}, nil
}

// writeSession queues the full state of one session on pipe.
func writeSession(ctx context.Context, pipe redis.Pipeliner, s *models.Session) {
	studentsKey := getSessionStudentsKey(s.ID)
	pipe.HSet(ctx, getSessionInfoKey(s.ID), sessionFields(s))
	pipe.Del(ctx, studentsKey)
	if len(s.EnrolledStudents) > 0 {
		members := make([]interface{}, len(s.EnrolledStudents))
		for i, id := range s.EnrolledStudents {
			members[i] = id
		}
		pipe.SAdd(ctx, studentsKey, members...)
	}
	pipe.ZAdd(ctx, sessionsKey, &redis.Z{Score: sessionScore(s), Member: s.ID})
}

// --- Session Operations ---

// SessionCount returns how many sessions are stored
func (s *RedisService) SessionCount(ctx context.Context) (int64, error) {
	count, err := s.Client.ZCard(ctx, sessionsKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// GetSession retrieves a session by its ID
func (s *RedisService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var infoCmd *redis.StringStringMapCmd
	var studentsCmd *redis.StringSliceCmd
	_, err := s.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		infoCmd = pipe.HGetAll(ctx, getSessionInfoKey(sessionID))
		studentsCmd = pipe.SMembers(ctx, getSessionStudentsKey(sessionID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("failed to get session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}
	data := infoCmd.Val()
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return decodeSession(data, studentsCmd.Val())
}

// ListSessions retrieves every session ordered by start time
func (s *RedisService) ListSessions(ctx context.Context) ([]models.Session, error) {
	ids, err := s.Client.ZRange(ctx, sessionsKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Session{}, nil
		}
		s.logger.Error("failed to list session IDs", zap.Error(err))
		return nil, fmt.Errorf("failed to get session IDs from Redis: %w", err)
	}
	if len(ids) == 0 {
		return []models.Session{}, nil
	}

	infoCmds := make([]*redis.StringStringMapCmd, len(ids))
	studentCmds := make([]*redis.StringSliceCmd, len(ids))
	_, err = s.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			infoCmds[i] = pipe.HGetAll(ctx, getSessionInfoKey(id))
			studentCmds[i] = pipe.SMembers(ctx, getSessionStudentsKey(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load sessions from Redis: %w", err)
	}

	sessions := make([]models.Session, 0, len(ids))
	for i, id := range ids {
		data := infoCmds[i].Val()
		if len(data) == 0 {
			// Index entry without a hash: skip it rather than fail the listing.
			s.logger.Warn("session indexed but missing", zap.String("session_id", id))
			continue
		}
		session, err := decodeSession(data, studentCmds[i].Val())
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// SaveSessions replaces the whole stored collection with sessions in one
// MULTI/EXEC and rebuilds the instructor index.
func (s *RedisService) SaveSessions(ctx context.Context, sessions []models.Session) error {
	holders := make(map[string]string)
	for i := range sessions {
		instructorID := sessions[i].InstructorID
		if instructorID == "" {
			continue
		}
		if other, ok := holders[instructorID]; ok {
			return fmt.Errorf("%w: %s on sessions %s and %s", ErrInstructorConflict, instructorID, other, sessions[i].ID)
		}
		holders[instructorID] = sessions[i].ID
	}

	existing, err := s.ListSessions(ctx)
	if err != nil {
		return err
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := range existing {
			pipe.Del(ctx, getSessionInfoKey(existing[i].ID), getSessionStudentsKey(existing[i].ID))
			if existing[i].InstructorID != "" {
				pipe.Del(ctx, getInstructorHolderKey(existing[i].InstructorID))
			}
		}
		pipe.Del(ctx, sessionsKey)
		for i := range sessions {
			writeSession(ctx, pipe, &sessions[i])
		}
		for instructorID, sessionID := range holders {
			pipe.Set(ctx, getInstructorHolderKey(instructorID), sessionID, 0)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to save sessions", zap.Int("count", len(sessions)), zap.Error(err))
		return fmt.Errorf("failed to save sessions to Redis: %w", err)
	}
	s.logger.Info("saved session collection", zap.Int("count", len(sessions)))
	return nil
}

// SeedIfEmpty stores seed when no session exists yet and reports whether it did.
func (s *RedisService) SeedIfEmpty(ctx context.Context, seed []models.Session) (bool, error) {
	count, err := s.SessionCount(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		s.logger.Info("sessions already present, skipping seed", zap.Int64("count", count))
		return false, nil
	}
	if err := s.SaveSessions(ctx, seed); err != nil {
		return false, err
	}
	return true, nil
}

// Update runs fn inside an optimistic transaction. Every key fn reads
// through the Txn is watched; if any of them changes before EXEC the whole
// function is replayed against fresh state.
func (s *RedisService) Update(ctx context.Context, fn func(*Txn) error) error {
	for attempt := 1; attempt <= s.retries; attempt++ {
		err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
			t := newTxn(ctx, tx)
			if err := fn(t); err != nil {
				return err
			}
			return t.commit()
		})
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("session update raced, retrying", zap.Int("attempt", attempt))
			continue
		}
		return err
	}
	s.logger.Warn("session update gave up", zap.Int("attempts", s.retries))
	return ErrTooManyRetries
}

// Ping checks the connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
