package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/db"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

// DefaultCancelCutoff is how long before the start a registration stops
// being cancellable.
const DefaultCancelCutoff = 24 * time.Hour

// IsAvailable reports whether a session still has a free slot.
func IsAvailable(s models.Session) bool {
	return s.IsAvailable()
}

// CanCancel applies DefaultCancelCutoff.
func CanCancel(start, now time.Time) bool {
	return CanCancelWithin(start, now, DefaultCancelCutoff)
}

// CanCancelWithin is true only when strictly more than cutoff remains
// before start. Sessions already started never qualify.
func CanCancelWithin(start, now time.Time, cutoff time.Duration) bool {
	return start.Sub(now) > cutoff
}

type BookingService struct {
	store    *db.RedisService
	notifier Notifier
	logger   *zap.Logger
	cutoff   time.Duration
	loc      *time.Location
	now      func() time.Time
}

type BookingOption func(*BookingService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) BookingOption {
	return func(b *BookingService) { b.now = now }
}

func WithCancelCutoff(cutoff time.Duration) BookingOption {
	return func(b *BookingService) { b.cutoff = cutoff }
}

// WithLocation sets the zone session dates and times are written in.
func WithLocation(loc *time.Location) BookingOption {
	return func(b *BookingService) {
		if loc != nil {
			b.loc = loc
		}
	}
}

func NewBookingService(store *db.RedisService, notifier Notifier, logger *zap.Logger, opts ...BookingOption) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BookingService{
		store:    store,
		notifier: notifierOrNop(notifier),
		logger:   logger,
		cutoff:   DefaultCancelCutoff,
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now is the service clock, in the session time zone.
func (b *BookingService) Now() time.Time {
	return b.now().In(b.loc)
}

// CanCancelSession checks the cutoff for s against the service clock.
func (b *BookingService) CanCancelSession(s models.Session) (bool, error) {
	start, err := s.Start(b.loc)
	if err != nil {
		return false, err
	}
	return CanCancelWithin(start, b.now(), b.cutoff), nil
}

// CancelDeadline is the last moment a registration for s can be cancelled.
func (b *BookingService) CancelDeadline(s models.Session) (time.Time, error) {
	start, err := s.Start(b.loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-b.cutoff), nil
}

func studentOf(actor models.Actor) (string, error) {
	if actor.Role != models.RoleParent || actor.StudentID == "" {
		return "", fmt.Errorf("%w: only parents with a student can book", ErrForbidden)
	}
	return actor.StudentID, nil
}

// IsEnrolled reports whether studentID holds a registration for sessionID.
func (b *BookingService) IsEnrolled(ctx context.Context, studentID, sessionID string) (bool, error) {
	session, err := b.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.HasStudent(studentID), nil
}

// Register books one slot of sessionID for the actor's student.
func (b *BookingService) Register(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error) {
	studentID, err := studentOf(actor)
	if err != nil {
		return nil, err
	}

	var result models.Session
	err = b.store.Update(ctx, func(tx *db.Txn) error {
		session, err := tx.Session(sessionID)
		if err != nil {
			return err
		}
		if session.HasStudent(studentID) {
			return ErrAlreadyEnrolled
		}
		if !session.IsAvailable() {
			return ErrSessionFull
		}
		session.EnrolledStudents = append(session.EnrolledStudents, studentID)
		session.SlotsFilled++
		tx.Put(session)
		result = session.Clone()
		return nil
	})
	if err != nil {
		b.logger.Info("registration refused",
			zap.String("session_id", sessionID), zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	b.logger.Info("student registered",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.String("username", actor.Username),
		zap.Int("slots_filled", result.SlotsFilled),
		zap.Int("slots_total", result.SlotsTotal))
	b.notifier.SessionChanged(result, ReasonRegistered)
	return &result, nil
}

// Cancel releases the actor's registration, unless the session starts
// within the cutoff.
func (b *BookingService) Cancel(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error) {
	studentID, err := studentOf(actor)
	if err != nil {
		return nil, err
	}

	var result models.Session
	err = b.store.Update(ctx, func(tx *db.Txn) error {
		session, err := tx.Session(sessionID)
		if err != nil {
			return err
		}
		ok, err := b.CanCancelSession(*session)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w (%s before start)", ErrCancelCutoff, b.cutoff)
		}
		if !session.HasStudent(studentID) {
			return ErrNotEnrolled
		}

		remaining := session.EnrolledStudents[:0]
		for _, id := range session.EnrolledStudents {
			if id != studentID {
				remaining = append(remaining, id)
			}
		}
		session.EnrolledStudents = remaining
		if session.SlotsFilled > 0 {
			session.SlotsFilled--
		}
		tx.Put(session)
		result = session.Clone()
		return nil
	})
	if err != nil {
		b.logger.Info("cancellation refused",
			zap.String("session_id", sessionID), zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	b.logger.Info("registration cancelled",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.String("username", actor.Username),
		zap.Int("slots_filled", result.SlotsFilled))
	b.notifier.SessionChanged(result, ReasonCancelled)
	return &result, nil
}

// Enrollments returns the sessions studentID is registered for, in
// chronological order.
func (b *BookingService) Enrollments(ctx context.Context, studentID string) ([]models.Session, error) {
	sessions, err := b.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Session{}
	for _, s := range sessions {
		if s.HasStudent(studentID) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Sessions lists every session.
func (b *BookingService) Sessions(ctx context.Context) ([]models.Session, error) {
	return b.store.ListSessions(ctx)
}

// Session looks one session up.
func (b *BookingService) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	return b.store.GetSession(ctx, sessionID)
}
