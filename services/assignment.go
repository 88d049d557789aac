package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/db"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

// AssignmentService binds instructors to sessions. An instructor holds at
// most one session; the rule is checked inside the same transaction that
// writes the assignment.
type AssignmentService struct {
	store       *db.RedisService
	notifier    Notifier
	logger      *zap.Logger
	instructors []models.Instructor
}

func NewAssignmentService(store *db.RedisService, notifier Notifier, logger *zap.Logger, instructors []models.Instructor) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		store:       store,
		notifier:    notifierOrNop(notifier),
		logger:      logger,
		instructors: instructors,
	}
}

func requireAdmin(actor models.Actor) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

func (a *AssignmentService) checkInstructor(instructorID string) error {
	if _, ok := models.FindInstructor(a.instructors, instructorID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstructor, instructorID)
	}
	return nil
}

// release frees the instructor currently on session unless it is keep.
// The index is only cleared when it still points at session.
func release(tx *db.Txn, session *models.Session, keep string) error {
	current := session.InstructorID
	if current == "" || current == keep {
		return nil
	}
	holder, err := tx.Holder(current)
	if err != nil {
		return err
	}
	if holder == session.ID {
		tx.SetHolder(current, "")
	}
	session.InstructorID = ""
	return nil
}

// Assign puts instructorID on sessionID. A session that already has another
// instructor gets the new one and the old one becomes available.
func (a *AssignmentService) Assign(ctx context.Context, actor models.Actor, instructorID, sessionID string) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := a.checkInstructor(instructorID); err != nil {
		return nil, err
	}

	var result models.Session
	changed := false
	err := a.store.Update(ctx, func(tx *db.Txn) error {
		changed = false
		session, err := tx.Session(sessionID)
		if err != nil {
			return err
		}
		holder, err := tx.Holder(instructorID)
		if err != nil {
			return err
		}
		if holder != "" && holder != sessionID {
			return &ConflictError{InstructorID: instructorID, SessionID: holder}
		}
		if session.InstructorID == instructorID && holder == sessionID {
			result = session.Clone()
			return nil
		}

		if err := release(tx, session, instructorID); err != nil {
			return err
		}
		session.InstructorID = instructorID
		tx.Put(session)
		tx.SetHolder(instructorID, sessionID)
		result = session.Clone()
		changed = true
		return nil
	})
	if err != nil {
		a.logger.Info("assignment refused",
			zap.String("instructor_id", instructorID), zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if changed {
		a.logger.Info("instructor assigned",
			zap.String("instructor_id", instructorID),
			zap.String("session_id", sessionID),
			zap.String("username", actor.Username))
		a.notifier.SessionChanged(result, ReasonInstructorAssigned)
	}
	return &result, nil
}

// Move takes instructorID off fromID and puts it on toID in one transaction.
// Moving onto the same session leaves it assigned.
func (a *AssignmentService) Move(ctx context.Context, actor models.Actor, instructorID, fromID, toID string) (*models.Session, error) {
	if fromID == toID {
		return a.Assign(ctx, actor, instructorID, toID)
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := a.checkInstructor(instructorID); err != nil {
		return nil, err
	}

	var from, to models.Session
	err := a.store.Update(ctx, func(tx *db.Txn) error {
		source, err := tx.Session(fromID)
		if err != nil {
			return err
		}
		target, err := tx.Session(toID)
		if err != nil {
			return err
		}
		holder, err := tx.Holder(instructorID)
		if err != nil {
			return err
		}
		if holder != "" && holder != fromID && holder != toID {
			return &ConflictError{InstructorID: instructorID, SessionID: holder}
		}

		if source.InstructorID == instructorID {
			source.InstructorID = ""
			tx.Put(source)
		}
		if err := release(tx, target, instructorID); err != nil {
			return err
		}
		target.InstructorID = instructorID
		tx.Put(target)
		tx.SetHolder(instructorID, toID)

		from, to = source.Clone(), target.Clone()
		return nil
	})
	if err != nil {
		a.logger.Info("move refused",
			zap.String("instructor_id", instructorID),
			zap.String("from_session_id", fromID),
			zap.String("to_session_id", toID),
			zap.Error(err))
		return nil, err
	}

	a.logger.Info("instructor moved",
		zap.String("instructor_id", instructorID),
		zap.String("from_session_id", fromID),
		zap.String("to_session_id", toID),
		zap.String("username", actor.Username))
	a.notifier.SessionChanged(from, ReasonInstructorMoved)
	a.notifier.SessionChanged(to, ReasonInstructorMoved)
	return &to, nil
}

// Remove clears the instructor of sessionID. Removing from an unassigned
// session succeeds without writing.
func (a *AssignmentService) Remove(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var result models.Session
	var removed string
	err := a.store.Update(ctx, func(tx *db.Txn) error {
		removed = ""
		session, err := tx.Session(sessionID)
		if err != nil {
			return err
		}
		if session.InstructorID == "" {
			result = session.Clone()
			return nil
		}
		removed = session.InstructorID
		if err := release(tx, session, ""); err != nil {
			return err
		}
		tx.Put(session)
		result = session.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed != "" {
		a.logger.Info("instructor removed",
			zap.String("instructor_id", removed),
			zap.String("session_id", sessionID),
			zap.String("username", actor.Username))
		a.notifier.SessionChanged(result, ReasonInstructorRemoved)
	}
	return &result, nil
}

// CreateSession stores a new session built by an admin. The ID is
// generated; an instructor on the input goes through the same booking rule
// as Assign.
func (a *AssignmentService) CreateSession(ctx context.Context, actor models.Actor, session models.Session) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	session.ID = uuid.NewString()
	session.SlotsFilled = 0
	session.EnrolledStudents = []string{}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if session.InstructorID != "" {
		if err := a.checkInstructor(session.InstructorID); err != nil {
			return nil, err
		}
	}

	err := a.store.Update(ctx, func(tx *db.Txn) error {
		if session.InstructorID != "" {
			holder, err := tx.Holder(session.InstructorID)
			if err != nil {
				return err
			}
			if holder != "" {
				return &ConflictError{InstructorID: session.InstructorID, SessionID: holder}
			}
			tx.SetHolder(session.InstructorID, session.ID)
		}
		created := session.Clone()
		tx.Put(&created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("date", session.Date),
		zap.String("username", actor.Username))
	a.notifier.SessionChanged(session, ReasonCreated)
	return &session, nil
}
