package services

import (
	"errors"
	"fmt"

	"github.com/sobanshoaib/schedular-app-challenge/db"
)

var (
	ErrSessionNotFound   = db.ErrSessionNotFound
	ErrSessionFull       = errors.New("session is full")
	ErrAlreadyEnrolled   = errors.New("student is already registered for this session")
	ErrNotEnrolled       = errors.New("student is not registered for this session")
	ErrCancelCutoff      = errors.New("cannot cancel this close to the session")
	ErrUnknownInstructor = errors.New("unknown instructor")
	ErrInstructorBooked  = errors.New("instructor is already assigned to another session")
	ErrForbidden         = errors.New("operation not allowed for this user")
)

// ConflictError is returned when an instructor already holds another
// session. It matches ErrInstructorBooked with errors.Is.
type ConflictError struct {
	InstructorID string
	SessionID    string // the session currently holding the instructor
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("instructor %s is already assigned to session %s", e.InstructorID, e.SessionID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrInstructorBooked
}
