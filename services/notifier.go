package services

import "github.com/sobanshoaib/schedular-app-challenge/models"

// Change reasons passed to Notifier.
const (
	ReasonRegistered         = "registered"
	ReasonCancelled          = "cancelled"
	ReasonInstructorAssigned = "instructor_assigned"
	ReasonInstructorMoved    = "instructor_moved"
	ReasonInstructorRemoved  = "instructor_removed"
	ReasonCreated            = "created"
)

// Notifier is told about every committed session change.
type Notifier interface {
	SessionChanged(session models.Session, reason string)
}

type nopNotifier struct{}

func (nopNotifier) SessionChanged(models.Session, string) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
