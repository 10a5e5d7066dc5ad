package entity

import (
	"sync"
	"time"

	"symptom-checker-be/pkg/interview"
)

// LiveSession is an interview still held in memory.
type LiveSession struct {
	Session   *interview.Session
	OwnerId   string
	CreatedAt time.Time

	// PersistMu serialises storing the finalized interview so it is saved
	// at most once per interview id.
	PersistMu sync.Mutex
	// AssessmentId is set once the finalized interview has been stored.
	AssessmentId string
}

func (s *LiveSession) Key() string {
	return s.Session.Key()
}

// OwnedBy reports whether userId may act on the session. Anonymous sessions
// are open to anyone holding the key.
func (s *LiveSession) OwnedBy(userId string) bool {
	return s.OwnerId == "" || s.OwnerId == userId
}
