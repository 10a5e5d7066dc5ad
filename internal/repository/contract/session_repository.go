package contract

import "symptom-checker-be/internal/entity"

// SessionRepository holds live interviews. Entries expire after a period of
// inactivity; Save refreshes the expiry.
type SessionRepository interface {
	Save(session *entity.LiveSession)
	Get(key string) (*entity.LiveSession, bool)
	Delete(key string)
	Count() int
}
