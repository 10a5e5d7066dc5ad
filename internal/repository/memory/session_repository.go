package memory

import (
	"time"

	"symptom-checker-be/internal/entity"
	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last save and
// purges expired ones every ttl/6.
func NewSessionRepository(ttl time.Duration, sysLogger logger.ILogger) contract.SessionRepository {
	cleanup := ttl / 6
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	c := cache.New(ttl, cleanup)
	c.OnEvicted(func(key string, _ interface{}) {
		sysLogger.Debug("SESSION", "Live session expired", map[string]interface{}{"session_key": key})
	})
	return &SessionRepository{cache: c}
}

func (r *SessionRepository) Save(session *entity.LiveSession) {
	r.cache.Set(session.Key(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(key string) (*entity.LiveSession, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*entity.LiveSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(key string) {
	r.cache.Delete(key)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
