package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"symptom-checker-be/internal/entity"
	"symptom-checker-be/internal/repository/contract"
	"symptom-checker-be/pkg/interview"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	assessmentKeyPrefix = "assessment:"
	ownerIndexPrefix    = "assessments:owner:"
)

// RedisAssessmentRepository keeps assessments as JSON with a TTL. It is used
// when no database is configured. Owner listings come from a sorted set per
// owner scored by creation time.
type RedisAssessmentRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisAssessmentRepository(rdb *redis.Client, ttl time.Duration) contract.AssessmentRepository {
	return &RedisAssessmentRepository{rdb: rdb, ttl: ttl}
}

type assessmentRecord struct {
	Id            uuid.UUID                `json:"id"`
	SessionKey    string                   `json:"session_key"`
	InterviewId   string                   `json:"interview_id"`
	OwnerId       string                   `json:"owner_id,omitempty"`
	Age           int                      `json:"age"`
	Sex           string                   `json:"sex"`
	Evidence      []interview.EvidenceItem `json:"evidence"`
	Conditions    []interview.Condition    `json:"conditions"`
	Emergencies   []string                 `json:"emergencies,omitempty"`
	StopReason    string                   `json:"stop_reason"`
	QuestionCount int                      `json:"question_count"`
	Explanation   string                   `json:"explanation,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     *time.Time               `json:"updated_at,omitempty"`
}

func toRecord(a *entity.Assessment) assessmentRecord {
	return assessmentRecord{
		Id:            a.Id,
		SessionKey:    a.SessionKey,
		InterviewId:   a.InterviewId,
		OwnerId:       a.OwnerId,
		Age:           a.Age,
		Sex:           a.Sex,
		Evidence:      a.Evidence,
		Conditions:    a.Conditions,
		Emergencies:   a.Emergencies,
		StopReason:    a.StopReason,
		QuestionCount: a.QuestionCount,
		Explanation:   a.Explanation,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (r assessmentRecord) toEntity() *entity.Assessment {
	return &entity.Assessment{
		Id:            r.Id,
		SessionKey:    r.SessionKey,
		InterviewId:   r.InterviewId,
		OwnerId:       r.OwnerId,
		Age:           r.Age,
		Sex:           r.Sex,
		Evidence:      r.Evidence,
		Conditions:    r.Conditions,
		Emergencies:   r.Emergencies,
		StopReason:    r.StopReason,
		QuestionCount: r.QuestionCount,
		Explanation:   r.Explanation,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *RedisAssessmentRepository) Save(ctx context.Context, assessment *entity.Assessment) error {
	now := time.Now()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	} else {
		assessment.UpdatedAt = &now
	}

	payload, err := json.Marshal(toRecord(assessment))
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, assessmentKeyPrefix+assessment.Id.String(), payload, r.ttl)
	if assessment.OwnerId != "" {
		indexKey := ownerIndexPrefix + assessment.OwnerId
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(assessment.CreatedAt.Unix()),
			Member: assessment.Id.String(),
		})
		pipe.Expire(ctx, indexKey, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store assessment: %w", err)
	}
	return nil
}

func (r *RedisAssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Assessment, error) {
	raw, err := r.rdb.Get(ctx, assessmentKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec assessmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return rec.toEntity(), nil
}

// FindByOwner skips index entries whose snapshot has already expired.
func (r *RedisAssessmentRepository) FindByOwner(ctx context.Context, ownerId string, limit, offset int) ([]*entity.Assessment, error) {
	if limit <= 0 {
		return []*entity.Assessment{}, nil
	}
	ids, err := r.rdb.ZRevRange(ctx, ownerIndexPrefix+ownerId, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.Assessment{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = assessmentKeyPrefix + id
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Assessment, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec assessmentRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode assessment: %w", err)
		}
		out = append(out, rec.toEntity())
	}
	return out, nil
}
