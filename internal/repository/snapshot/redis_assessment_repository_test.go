package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	"symptom-checker-be/internal/entity"
	"symptom-checker-be/pkg/interview"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisAssessmentRepository(t *testing.T) {
	rdb := newTestRedis(t)
	repo := NewRedisAssessmentRepository(rdb, time.Minute)
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	first := &entity.Assessment{
		Id:         uuid.New(),
		SessionKey: "s-1",
		OwnerId:    owner,
		Age:        34,
		Sex:        "female",
		Evidence:   []interview.EvidenceItem{{ID: "s_21", ChoiceID: interview.ChoicePresent, Source: interview.SourceInitial}},
		Conditions: []interview.Condition{{ID: "c_1", Name: "Migraine", Probability: 0.91}},
		StopReason: string(interview.ReasonHighConfidence),
		CreatedAt:  time.Now().Add(-time.Minute).Truncate(time.Second),
	}
	second := &entity.Assessment{Id: uuid.New(), SessionKey: "s-2", OwnerId: owner, StopReason: string(interview.ReasonUserFinished)}
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.FindByID(ctx, first.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.Evidence, got.Evidence)
	assert.Equal(t, first.Conditions, got.Conditions)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	missing, err := repo.FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.FindByOwner(ctx, owner, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Id, list[0].Id)
}
