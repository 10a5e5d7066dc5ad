package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"symptom-checker-be/internal/constant"
	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/pkg/interview"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivered struct {
	key, msgType string
	data         json.RawMessage
}

type fakeDelivery struct {
	mu  sync.Mutex
	got []delivered
}

func (d *fakeDelivery) Publish(_ context.Context, key, msgType string, data any) error {
	raw, _ := data.(json.RawMessage)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, delivered{key: key, msgType: msgType, data: raw})
	return nil
}

func (d *fakeDelivery) snapshot() []delivered {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivered(nil), d.got...)
}

func TestStreamPipeline_NotifierReachesDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer pubSub.Close()

	delivery := &fakeDelivery{}
	log := logger.NewNopLogger()
	consumer := NewConsumerService(pubSub, constant.StreamTopic, delivery, log)
	require.NoError(t, consumer.Consume(ctx))

	notifier := NewStreamNotifier(NewPublisherService(constant.StreamTopic, pubSub), log)
	notifier.LeadingConditions(ctx, interview.LeadingConditions{
		SessionKey:    "session-1",
		InterviewID:   "interview-1",
		QuestionCount: 2,
		Conditions:    []interview.Condition{{ID: "c_49", Name: "Migraine", Probability: 0.4}},
	})

	require.Eventually(t, func() bool { return len(delivery.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	got := delivery.snapshot()[0]
	assert.Equal(t, "session-1", got.key)
	assert.Equal(t, constant.StreamTypeLeadingConditions, got.msgType)

	var update interview.LeadingConditions
	require.NoError(t, json.Unmarshal(got.data, &update))
	assert.Equal(t, 2, update.QuestionCount)
	assert.Equal(t, "Migraine", update.Conditions[0].Name)
}

func TestStreamPipeline_BadPayloadIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer pubSub.Close()

	delivery := &fakeDelivery{}
	consumer := NewConsumerService(pubSub, constant.StreamTopic, delivery, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(constant.StreamTopic, pubSub)
	require.NoError(t, publisher.Publish(ctx, []byte("not json")))
	require.NoError(t, publisher.PublishStream(ctx, "session-2", constant.StreamTypeFinalized, map[string]string{"assessment_id": "a-1"}))

	require.Eventually(t, func() bool { return len(delivery.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "session-2", delivery.snapshot()[0].key)
}
