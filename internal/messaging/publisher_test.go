package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-intake/internal/logger"
)

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	published  []amqp.Publishing
	keys       []string
	exchanges  []string
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.exchanges = append(f.exchanges, exchange)
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	pub, err := newPublisher(ch, ExchangeIntakeEvents, "resume-intake", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"intake.events:topic"}, ch.declared)

	ctx := WithCorrelationID(context.Background(), "batch-1")
	err = pub.Publish(ctx, EventAccountProvisioned, AccountProvisionedData{
		AccountID:          "acc-1",
		Email:              "jane@example.com",
		MustChangePassword: true,
	})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, ExchangeIntakeEvents, ch.exchanges[0])
	assert.Equal(t, EventAccountProvisioned, ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "batch-1", msg.CorrelationId)

	var event Event
	require.NoError(t, json.Unmarshal(msg.Body, &event))
	assert.Equal(t, EventAccountProvisioned, event.Type)
	assert.Equal(t, "resume-intake", event.Source)
	assert.Equal(t, msg.MessageId, event.ID)

	var data AccountProvisionedData
	require.NoError(t, event.ParseData(&data))
	assert.Equal(t, "jane@example.com", data.Email)
	assert.True(t, data.MustChangePassword)
}

func TestPublisher_Errors(t *testing.T) {
	_, err := newPublisher(&fakeChannel{declareErr: errors.New("denied")}, "x", "svc", logger.Nop())
	assert.Error(t, err)

	pub, err := newPublisher(&fakeChannel{publishErr: errors.New("closed")}, "x", "svc", logger.Nop())
	require.NoError(t, err)
	assert.Error(t, pub.Publish(context.Background(), EventBulkBatchCompleted, BulkBatchCompletedData{}))

	assert.Error(t, pub.Publish(context.Background(), EventBulkBatchCompleted, make(chan int)))
}

func TestCorrelationID_Missing(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
}
