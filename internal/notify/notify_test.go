package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []models.Notification
}

func (r *recordingSink) Notify(n models.Notification) {
	r.got = append(r.got, n)
}

func TestBoard_ReplacesPriorMessage(t *testing.T) {
	b := NewBoard(zerolog.Nop())

	_, ok := b.Current()
	assert.False(t, ok)

	b.Warning("Maximum 10 files allowed.")
	b.Danger("disk full")

	got, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, models.LevelDanger, got.Level)
	assert.Equal(t, "disk full", got.Message)

	b.Dismiss()
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBoard_ForwardsEveryMessage(t *testing.T) {
	sink := &recordingSink{}
	b := NewBoard(zerolog.Nop(), sink)

	b.Success("Uploaded 2 files.")
	b.Warning("Please upload files first.")

	require.Len(t, sink.got, 2)
	assert.Equal(t, models.LevelSuccess, sink.got[0].Level)
	assert.Equal(t, models.LevelWarning, sink.got[1].Level)
}

func TestConsoleSink_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, true)

	s.Notify(models.Notification{Level: models.LevelDanger, Message: "disk full"})

	assert.Equal(t, "[danger] disk full\n", buf.String())
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func TestAMQPForwarder_Notify(t *testing.T) {
	pub := &fakePublisher{}
	f := NewAMQPForwarder(pub, "workbench.events", zerolog.Nop())

	f.Notify(models.Notification{Level: models.LevelWarning, Message: "Please select different files."})

	assert.Equal(t, "workbench.events", pub.exchange)
	assert.Equal(t, "workbench.notification.warning", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)

	var body notificationMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
	assert.Equal(t, "warning", body.Level)
	assert.Equal(t, "Please select different files.", body.Message)
}

func TestAMQPForwarder_PublishErrorIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	f := NewAMQPForwarder(pub, "workbench.events", zerolog.Nop())

	assert.NotPanics(t, func() {
		f.Notify(models.Notification{Level: models.LevelDanger, Message: "boom"})
	})
	assert.NoError(t, f.Close())
}
