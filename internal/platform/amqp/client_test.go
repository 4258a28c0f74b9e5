package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestClient_PublishSetsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	at := time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC)
	client := &Client{channel: ch, exchangeName: "mikopo", queueName: "arrears_reminders", now: func() time.Time { return at }}

	require.NoError(t, client.Publish(context.Background(), "id-1", []byte(`{"loanId":1}`)))
	require.Equal(t, "mikopo", ch.exchange)
	require.Equal(t, "arrears_reminders", ch.key)
	require.Len(t, ch.msgs, 1)
	require.Equal(t, "id-1", ch.msgs[0].MessageId)
	require.Equal(t, amqp091.Persistent, ch.msgs[0].DeliveryMode)
	require.Equal(t, "application/json", ch.msgs[0].ContentType)
	require.Equal(t, at, ch.msgs[0].Timestamp)

	require.NoError(t, client.Close())
	require.True(t, ch.closed)
}

func TestClient_PublishWrapsErrors(t *testing.T) {
	client := &Client{channel: &fakeChannel{err: amqp091.ErrClosed}, now: time.Now}
	err := client.Publish(context.Background(), "id-2", nil)
	require.True(t, errors.Is(err, amqp091.ErrClosed))

	var unset *Client
	require.Error(t, unset.Publish(context.Background(), "id-3", nil))
}
