package rabbitmq

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a reachable broker; set RABBIT_TEST_URL to run.
func TestPublisher_NackedMessageLandsInDLQ(t *testing.T) {
	url := os.Getenv("RABBIT_TEST_URL")
	if url == "" {
		t.Skip("RABBIT_TEST_URL not set")
	}
	queue := fmt.Sprintf("dialogbot_test_%d", time.Now().UnixNano())

	p, err := NewPublisher(url, queue)
	require.NoError(t, err)
	defer p.Close()
	defer func() {
		_, _ = p.ch.QueueDelete(queue, false, false, false)
		_, _ = p.ch.QueueDelete(queue+".dlq", false, false, false)
	}()

	require.NoError(t, p.Publish(context.Background(), map[string]string{"outcome": "ok"}))

	var d amqp.Delivery
	require.Eventually(t, func() bool {
		msg, ok, err := p.ch.Get(queue, false)
		if err != nil || !ok {
			return false
		}
		assert.JSONEq(t, `{"outcome":"ok"}`, string(msg.Body))
		d = msg
		return true
	}, 5*time.Second, 50*time.Millisecond)
	require.NoError(t, d.Nack(false, false))

	require.Eventually(t, func() bool {
		_, ok, err := p.ch.Get(queue+".dlq", true)
		return err == nil && ok
	}, 5*time.Second, 50*time.Millisecond)

	// only the main queue and its DLQ exist
	ch, err := p.conn.Channel()
	require.NoError(t, err)
	_, err = ch.QueueDeclarePassive(queue+".retry", true, false, false, false, nil)
	assert.Error(t, err)
}
