package mq

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

func newTestConsumer(handler Handler, out *bytes.Buffer) *Consumer {
	logger := slog.New(slog.NewTextHandler(out, nil))
	return &Consumer{
		logger:  logger,
		queue:   QueueLoginTasks,
		handler: handler,
	}
}

func deliver(c *Consumer, raw amqp.Delivery) {
	c.wg.Add(1)
	c.handleDelivery(context.Background(), raw)
}

func TestHandleDelivery_AckOnAck(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, body []byte) Decision { return Ack }, &bytes.Buffer{})

	ackr := &fakeAcknowledger{}
	deliver(c, amqp.Delivery{Acknowledger: ackr, MessageId: "m1"})

	if ackr.acks != 1 || ackr.nacks != 0 {
		t.Fatalf("expected 1 ack, 0 nacks; got %d/%d", ackr.acks, ackr.nacks)
	}
}

func TestHandleDelivery_DropNacksWithoutRequeue(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, body []byte) Decision { return Drop }, &bytes.Buffer{})

	ackr := &fakeAcknowledger{requeue: true}
	deliver(c, amqp.Delivery{Acknowledger: ackr, MessageId: "m2"})

	if ackr.nacks != 1 {
		t.Fatalf("expected 1 nack, got %d", ackr.nacks)
	}
	if ackr.requeue {
		t.Error("dropped message must not be requeued")
	}
}

func TestHandleDelivery_DropDoesNotLogBody(t *testing.T) {
	// в отброшенных сообщениях бывают пароли — в лог попадает
	// только message_id
	var out bytes.Buffer
	c := newTestConsumer(func(ctx context.Context, body []byte) Decision { return Drop }, &out)

	body := []byte(`{"account_name":"acc","tiktok_password":"hunter2"}`)
	deliver(c, amqp.Delivery{Acknowledger: &fakeAcknowledger{}, MessageId: "m3", Body: body})

	logged := out.String()
	if strings.Contains(logged, "hunter2") {
		t.Fatalf("log output leaks message body: %s", logged)
	}
	if !strings.Contains(logged, "m3") {
		t.Errorf("log output should carry message_id: %s", logged)
	}
}

func TestHandleDelivery_RequeueNacksWithRequeue(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, body []byte) Decision { return Requeue }, &bytes.Buffer{})

	ackr := &fakeAcknowledger{}
	deliver(c, amqp.Delivery{Acknowledger: ackr, MessageId: "m4"})

	if ackr.nacks != 1 {
		t.Fatalf("expected 1 nack, got %d", ackr.nacks)
	}
	if !ackr.requeue {
		t.Error("requeued message must go back to the queue")
	}
}
