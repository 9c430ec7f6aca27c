package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/antivirus-core/internal/lib/sl"
)

// maxInFlight сколько сообщений обрабатывается одновременно.
const maxInFlight = 10

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь,
// повторная ошибка на redelivered сообщении отправляет его в dead-letter.
type Handler func(ctx context.Context, body []byte) error

// Consumer читает очередь и обрабатывает не больше maxInFlight сообщений одновременно.
type Consumer struct {
	ch      *amqp.Channel
	queue   string
	handler Handler
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewConsumer создаёт Consumer для очереди queue.
func NewConsumer(ch *amqp.Channel, queue string, log *slog.Logger, handler Handler) *Consumer {
	return &Consumer{
		ch:      ch,
		queue:   queue,
		handler: handler,
		log:     log.With(slog.String("queue", queue)),
	}
}

// Start подписывается на очередь и обрабатывает сообщения в фоне до отмены ctx.
// Начатые обработчики доживают до конца, их дожидается Wait.
func (c *Consumer) Start(ctx context.Context) error {
	const op = "rabbitmq.Consumer.Start"

	delivery, err := c.ch.Consume(
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.wg.Add(1)
	go c.loop(ctx, delivery)
	return nil
}

// Wait ждёт завершения цикла чтения и всех начатых обработчиков.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) loop(ctx context.Context, delivery <-chan amqp.Delivery) {
	defer c.wg.Done()

	// обработчик не прерывается на середине письма при остановке процесса
	handlerCtx := context.WithoutCancel(ctx)
	sem := make(chan struct{}, maxInFlight)

	for {
		var d amqp.Delivery
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-delivery:
			if !ok {
				c.log.Info("delivery channel closed")
				return
			}
			d = msg
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			c.requeue(d)
			return
		}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer func() { <-sem }()
			c.handle(handlerCtx, d)
		}()
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	log := c.log.With(slog.String("message_id", d.MessageId))

	if err := c.handler(ctx, d.Body); err != nil {
		if d.Redelivered {
			// вторая неудача подряд: сообщение уходит в dead-letter очередь
			log.Error("failed to handle redelivered message, dead-lettering", sl.Err(err))
			if nackErr := d.Nack(false, false); nackErr != nil {
				log.Error("failed to nack message", sl.Err(nackErr))
			}
			return
		}
		log.Error("failed to handle message", sl.Err(err))
		c.requeue(d)
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}

func (c *Consumer) requeue(d amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		c.log.Error("failed to nack message", slog.String("message_id", d.MessageId), sl.Err(err))
	}
}
