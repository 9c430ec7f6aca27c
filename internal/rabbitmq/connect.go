// Package rabbitmq содержит подключение к брокеру, публикацию событий об изменении
// подписок и потребителя очереди для notification-sender.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, делая до retries попыток с паузой delay.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	if retries < 1 {
		retries = 1
	}
	for attempt := range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt < retries-1 {
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// Topology описывает exchange и очереди, которые должны существовать до публикации.
// Если задан DeadLetterExchange, отклонённые без повтора сообщения уходят
// в очередь <имя>.dead с тем же ключом маршрутизации.
type Topology struct {
	Exchange           string
	DeadLetterExchange string
	Queues             []QueueConfig
}

// QueueConfig очередь и ключ, по которому она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// SubscriptionTopology топология событий об изменении подписок.
func SubscriptionTopology(exchange, queue, routingKey string) Topology {
	return Topology{
		Exchange:           exchange,
		DeadLetterExchange: exchange + ".dlx",
		Queues: []QueueConfig{
			{QueueName: queue, RoutingKey: routingKey},
		},
	}
}

// SetupChannel открывает канал и объявляет direct exchange с привязанными очередями.
func SetupChannel(conn *amqp.Connection, topology Topology) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	if err := declareExchange(ch, topology.Exchange); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var args amqp.Table
	if topology.DeadLetterExchange != "" {
		if err := declareExchange(ch, topology.DeadLetterExchange); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		args = amqp.Table{"x-dead-letter-exchange": topology.DeadLetterExchange}
	}

	for _, q := range topology.Queues {
		if err := declareBoundQueue(ch, q, topology.Exchange, args); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if topology.DeadLetterExchange == "" {
			continue
		}
		dead := QueueConfig{QueueName: q.QueueName + ".dead", RoutingKey: q.RoutingKey}
		if err := declareBoundQueue(ch, dead, topology.DeadLetterExchange, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return ch, nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

func declareBoundQueue(ch *amqp.Channel, q QueueConfig, exchange string, args amqp.Table) error {
	if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", q.QueueName, err)
	}
	if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s with routing key %s: %w", q.QueueName, q.RoutingKey, err)
	}
	return nil
}
