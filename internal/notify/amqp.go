package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/yahyaheni/gymtrack/internal/lib/sl"
)

// Event is the wire form of one outcome message.
type Event struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// AMQPSink publishes outcome events to a queue so an external consumer
// (a display surface, an audit log) can pick them up. Publishing is fire
// and forget: a broker failure is logged, never surfaced to the operation
// that produced the message.
type AMQPSink struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *slog.Logger
}

// NewAMQPSink connects to the broker and declares a durable queue.
func NewAMQPSink(url, queue string, log *slog.Logger) (*AMQPSink, error) {
	const op = "notify.NewAMQPSink"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPSink{conn: conn, ch: ch, queue: queue, log: log}, nil
}

func (s *AMQPSink) Success(msg string) { s.publish(LevelSuccess, msg) }
func (s *AMQPSink) Error(msg string)   { s.publish(LevelError, msg) }
func (s *AMQPSink) Info(msg string)    { s.publish(LevelInfo, msg) }

func (s *AMQPSink) publish(level Level, msg string) {
	const op = "notify.AMQPSink.publish"

	body, err := json.Marshal(Event{Level: level, Message: msg, Time: time.Now()})
	if err != nil {
		s.log.Warn("failed to marshal outcome event", sl.Err(err))
		return
	}
	err = s.ch.Publish("", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Warn("failed to publish outcome event",
			slog.String("op", op), sl.Err(err))
	}
}

// Close releases the channel and connection.
func (s *AMQPSink) Close() error {
	if err := s.ch.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}
