package mqx

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"

	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var mqLogger = logx.GetScope("mqx")

// Routing keys for collection lifecycle events.
const (
	EventCollectionSaved   = "collection.saved"
	EventCollectionDeleted = "collection.deleted"
)

// CollectionEvent is the JSON body of every collection event.
type CollectionEvent struct {
	IDs       []int64   `json:"ids"`
	WeekLabel string    `json:"week_label,omitempty"`
	SongCount int       `json:"song_count,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Nop discards every message. Used when RabbitMQ is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }

type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Open dials url, or returns Nop when url is empty. On a dial error the
// returned publisher is Nop so callers can keep running without events.
func Open(url, exchange string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	pub, err := NewRabbitPublisher(url, exchange)
	if err != nil {
		return Nop{}, err
	}
	return pub, nil
}

func NewRabbitPublisher(url string, exchange string) (*RabbitPublisher, error) {
	exchange = lo.Ternary(exchange != "", exchange, "songnav")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	})
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishEvent encodes ev and publishes it. Errors are logged, never
// returned: events are best effort and must not fail the request.
func PublishEvent(ctx context.Context, p Publisher, routingKey string, ev CollectionEvent) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		mqLogger.Sugar().Warnf("encode %s event: %v", routingKey, err)
		return
	}
	if err := p.Publish(ctx, routingKey, body); err != nil {
		mqLogger.Sugar().Warnf("publish %s: %v", routingKey, err)
	}
}
