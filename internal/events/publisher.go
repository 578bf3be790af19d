package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TopicUser  = "user_events"
	TopicCart  = "cart_events"
	TopicOrder = "order_events"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event map[string]any) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, map[string]any) error { return nil }
func (Nop) Close() error                                                  { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
}

func NewKafkaPublisher(brokers []string, topicPrefix string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w, prefix: topicPrefix}, nil
}

// Publish stamps the event with an id and time and writes it keyed by key,
// so events of one user land on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event map[string]any) error {
	payload := make(map[string]any, len(event)+2)
	for k, v := range event {
		payload[k] = v
	}
	payload["eventID"] = uuid.NewString()
	payload["at"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.prefix + topic,
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Recorder keeps published events in memory in place of Kafka.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Topic string
	Key   string
	Event map[string]any
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}
