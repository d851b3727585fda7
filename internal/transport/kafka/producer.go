// Package kafka streams live events to a Kafka topic for dashboards.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/IBM/sarama"

	"campusdrop/internal/logx"
	"campusdrop/internal/ports/events"
)

// Name is the sink label of the producer.
const Name = "kafka"

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("kafka producer closed")
	// ErrQueueFull is returned by Publish when sarama's input buffer is full.
	ErrQueueFull = errors.New("kafka producer queue full")
)

var newAsyncProducer = sarama.NewAsyncProducer

// Producer is an events.Publisher writing each message as JSON keyed by
// request id, so the events of one request stay ordered in a partition.
type Producer struct {
	topic    string
	producer sarama.AsyncProducer
	logger   logx.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewProducer creates a new Producer. It returns nil, nil when Kafka is not
// configured.
func NewProducer(logger logx.Logger, brokers []string, topic string) (*Producer, error) {
	// без брокеров поток событий выключен
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := newAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return newProducer(logger, topic, p), nil
}

func newProducer(logger logx.Logger, topic string, p sarama.AsyncProducer) *Producer {
	out := &Producer{topic: topic, producer: p, logger: logger}
	out.wg.Add(1)
	go out.drainErrors()
	return out
}

func (p *Producer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		p.logger.Warn("kafka: delivery failed",
			logx.String("topic", perr.Msg.Topic),
			logx.Err(perr.Err),
		)
	}
}

// Name implements events.Publisher.
func (p *Producer) Name() string { return Name }

// Publish enqueues msg without waiting. A full input buffer drops msg with
// ErrQueueFull. Delivery failures are logged asynchronously.
func (p *Producer) Publish(_ context.Context, msg events.Message) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", msg.Type, err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	pm := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.RequestID.String()),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(msg.Type)},
		},
	}
	select {
	case p.producer.Input() <- pm:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close flushes buffered messages and stops the producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.producer.Close()
	p.wg.Wait()
	return err
}
