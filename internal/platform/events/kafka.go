package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"digitalbank/internal/platform/logging"
)

// KafkaConfig mirrors the teacher's kafka.Config, trimmed to the settings
// this module actually varies by environment.
type KafkaConfig struct {
	Brokers           []string
	ClientID          string
	EnableIdempotence bool
	CompressionType   string
	RequiredAcks      string
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultKafkaConfig(brokers []string, clientID string) KafkaConfig {
	return KafkaConfig{
		Brokers:           brokers,
		ClientID:          clientID,
		EnableIdempotence: false,
		CompressionType:   "snappy",
		RequiredAcks:      "all",
		MaxRetries:        5,
		RetryBackoff:      100 * time.Millisecond,
	}
}

func (c KafkaConfig) toSaramaConfig() (*sarama.Config, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = c.EnableIdempotence
	cfg.Producer.Retry.Max = c.MaxRetries
	cfg.Producer.Retry.Backoff = c.RetryBackoff

	if !c.EnableIdempotence {
		cfg.Net.MaxOpenRequests = 10
	} else {
		cfg.Net.MaxOpenRequests = 1
	}

	switch c.RequiredAcks {
	case "all", "-1":
		cfg.Producer.RequiredAcks = sarama.WaitForAll
	case "1":
		cfg.Producer.RequiredAcks = sarama.WaitForLocal
	case "0":
		cfg.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("invalid required acks value: %s", c.RequiredAcks)
	}

	switch c.CompressionType {
	case "none":
		cfg.Producer.Compression = sarama.CompressionNone
	case "gzip":
		cfg.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, fmt.Errorf("invalid compression type: %s", c.CompressionType)
	}

	cfg.ClientID = c.ClientID
	cfg.Version = sarama.V3_0_0_0
	return cfg, nil
}

// KafkaPublisher implements Publisher over a sarama.SyncProducer.
type KafkaPublisher struct {
	producer sarama.SyncProducer

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	saramaCfg, err := cfg.toSaramaConfig()
	if err != nil {
		return nil, fmt.Errorf("events: build sarama config: %w", err)
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("events: create kafka producer: %w", err)
	}
	logging.Info("kafka producer initialized", map[string]interface{}{
		"brokers":   cfg.Brokers,
		"client_id": cfg.ClientID,
	})
	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) publish(topic, key string, event interface{}) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("events: producer is closed")
	}
	p.mu.RUnlock()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logging.Warn("failed to publish domain event", map[string]interface{}{
			"topic": topic, "key": key, "error": err.Error(),
		})
		return fmt.Errorf("events: send message: %w", err)
	}
	logging.Debug("domain event published", map[string]interface{}{
		"topic": topic, "partition": partition, "offset": offset, "key": key,
	})
	return nil
}

func (p *KafkaPublisher) PublishAccountCreated(event AccountCreatedEvent) error {
	return p.publish(TopicAccountCreated, strconv.FormatInt(event.AccountNumber, 10), event)
}

func (p *KafkaPublisher) PublishBalanceUpdated(event BalanceUpdatedEvent) error {
	return p.publish(TopicBalanceUpdated, strconv.FormatInt(event.AccountNumber, 10), event)
}

func (p *KafkaPublisher) PublishDepositCompleted(event DepositCompletedEvent) error {
	return p.publish(TopicDepositCompleted, strconv.FormatInt(event.AccountNumber, 10), event)
}

func (p *KafkaPublisher) PublishWithdrawalCompleted(event WithdrawalCompletedEvent) error {
	return p.publish(TopicWithdrawalCompleted, strconv.FormatInt(event.AccountNumber, 10), event)
}

func (p *KafkaPublisher) PublishTransferCompleted(event TransferCompletedEvent) error {
	key := fmt.Sprintf("%d-%d", event.FromAccountNumber, event.ToAccountNumber)
	return p.publish(TopicTransferCompleted, key, event)
}

func (p *KafkaPublisher) PublishTransferNeedsReconciliation(event TransferNeedsReconciliationEvent) error {
	return p.publish(TopicTransferNeedsReconciliation, event.FundTransferID, event)
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("events: close kafka producer: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}
