package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NeuralTrust/AltGuard/pkg/domain/event"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/mitchellh/mapstructure"
)

const KafkaExporterName = "kafka"

type KafkaConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

// KafkaExporter writes every event to a topic, keyed by actor id so the
// events of one actor stay ordered within a partition.
type KafkaExporter struct {
	cfg      KafkaConfig
	producer *kafka.Producer
}

var _ event.Publisher = (*KafkaExporter)(nil)

func NewKafkaExporter() *KafkaExporter {
	return &KafkaExporter{}
}

func (p *KafkaExporter) Name() string {
	return KafkaExporterName
}

func decodeKafkaConfig(settings map[string]interface{}) (KafkaConfig, error) {
	var conf KafkaConfig
	if err := mapstructure.WeakDecode(settings, &conf); err != nil {
		return conf, fmt.Errorf("invalid kafka config: %w", err)
	}
	return conf, nil
}

func (p *KafkaExporter) ValidateConfig(settings map[string]interface{}) error {
	conf, err := decodeKafkaConfig(settings)
	if err != nil {
		return err
	}
	if conf.Host == "" {
		return errors.New("kafka host is required")
	}
	if conf.Port == "" {
		return errors.New("kafka port is required")
	}
	if conf.Topic == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

func (p *KafkaExporter) WithSettings(settings map[string]interface{}) (*KafkaExporter, error) {
	if err := p.ValidateConfig(settings); err != nil {
		return nil, err
	}
	conf, err := decodeKafkaConfig(settings)
	if err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", conf.Host, conf.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &KafkaExporter{
		cfg:      conf,
		producer: producer,
	}, nil
}

func (p *KafkaExporter) Publish(ctx context.Context, evt event.Event) error {
	if p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	deliveryChan := make(chan kafka.Event, 1)

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.ActorID.String()),
		Value:          data,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery report %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	}
}

func (p *KafkaExporter) Close() {
	if p.producer != nil {
		p.producer.Flush(5000)
		p.producer.Close()
	}
}
