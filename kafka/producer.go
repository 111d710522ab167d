package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
)

// Producer publishes analysis task messages.
type Producer interface {
	SendAnalysisMessage(ctx context.Context, topic string, msg *AnalysisMessage) error
	Close() error
}

type producer struct {
	producer sarama.SyncProducer
}

func NewProducer(brokers []string) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &producer{producer: p}, nil
}

func (p *producer) SendAnalysisMessage(_ context.Context, topic string, msg *AnalysisMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.AnalysisID),
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (p *producer) Close() error {
	return p.producer.Close()
}
