package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/charlieloganx23/apibet/internal/shared/kafka"
	"github.com/charlieloganx23/apibet/pkg/contracts/events"
)

// KafkaPublisher encapsula os writers de partidas e resultados e o logger.
type KafkaPublisher struct {
	matches *kafka.Writer
	results *kafka.Writer
	log     *zap.Logger
}

// NewKafkaPublisher cria os writers dos dois tópicos.
// Em ambiente local/dev garante a existência dos tópicos via controller do cluster.
func NewKafkaPublisher(ctx context.Context, brokers []string, matchTopic, resultTopic, env string, log *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not provided")
	}

	if env == "local" || env == "dev" {
		if err := ensureTopics(ctx, brokers[0], log, matchTopic, resultTopic); err != nil {
			return nil, err
		}
	}

	return &KafkaPublisher{
		matches: sharedkafka.NewWriter(brokers, matchTopic),
		results: sharedkafka.NewWriter(brokers, resultTopic),
		log:     log,
	}, nil
}

func ensureTopics(ctx context.Context, broker string, log *zap.Logger, topics ...string) error {
	ctrlCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctrlCtx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}

	cconn, err := kafka.DialContext(ctrlCtx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	// single-broker: uma partição, sem réplica
	for _, topic := range topics {
		cfg := kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}
		if err := cconn.CreateTopics(cfg); err != nil && !strings.Contains(err.Error(), "already exists") {
			log.Warn("failed to create kafka topic", zap.String("topic", topic), zap.Error(err))
		} else if err == nil {
			log.Info("kafka topic created", zap.String("topic", topic))
		}
	}
	return nil
}

// PublishMatch envia a atualização de odds com chave external_id (mesma partição por partida)
func (p *KafkaPublisher) PublishMatch(ctx context.Context, e events.MatchUpdate) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := sharedkafka.WriteJSON(ctx, p.matches, e.ExternalID, value); err != nil {
		p.log.Error("failed to publish match update", zap.Error(err))
		return err
	}
	p.log.Debug("published match update", zap.String("external_id", e.ExternalID))
	return nil
}

// PublishResult envia o placar final
func (p *KafkaPublisher) PublishResult(ctx context.Context, e events.ResultUpdate) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := sharedkafka.WriteJSON(ctx, p.results, e.ExternalID, value); err != nil {
		p.log.Error("failed to publish result", zap.Error(err))
		return err
	}
	p.log.Debug("published result", zap.String("external_id", e.ExternalID), zap.String("result", e.Result))
	return nil
}

// Close finaliza os writers.
func (p *KafkaPublisher) Close() error {
	return errors.Join(p.matches.Close(), p.results.Close())
}
