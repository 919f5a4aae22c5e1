package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	kafkax "github.com/vigild/vigil/internal/repository/kafka"
)

func main() {
	brokers := strings.Split(env("KAFKA_BROKERS", "kafka:9092"), ",")
	topic := env("KAFKA_TOPIC", "vigil.messages")
	partitions := envInt("KAFKA_PARTITIONS", 8)
	rf := envInt("KAFKA_RF", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	l, _ := zap.NewProduction()
	defer func() { _ = l.Sync() }()

	if err := kafkax.EnsureTopic(ctx, brokers, kafkax.TopicSpec{
		Name:              topic,
		NumPartitions:     partitions,
		ReplicationFactor: rf,
		MaxWait:           30 * time.Second,
	}, l); err != nil {
		log.Fatalf("ensure topic %q: %v", topic, err)
	}
	log.Println("kafka-init ok")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, _ := strconv.Atoi(v); n > 0 {
			return n
		}
	}
	return def
}
