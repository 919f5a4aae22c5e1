package notifier_config

import (
	"time"

	"github.com/vigild/vigil/internal/obs"
	kafkax "github.com/vigild/vigil/internal/repository/kafka"
	pginfra "github.com/vigild/vigil/internal/repository/postgres"
	"github.com/vigild/vigil/internal/services/notifier"
	"go.uber.org/zap"
)

type KafkaIn struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	GroupID       string   `mapstructure:"group_id"`
	Partitions    int      `mapstructure:"partitions"`
	FromBeginning bool     `mapstructure:"from_beginning"`
}

func (k KafkaIn) AsConsumerConfig(l *zap.Logger) *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers:       k.Brokers,
		GroupID:       k.GroupID,
		Topic:         k.Topic,
		FromBeginning: k.FromBeginning,
		Logger:        l,
	}
}

type Retention struct {
	TTL     time.Duration `mapstructure:"ttl"`
	MaxList int           `mapstructure:"max_list"`
}

type Cooldown struct {
	Window time.Duration `mapstructure:"window"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	Dir    string `mapstructure:"dir"`
	Env    string `mapstructure:"env"`
	Ver    string `mapstructure:"ver"`
}

func (l Log) AsLoggerConfig(app string) obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, Dir: l.Dir, App: app, Env: l.Env, Ver: l.Ver}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
}

func (o OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      o.Enable,
		Endpoint:    o.OTLPEndpoint,
		ServiceName: o.ServiceName,
		SampleRatio: o.SampleRatio,
	}
}

type Config struct {
	DB        pginfra.Config      `mapstructure:"db"`
	In        KafkaIn             `mapstructure:"kafka_in"`
	SMTP      notifier.SMTPConfig `mapstructure:"smtp"`
	Retention Retention           `mapstructure:"retention"`
	Cooldown  Cooldown            `mapstructure:"cooldown"`
	Server    Server              `mapstructure:"server"`
	Log       Log                 `mapstructure:"log"`
	OTEL      OTEL                `mapstructure:"otel"`
}
