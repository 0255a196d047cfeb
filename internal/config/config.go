package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/branchschool/installments/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Webhook    Webhook          `mapstructure:"webhook"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Billing    BillingConfig    `mapstructure:"billing" validate:"required"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Pyroscope  PyroscopeConfig  `mapstructure:"pyroscope"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

// AuthConfig holds the credentials accepted by the HTTP API. API keys are
// stored as sha256 hex digests of the raw key. Secret signs bearer tokens.
type AuthConfig struct {
	Secret string       `mapstructure:"secret"`
	APIKey APIKeyConfig `mapstructure:"api_key"`
}

type APIKeyConfig struct {
	Header string                   `mapstructure:"header" validate:"required"`
	Keys   map[string]APIKeyDetails `mapstructure:"keys"`
}

type APIKeyDetails struct {
	TenantID string `mapstructure:"tenant_id"`
	UserID   string `mapstructure:"user_id"`
	Name     string `mapstructure:"name"`
	IsActive bool   `mapstructure:"is_active"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
	AutoMigrate            bool   `mapstructure:"auto_migrate" default:"false"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

type PyroscopeConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	ServerAddress   string   `mapstructure:"server_address"`
	ApplicationName string   `mapstructure:"application_name"`
	BasicAuthUser   string   `mapstructure:"basic_auth_user"`
	BasicAuthPass   string   `mapstructure:"basic_auth_password"`
	SampleRate      uint32   `mapstructure:"sample_rate"`
	DisableGCRuns   bool     `mapstructure:"disable_gc_runs"`
	ProfileTypes    []string `mapstructure:"profile_types"`
}

type KafkaConfig struct {
	Brokers       []string             `mapstructure:"brokers"`
	ConsumerGroup string               `mapstructure:"consumer_group"`
	ClientID      string               `mapstructure:"client_id"`
	TLS           bool                 `mapstructure:"tls"`
	UseSASL       bool                 `mapstructure:"use_sasl"`
	SASLMechanism sarama.SASLMechanism `mapstructure:"sasl_mechanism"`
	SASLUser      string               `mapstructure:"sasl_user"`
	SASLPassword  string               `mapstructure:"sasl_password"`
}

// TemporalConfig points at the cluster that schedules the due-invoice sweep
type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	APIKey    string `mapstructure:"api_key"`
	TLS       bool   `mapstructure:"tls"`
	// SweepSchedule is the cron expression the sweep workflow runs on
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// BillingConfig holds the installment billing policy
type BillingConfig struct {
	Cycle CycleConfig `mapstructure:"cycle" validate:"required"`
	Sweep SweepConfig `mapstructure:"sweep" validate:"required"`
}

// CycleConfig pins the day-of-month constants of a generated cycle. The
// invoice month is always the 1st of the billed month. Days are capped at 28
// so every calendar month contains them.
type CycleConfig struct {
	DueDay        int `mapstructure:"due_day" validate:"min=1,max=28"`
	GenerationDay int `mapstructure:"generation_day" validate:"min=1,max=28"`
}

type SweepConfig struct {
	BatchSize   int `mapstructure:"batch_size" validate:"min=1,max=1000"`
	Concurrency int `mapstructure:"concurrency" validate:"min=1,max=64"`
	// RatePerSecond caps generation attempts per second, 0 disables the limit
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"min=0"`
}

func NewConfig() (*Configuration, error) {
	// a local .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/installments")

	v.SetEnvPrefix("INSTALLMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("auth.api_key.header", d.Auth.APIKey.Header)
	v.SetDefault("kafka.consumer_group", d.Kafka.ConsumerGroup)
	v.SetDefault("kafka.client_id", d.Kafka.ClientID)
	v.SetDefault("temporal.namespace", d.Temporal.Namespace)
	v.SetDefault("temporal.task_queue", d.Temporal.TaskQueue)
	v.SetDefault("temporal.sweep_schedule", d.Temporal.SweepSchedule)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("webhook.enabled", d.Webhook.Enabled)
	v.SetDefault("webhook.topic", d.Webhook.Topic)
	v.SetDefault("webhook.pubsub", d.Webhook.PubSub)
	v.SetDefault("webhook.max_retries", d.Webhook.MaxRetries)
	v.SetDefault("webhook.initial_interval", d.Webhook.InitialInterval)
	v.SetDefault("webhook.max_interval", d.Webhook.MaxInterval)
	v.SetDefault("webhook.timeout", d.Webhook.Timeout)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("billing.cycle.due_day", d.Billing.Cycle.DueDay)
	v.SetDefault("billing.cycle.generation_day", d.Billing.Cycle.GenerationDay)
	v.SetDefault("billing.sweep.batch_size", d.Billing.Sweep.BatchSize)
	v.SetDefault("billing.sweep.concurrency", d.Billing.Sweep.Concurrency)
	v.SetDefault("billing.sweep.rate_per_second", d.Billing.Sweep.RatePerSecond)
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.sample_rate", d.Sentry.SampleRate)
	v.SetDefault("pyroscope.enabled", false)
	v.SetDefault("pyroscope.application_name", d.Pyroscope.ApplicationName)
	v.SetDefault("pyroscope.sample_rate", d.Pyroscope.SampleRate)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and for tests that never touch postgres
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Auth: AuthConfig{
			APIKey: APIKeyConfig{Header: "x-api-key"},
		},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Webhook: Webhook{
			Enabled:         true,
			Topic:           "webhooks",
			PubSub:          types.MemoryPubSub,
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Timeout:         10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Billing: BillingConfig{
			Cycle: CycleConfig{
				DueDay:        5,
				GenerationDay: 25,
			},
			Sweep: SweepConfig{
				BatchSize:     100,
				Concurrency:   4,
				RatePerSecond: 20,
			},
		},
		Sentry: SentryConfig{
			SampleRate: 0.1,
		},
		Pyroscope: PyroscopeConfig{
			ApplicationName: "installments",
			SampleRate:      100,
		},
		Kafka: KafkaConfig{
			ConsumerGroup: "installments",
			ClientID:      "installments",
		},
		Temporal: TemporalConfig{
			Namespace:     "default",
			TaskQueue:     types.TemporalTaskQueueInstallment.String(),
			SweepSchedule: "0 1 * * *",
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
