package config

import (
	"time"

	"github.com/branchschool/installments/internal/types"
)

// Webhook configures outgoing installment events and their delivery.
// Events are delivered over HTTP when Endpoint is set, or through Svix
// when Svix is enabled.
type Webhook struct {
	Enabled         bool              `mapstructure:"enabled"`
	Topic           string            `mapstructure:"topic" default:"webhooks"`
	PubSub          types.PubSubType  `mapstructure:"pubsub" validate:"omitempty,oneof=memory kafka"`
	Endpoint        string            `mapstructure:"endpoint" validate:"omitempty,url"`
	Headers         map[string]string `mapstructure:"headers"`
	ExcludedEvents  []string          `mapstructure:"excluded_events"`
	MaxRetries      int               `mapstructure:"max_retries" validate:"min=0"`
	InitialInterval time.Duration     `mapstructure:"initial_interval"`
	MaxInterval     time.Duration     `mapstructure:"max_interval"`
	Timeout         time.Duration     `mapstructure:"timeout"`
	Svix            Svix              `mapstructure:"svix"`
}

type Svix struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"auth_token"`
	BaseURL   string `mapstructure:"base_url"`
}

// IsExcluded reports whether eventName should not be delivered
func (w Webhook) IsExcluded(eventName string) bool {
	for _, excluded := range w.ExcludedEvents {
		if excluded == eventName {
			return true
		}
	}
	return false
}
