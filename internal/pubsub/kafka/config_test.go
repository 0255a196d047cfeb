package kafka

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/branchschool/installments/internal/config"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSaramaConfig(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Kafka.ClientID = "installments-test"

	plain := GetSaramaConfig(cfg)
	assert.Equal(t, "installments-test", plain.ClientID)
	assert.Equal(t, sarama.OffsetOldest, plain.Consumer.Offsets.Initial)
	assert.False(t, plain.Net.SASL.Enable)
	assert.False(t, plain.Net.TLS.Enable)
	require.NoError(t, plain.Validate())

	cfg.Kafka.UseSASL = true
	cfg.Kafka.SASLMechanism = sarama.SASLTypePlaintext
	cfg.Kafka.SASLUser = "user"
	cfg.Kafka.SASLPassword = "pass"

	sasl := GetSaramaConfig(cfg)
	assert.True(t, sasl.Net.SASL.Enable)
	assert.True(t, sasl.Net.TLS.Enable)
	assert.Equal(t, "user", sasl.Net.SASL.User)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypePlaintext), sasl.Net.SASL.Mechanism)
}

func TestNewPubSub_RequiresBrokers(t *testing.T) {
	cfg := config.GetDefaultConfig()

	_, err := NewPubSub(cfg, logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
