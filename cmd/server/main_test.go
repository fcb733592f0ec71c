package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"tillpos/backend/internal/config"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short", TaxRatePercent: decimal.NewFromInt(13)})
	assert.Error(t, err)

	err = validateSecurityConfig(config.Config{AuthSecret: strongSecret, TaxRatePercent: decimal.NewFromInt(130)})
	assert.Error(t, err)

	err = validateSecurityConfig(config.Config{AuthSecret: strongSecret, AppEnv: "production", AllowedOrigin: "*"})
	assert.Error(t, err)
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: strongSecret, TaxRatePercent: decimal.NewFromInt(13)})
	assert.NoError(t, err)

	t.Setenv("SEED_ADMIN_PASSWORD", "manager-pass")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-pass")
	err = validateSecurityConfig(config.Config{
		AuthSecret:     strongSecret,
		AppEnv:         "production",
		AllowedOrigin:  "https://till.example.com",
		TaxRatePercent: decimal.Zero,
	})
	assert.NoError(t, err)
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	logger, err := newLogger(config.Config{LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = newLogger(config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
