package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyansh2708-git/samadhan/internal/config"
	"github.com/shreyansh2708-git/samadhan/internal/domain"
	apperrors "github.com/shreyansh2708-git/samadhan/pkg/util"
)

func validConfig() *config.Config {
	return &config.Config{
		SLA: config.SLAConfig{
			CriticalHours: 4,
			HighHours:     24,
			MediumHours:   72,
			LowHours:      168,
		},
		Escalation: config.EscalationConfig{
			PollIntervalSeconds: 300,
			ThresholdHours:      72,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMisorderedSLA(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"critical above high", func(c *config.Config) { c.SLA.CriticalHours = 48 }},
		{"high above medium", func(c *config.Config) { c.SLA.HighHours = 100 }},
		{"medium above low", func(c *config.Config) { c.SLA.MediumHours = 200 }},
		{"zero window", func(c *config.Config) { c.SLA.CriticalHours = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeInvalidConfig, apperrors.CodeOf(err))
		})
	}
}

func TestValidateRejectsBadEscalationSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Escalation.PollIntervalSeconds = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidConfig, apperrors.CodeOf(err))
}

func TestSLAConfigTable(t *testing.T) {
	table := validConfig().SLA.Table()
	require.NoError(t, table.Validate())
	assert.Equal(t, domain.DefaultSLATable(), table)
}
