package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "churnlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, []string{"date_activ", "date_end", "date_modif_prod", "date_renewal"}, cfg.Features.CalendarColumns)
	assert.Equal(t, []string{"has_gas"}, cfg.Features.FlagColumns)
	assert.Equal(t, []string{"channel_sales", "has_gas", "origin_up"}, cfg.Features.ChurnAttributes)
	assert.Nil(t, cfg.Features.SortByOutcome)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: warehouse
  postgres_dsn: postgres://u:p@localhost:5432/churn
  clickhouse_dsn: clickhouse://localhost:9000/churn
features:
  churn_attributes: [origin_up]
  sort_by_outcome: 1
server:
  read_timeout: 2s
logging:
  format: json
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, BackendWarehouse, cfg.Storage.Backend)
	assert.Equal(t, "clickhouse://localhost:9000/churn", cfg.Storage.ClickhouseDSN)
	assert.Equal(t, []string{"origin_up"}, cfg.Features.ChurnAttributes)
	require.NotNil(t, cfg.Features.SortByOutcome)
	assert.Equal(t, 1, *cfg.Features.SortByOutcome)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "output:\n  dir: from-file\n")
	t.Setenv("CHURNLAB_OUTPUT_DIR", "from-env")
	t.Setenv("CHURNLAB_FEATURES_CHURN_ATTRIBUTES", "has_gas,nb_prod_act")
	t.Setenv("CHURNLAB_FEATURES_SORT_BY_OUTCOME", "0")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Output.Dir)
	assert.Equal(t, []string{"has_gas", "nb_prod_act"}, cfg.Features.ChurnAttributes)
	require.NotNil(t, cfg.Features.SortByOutcome)
	assert.Equal(t, 0, *cfg.Features.SortByOutcome)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "unknown backend",
			yaml:    "storage:\n  backend: sqlite\n",
			wantMsg: "Storage.Backend",
		},
		{
			name:    "warehouse without DSNs",
			yaml:    "storage:\n  backend: warehouse\n",
			wantMsg: "Storage.PostgresDSN",
		},
		{
			name:    "unknown attribute",
			yaml:    "features:\n  churn_attributes: [favourite_colour]\n",
			wantMsg: `unknown attribute "favourite_colour"`,
		},
		{
			name:    "unknown calendar column",
			yaml:    "features:\n  calendar_columns: [date_signed]\n",
			wantMsg: `unknown column "date_signed"`,
		},
		{
			name:    "sort by unknown outcome",
			yaml:    "features:\n  sort_by_outcome: 2\n",
			wantMsg: "Features.SortByOutcome",
		},
		{
			name:    "bad log level",
			yaml:    "logging:\n  level: verbose\n",
			wantMsg: "Logging.Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
