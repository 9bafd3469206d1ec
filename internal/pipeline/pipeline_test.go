package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/features"
	"churn-feature-lab/internal/normalization"
	"churn-feature-lab/internal/observability"
	"churn-feature-lab/internal/orchestrator"
	"churn-feature-lab/internal/storage/memory"
	"churn-feature-lab/internal/table"
)

var fixedTime = time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func newFixturePipeline(t *testing.T, outputDir string) *Pipeline {
	t.Helper()
	ctx := context.Background()

	clientStore := memory.NewClientStore()
	priceStore := memory.NewPriceStore()
	require.NoError(t, LoadFixtures(ctx, clientStore, priceStore))

	orch := orchestrator.New(orchestrator.Options{
		ClientStore: clientStore,
		PriceStore:  priceStore,
		Clock:       fixedClock,
	})
	return New(orch, outputDir).
		WithClock(fixedClock).
		WithDataSource(DataSourceFixtures).
		WithSufficiencyChecker(NewSufficiencyChecker(clientStore, priceStore))
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)

	out, err := newFixturePipeline(t, dir).WithMetrics(m).Run(context.Background())
	require.NoError(t, err)

	for _, f := range []string{
		EnhancedClientsFile,
		"churn_by_channel_sales.csv",
		"churn_by_has_gas.csv",
		"churn_by_origin_up.csv",
		ReportFile,
	} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
	assert.Len(t, out.Files, 5)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsGenerated))

	channel, err := os.ReadFile(filepath.Join(dir, "churn_by_channel_sales.csv"))
	require.NoError(t, err)
	assert.Equal(t, "channel_sales,0,1,n_clients\nX,50,50,2\nY,50,50,2\nZ,100,0,1\n", string(channel))

	enhanced, err := table.ReadCSVFile(filepath.Join(dir, EnhancedClientsFile))
	require.NoError(t, err)
	require.Equal(t, 5, enhanced.Len())
	assert.Equal(t, "A", enhanced.Cell(0, "id"))
	assert.Equal(t, "2", enhanced.Cell(0, "offpeak_diff_dec_january_energy"))
	assert.Equal(t, "4", enhanced.Cell(0, "offpeak_diff_dec_january_power"))
	assert.Equal(t, "0", enhanced.Cell(1, "offpeak_diff_dec_january_energy"))
	assert.Equal(t, "5", enhanced.Cell(1, "consumption_ratio"))
	assert.Equal(t, "-151", enhanced.Cell(3, "contract_duration"))
	assert.Equal(t, "-1", enhanced.Cell(4, "has_gas_flag"))
	assert.Equal(t, "", enhanced.Cell(4, "offpeak_diff_dec_january_energy"))

	report, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	md := string(report)
	assert.Contains(t, md, "Generated: 2025-01-04T12:00:00Z")
	assert.Contains(t, md, "| NEGATIVE_CONTRACT_DURATION | 1 |")
	assert.Contains(t, md, "| UNKNOWN_FLAG_VALUE | 1 |")
	assert.Contains(t, md, "| NO_PRICE_HISTORY | 1 |")
	assert.Contains(t, md, "**All checks passed.**")
	assert.Contains(t, md, "`churnlab pipeline --use-fixtures`")
	assert.Contains(t, md, out.Report.Reproducibility.DataVersion)
}

func TestPipeline_Deterministic(t *testing.T) {
	ctx := context.Background()
	var versions []string
	var contents []map[string]string

	for run := 0; run < 2; run++ {
		dir := t.TempDir()
		out, err := newFixturePipeline(t, dir).Run(ctx)
		require.NoError(t, err)
		versions = append(versions, out.Report.Reproducibility.DataVersion)

		files := make(map[string]string)
		for _, path := range out.Files {
			if filepath.Base(path) == ReportFile {
				continue // carries the run ID
			}
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			files[filepath.Base(path)] = string(data)
		}
		contents = append(contents, files)
	}

	assert.NotEmpty(t, versions[0])
	assert.Equal(t, versions[0], versions[1])
	assert.Equal(t, contents[0], contents[1])
}

func TestPipeline_FailedRunWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	clientStore := memory.NewClientStore()
	priceStore := memory.NewPriceStore()
	require.NoError(t, LoadFixtures(context.Background(), clientStore, priceStore))

	orch := orchestrator.New(orchestrator.Options{
		ClientStore: clientStore,
		PriceStore:  priceStore,
		Deriver:     features.NewDeriver().WithCalendarColumns([]string{"date_signed"}),
	})

	out, err := New(orch, dir).Run(context.Background())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, normalization.ErrSchema)
	assert.NoDirExists(t, dir)
}

func TestComputeDataVersion(t *testing.T) {
	a := []outputFile{{name: "x.csv", data: []byte("1")}}
	b := []outputFile{{name: "y.csv", data: []byte("1")}}
	c := []outputFile{{name: "x.csv", data: []byte("2")}}

	assert.Equal(t, computeDataVersion(a), computeDataVersion(a))
	assert.NotEqual(t, computeDataVersion(a), computeDataVersion(b))
	assert.NotEqual(t, computeDataVersion(a), computeDataVersion(c))
}

func TestSufficiencyChecker_Check(t *testing.T) {
	ctx := context.Background()
	clients := memory.NewClientStore()
	prices := memory.NewPriceStore()
	require.NoError(t, clients.InsertBulk(ctx, []*domain.ClientRecord{{ID: "A", Churn: 0}}))
	require.NoError(t, prices.InsertBulk(ctx, []*domain.PriceRecord{
		{ClientID: "ghost", PriceDate: fixtureDate(2015, 1, 1)},
		{ClientID: "ghost", PriceDate: fixtureDate(2015, 2, 1)},
	}))

	enhanced := memory.NewEnhancedClientStore()
	require.NoError(t, enhanced.InsertBulk(ctx, []*domain.EnhancedClientRecord{
		{ClientRecord: domain.ClientRecord{ID: "A"}},
	}))

	result, err := NewSufficiencyChecker(clients, prices).Check(ctx, enhanced)
	require.NoError(t, err)
	require.Len(t, result.Checks, 5)
	assert.False(t, result.AllPass)

	byName := make(map[string]SufficiencyCheck)
	for _, c := range result.Checks {
		byName[c.Name] = c
	}
	assert.True(t, byName["Clients loaded"].Pass)
	assert.False(t, byName["Price history coverage"].Pass)
	assert.Equal(t, "0.0% (0/1)", byName["Price history coverage"].Actual)
	assert.False(t, byName["Churn outcomes observed"].Pass)
	assert.Equal(t, "0", byName["Churn outcomes observed"].Actual)
	assert.Equal(t, "2", byName["Orphan price records"].Actual)
	assert.True(t, byName["Enhanced rows per client"].Pass)

	assert.Equal(t, []string{"price records for unknown client ghost (2 rows)"}, result.Errors)
}

func TestSufficiencyChecker_Thresholds(t *testing.T) {
	ctx := context.Background()
	clients := memory.NewClientStore()
	prices := memory.NewPriceStore()
	require.NoError(t, LoadFixtures(ctx, clients, prices))

	result, err := NewSufficiencyChecker(clients, prices).
		WithThresholds(10, 0.9).
		Check(ctx, memory.NewEnhancedClientStore())
	require.NoError(t, err)

	assert.False(t, result.AllPass)
	assert.Equal(t, ">= 10", result.Checks[0].Threshold)
	assert.False(t, result.Checks[0].Pass)
	assert.Equal(t, []string{"enhanced table has 0 rows for 5 clients"}, result.Errors)
}
