package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-feature-lab/internal/domain"
)

func intPtr(v int) *int { return &v }

func obs(pairs ...interface{}) []Observation {
	out := make([]Observation, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Observation{Category: pairs[i].(string), Outcome: pairs[i+1].(int)})
	}
	return out
}

func categories(table *domain.ChurnAggregateTable) []string {
	out := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = r.Category
	}
	return out
}

func TestComputeChurnTable_Scenario(t *testing.T) {
	table, err := ComputeChurnTable("channel_sales", obs("X", 0, "X", 1), TableOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, table.Outcomes)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []float64{50, 50}, table.Rows[0].Percentages)
	assert.Equal(t, []int{1, 1}, table.Rows[0].Counts)
	assert.Equal(t, 2, table.Rows[0].Total)
	assert.Nil(t, table.SortedBy)
}

func TestComputeChurnTable_RowsSumToHundred(t *testing.T) {
	table, err := ComputeChurnTable("origin_up", obs(
		"a", 0, "a", 0, "a", 1,
		"b", 1, "b", 1, "b", 0, "b", 0, "b", 0, "b", 0,
		"c", 0, "c", 0, "c", 0, "c", 0, "c", 0, "c", 0, "c", 1,
	), TableOptions{})
	require.NoError(t, err)

	for _, row := range table.Rows {
		sum := 0.0
		for _, p := range row.Percentages {
			sum += p
		}
		assert.InDelta(t, 100.0, sum, 1e-9, "row %s", row.Category)
	}
}

func TestComputeChurnTable_ZeroFill(t *testing.T) {
	table, err := ComputeChurnTable("has_gas", obs("t", 0, "t", 0, "f", 1), TableOptions{})
	require.NoError(t, err)

	f, ok := table.Row("f")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, f.Counts)
	assert.Equal(t, []float64{0, 100}, f.Percentages)

	tr, ok := table.Row("t")
	require.True(t, ok)
	assert.Equal(t, []float64{100, 0}, tr.Percentages)
}

func TestComputeChurnTable_SingleOutcome(t *testing.T) {
	table, err := ComputeChurnTable("has_gas", obs("t", 0, "f", 0), TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, table.Outcomes)
	for _, row := range table.Rows {
		assert.Equal(t, []float64{100}, row.Percentages)
	}
}

func TestComputeChurnTable_CategoryOrder(t *testing.T) {
	table, err := ComputeChurnTable("channel_sales", obs("m", 0, "a", 1, "z", 0), TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, categories(table))
}

func TestComputeChurnTable_SortByOutcome(t *testing.T) {
	input := obs(
		"a", 0, "a", 0, "a", 0, "a", 1, // 25% churn
		"b", 1, "b", 0, // 50%
		"c", 1, // 100%
		"d", 0, "d", 1, // 50%, ties with b
	)

	table, err := ComputeChurnTable("channel_sales", input, TableOptions{SortByOutcome: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "d", "a"}, categories(table))
	require.NotNil(t, table.SortedBy)
	assert.Equal(t, 1, *table.SortedBy)

	table, err = ComputeChurnTable("channel_sales", input, TableOptions{SortByOutcome: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d", "c"}, categories(table))
}

func TestComputeChurnTable_Errors(t *testing.T) {
	_, err := ComputeChurnTable("channel_sales", nil, TableOptions{})
	assert.ErrorIs(t, err, ErrNoObservations)

	_, err = ComputeChurnTable("channel_sales", obs("a", 0), TableOptions{SortByOutcome: intPtr(1)})
	assert.ErrorIs(t, err, ErrUnknownOutcome)
}

func TestObservations(t *testing.T) {
	records := []*domain.EnhancedClientRecord{
		{ClientRecord: domain.ClientRecord{ID: "A", ChannelSales: "X", NbProdAct: 2, Churn: 0}},
		{ClientRecord: domain.ClientRecord{ID: "B", ChannelSales: "X", NbProdAct: 1, Churn: 1}},
	}

	got, err := Observations("channel_sales", records)
	require.NoError(t, err)
	assert.Equal(t, obs("X", 0, "X", 1), got)

	got, err = Observations("nb_prod_act", records)
	require.NoError(t, err)
	assert.Equal(t, obs("2", 0, "1", 1), got)

	_, err = Observations("favourite_colour", records)
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestAttributes(t *testing.T) {
	assert.Equal(t, []string{"channel_sales", "has_gas", "nb_prod_act", "num_years_antig", "origin_up"}, Attributes())
	assert.True(t, IsAttribute("origin_up"))
	assert.False(t, IsAttribute("id"))
}
