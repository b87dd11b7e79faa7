package syncrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStats_MapPassthrough(t *testing.T) {
	raw := map[string]any{"total_accounts": 3, "linked_accounts": 2}

	stats := ParseStats(raw)

	assert.NotNil(t, stats)
	assert.Equal(t, 3, stats.Int(StatTotalAccounts))
	assert.Equal(t, 2, stats.Int(StatLinkedAccounts))
}

func TestParseStats_JSONString(t *testing.T) {
	stats := ParseStats(`{"total_accounts": 5, "pending_reconciled": 2}`)

	assert.NotNil(t, stats)
	assert.Equal(t, 5, stats.Int(StatTotalAccounts))
	assert.Equal(t, 2, stats.Int(StatPendingReconciled))
}

func TestParseStats_MalformedStringYieldsNoData(t *testing.T) {
	stats := ParseStats(`{not valid json`)

	assert.Nil(t, stats)
}

func TestParseStats_EmptyAndNil(t *testing.T) {
	assert.Nil(t, ParseStats(nil))
	assert.Nil(t, ParseStats(""))
	assert.Nil(t, ParseStats(42))
}

func TestParseStats_ByteSlice(t *testing.T) {
	stats := ParseStats([]byte(`{"unlinked_accounts": 1}`))

	assert.Equal(t, 1, stats.Int(StatUnlinkedAccounts))
}

func TestStatsInt_ToleratesJSONNumericTypes(t *testing.T) {
	stats := Stats{
		"a": float64(7), // json.Unmarshal default
		"b": int(3),
		"c": int64(4),
		"d": "12",
		"e": "not-a-number",
		"f": true,
	}

	assert.Equal(t, 7, stats.Int("a"))
	assert.Equal(t, 3, stats.Int("b"))
	assert.Equal(t, 4, stats.Int("c"))
	assert.Equal(t, 12, stats.Int("d"))
	assert.Equal(t, 0, stats.Int("e"))
	assert.Equal(t, 0, stats.Int("f"))
	assert.Equal(t, 0, stats.Int("missing"))
}

func TestStatsInt_NilStats(t *testing.T) {
	var stats Stats

	assert.Equal(t, 0, stats.Int(StatTotalAccounts))
}
