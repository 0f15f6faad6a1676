package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
)

func TestParseQuotas_PartialOverride_KeepsDefaults(t *testing.T) {
	// GIVEN: A config overriding only casual leave
	// WHEN: Parsing
	// THEN: Casual reflects the override; every other type keeps defaults

	jsonStr := `{
		"quotas": [
			{"type": "casual", "annual_quota": 15, "carry_eligible": true, "max_carry_forward": 10}
		]
	}`

	quotas, err := factory.ParseQuotas(jsonStr)
	require.NoError(t, err)

	assert.True(t, quotas[leave.TypeCasual].AnnualQuota.Equal(decimal.NewFromInt(15)))
	assert.True(t, quotas[leave.TypeCasual].MaxCarryForward.Equal(decimal.NewFromInt(10)))
	assert.True(t, quotas[leave.TypeSick].AnnualQuota.Equal(decimal.NewFromInt(10)), "sick default kept")
	assert.True(t, quotas[leave.TypeMaternity].Granted, "maternity default kept")
}

func TestParseQuotas_UnknownType_Rejected(t *testing.T) {
	_, err := factory.ParseQuotas(`{"quotas": [{"type": "sabbatical", "annual_quota": 5}]}`)
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestParseQuotas_UnpaidType_Rejected(t *testing.T) {
	// Unpaid carries no quota, so configuring one is a mistake.
	_, err := factory.ParseQuotas(`{"quotas": [{"type": "unpaid", "annual_quota": 5}]}`)
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestParseQuotas_NegativeQuota_Rejected(t *testing.T) {
	_, err := factory.ParseQuotas(`{"quotas": [{"type": "casual", "annual_quota": -1}]}`)
	assert.Error(t, err)
}

func TestParseQuotas_MalformedJSON_Rejected(t *testing.T) {
	_, err := factory.ParseQuotas(`{"quotas": [`)
	assert.Error(t, err)
}

func TestLoadQuotasFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotas.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"quotas": [{"type": "earned", "annual_quota": 20, "carry_eligible": true, "max_carry_forward": 25}]}`,
	), 0o644))

	quotas, err := factory.LoadQuotasFile(path)
	require.NoError(t, err)
	assert.True(t, quotas[leave.TypeEarned].AnnualQuota.Equal(decimal.NewFromInt(20)))
}

func TestLoadQuotasFile_Missing_Error(t *testing.T) {
	_, err := factory.LoadQuotasFile("/nonexistent/quotas.json")
	assert.Error(t, err)
}

func TestDefaultQuotas_CoverEveryTrackedType(t *testing.T) {
	quotas := factory.DefaultQuotas()
	for _, typ := range leave.BalanceTypes() {
		_, ok := quotas[typ]
		assert.True(t, ok, "missing default for %s", typ)
	}
	_, ok := quotas[leave.TypeUnpaid]
	assert.False(t, ok, "unpaid must have no quota")
}

func TestToJSON_RoundTrip(t *testing.T) {
	doc := factory.ToJSON(factory.DefaultQuotas())
	assert.Len(t, doc.Quotas, len(leave.BalanceTypes()))
}
