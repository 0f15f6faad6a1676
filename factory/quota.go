/*
Package factory provides JSON to Go quota-policy conversion.

PURPOSE:
  Converts JSON quota definitions into the per-leave-type Quota map the
  engine consumes. This keeps business constants (annual quotas,
  carry-forward caps) in configuration rather than embedded logic - HR can
  tune entitlements without code changes.

JSON SCHEMA:
  {
    "quotas": [
      {"type": "casual", "annual_quota": 12, "carry_eligible": true, "max_carry_forward": 6},
      {"type": "sick", "annual_quota": 10},
      {"type": "maternity", "annual_quota": 90, "granted": true}
    ]
  }

DEFAULTS:
  DefaultQuotas() returns the built-in entitlements used when no config
  file is supplied. Types absent from a supplied config fall back to the
  defaults, so a partial override file only needs the tuned entries.

USAGE:
  quotas := factory.DefaultQuotas()

  // Or from a file:
  quotas, err := factory.LoadQuotasFile("./quotas.json")

SEE ALSO:
  - leave/types.go: Quota type definition
  - leave/ledger.go: Rollover arithmetic driven by these values
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// QuotaConfigJSON is the top-level quota configuration document.
type QuotaConfigJSON struct {
	Quotas []QuotaJSON `json:"quotas"`
}

// QuotaJSON is the JSON representation of one leave type's entitlement.
type QuotaJSON struct {
	Type            string  `json:"type"`
	AnnualQuota     float64 `json:"annual_quota"`
	CarryEligible   bool    `json:"carry_eligible,omitempty"`
	MaxCarryForward float64 `json:"max_carry_forward,omitempty"`

	// Granted types are not refreshed by the annual rollover.
	Granted bool `json:"granted,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultQuotas returns the built-in annual entitlements.
func DefaultQuotas() map[leave.Type]leave.Quota {
	return map[leave.Type]leave.Quota{
		leave.TypeCasual: {
			AnnualQuota:     decimal.NewFromInt(12),
			CarryEligible:   true,
			MaxCarryForward: decimal.NewFromInt(6),
		},
		leave.TypeSick: {
			AnnualQuota: decimal.NewFromInt(10),
		},
		leave.TypeEarned: {
			AnnualQuota:     decimal.NewFromInt(18),
			CarryEligible:   true,
			MaxCarryForward: decimal.NewFromInt(30),
		},
		leave.TypeMaternity: {
			AnnualQuota: decimal.NewFromInt(90),
			Granted:     true,
		},
		leave.TypePaternity: {
			AnnualQuota: decimal.NewFromInt(15),
			Granted:     true,
		},
		leave.TypeCompensatory: {
			AnnualQuota: decimal.Zero,
			Granted:     true,
		},
	}
}

// =============================================================================
// PARSING
// =============================================================================

// ParseQuotas parses a JSON document into a quota map. Types absent from
// the document keep their defaults; unknown types are an error.
func ParseQuotas(jsonStr string) (map[leave.Type]leave.Quota, error) {
	var doc QuotaConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse quota JSON: %w", err)
	}

	quotas := DefaultQuotas()
	for _, qj := range doc.Quotas {
		t := leave.Type(qj.Type)
		if !t.Tracked() {
			return nil, fmt.Errorf("%w: %q", leave.ErrUnknownLeaveType, qj.Type)
		}
		if qj.AnnualQuota < 0 || qj.MaxCarryForward < 0 {
			return nil, fmt.Errorf("quota for %q must not be negative", qj.Type)
		}
		quotas[t] = leave.Quota{
			AnnualQuota:     decimal.NewFromFloat(qj.AnnualQuota),
			CarryEligible:   qj.CarryEligible,
			MaxCarryForward: decimal.NewFromFloat(qj.MaxCarryForward),
			Granted:         qj.Granted,
		}
	}
	return quotas, nil
}

// LoadQuotasFile reads and parses a quota configuration file.
func LoadQuotasFile(path string) (map[leave.Type]leave.Quota, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quota config: %w", err)
	}
	return ParseQuotas(string(data))
}

// ToJSON converts a quota map back to its JSON document form.
func ToJSON(quotas map[leave.Type]leave.Quota) QuotaConfigJSON {
	var doc QuotaConfigJSON
	for _, t := range leave.BalanceTypes() {
		q, ok := quotas[t]
		if !ok {
			continue
		}
		annual, _ := q.AnnualQuota.Float64()
		carry, _ := q.MaxCarryForward.Float64()
		doc.Quotas = append(doc.Quotas, QuotaJSON{
			Type:            string(t),
			AnnualQuota:     annual,
			CarryEligible:   q.CarryEligible,
			MaxCarryForward: carry,
			Granted:         q.Granted,
		})
	}
	return doc
}
