package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"vehicle-admin/internal/money"

	"github.com/shopspring/decimal"
)

// LegacyOtherExpenseKey holds the amount of records that stored other expenses as a bare number.
const LegacyOtherExpenseKey = "other"

// OtherExpenses: named extra expenses in LKR (e.g. "transport", "repairs").
type OtherExpenses map[string]decimal.Decimal

func (o OtherExpenses) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range o {
		total = total.Add(v)
	}
	return total
}

func (o OtherExpenses) Clone() OtherExpenses {
	if o == nil {
		return nil
	}
	out := make(OtherExpenses, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// UnmarshalJSON accepts both the current map form and the legacy bare number.
// Values that are not numeric count as zero.
func (o *OtherExpenses) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}

	if data[0] == '{' {
		var raw map[string]any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("other_expenses: %w", err)
		}
		out := make(OtherExpenses, len(raw))
		for k, v := range raw {
			out[k] = money.Coerce(v)
		}
		*o = out
		return nil
	}

	var legacy any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&legacy); err != nil {
		return fmt.Errorf("other_expenses: %w", err)
	}
	amount := money.Coerce(legacy)
	if amount.IsZero() {
		*o = OtherExpenses{}
		return nil
	}
	*o = OtherExpenses{LegacyOtherExpenseKey: amount}
	return nil
}

// Value stores the map as jsonb.
func (o OtherExpenses) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]decimal.Decimal(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OtherExpenses) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		return o.UnmarshalJSON(v)
	case string:
		return o.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("other_expenses: unsupported column type %T", src)
	}
}
