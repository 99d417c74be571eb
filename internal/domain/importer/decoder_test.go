package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expenseFields(overrides map[string]string) map[string]string {
	fields := map[string]string{
		FieldDate:        "15/01/2024",
		FieldAmount:      "100.50",
		FieldCategory:    "Groceries",
		FieldDescription: "Milk",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	return fields
}

func TestDecode_Expense(t *testing.T) {
	t.Run("decodes a well-formed row", func(t *testing.T) {
		row, err := Decode(expenseFields(nil), KindExpense)

		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), row.Date)
		assert.Equal(t, int64(10050), row.AmountCents)
		assert.Equal(t, "Groceries", row.Category)
		assert.Equal(t, "Milk", row.Description)
		assert.Equal(t, AccountJoint, row.AccountType)
		assert.False(t, row.FixedCharge)
	})

	t.Run("description is optional for expenses", func(t *testing.T) {
		row, err := Decode(expenseFields(map[string]string{FieldDescription: ""}), KindExpense)

		require.NoError(t, err)
		assert.Empty(t, row.Description)
	})

	t.Run("negative bank debit is stored as positive cents", func(t *testing.T) {
		row, err := Decode(expenseFields(map[string]string{FieldAmount: "-42,10"}), KindExpense)

		require.NoError(t, err)
		assert.Equal(t, int64(4210), row.AmountCents)
	})

	t.Run("zero amount is rejected", func(t *testing.T) {
		_, err := Decode(expenseFields(map[string]string{FieldAmount: "0"}), KindExpense)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid amount")
	})
}

func TestDecode_Revenue(t *testing.T) {
	fields := func(overrides map[string]string) map[string]string {
		base := map[string]string{
			FieldDate:        "2024-02-01",
			FieldAmount:      "2500",
			FieldCategory:    "Salaire",
			FieldDescription: "Février",
		}
		for k, v := range overrides {
			base[k] = v
		}
		return base
	}

	t.Run("description is required for revenues", func(t *testing.T) {
		_, err := Decode(fields(map[string]string{FieldDescription: " "}), KindRevenue)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required fields")
		assert.Contains(t, err.Error(), FieldDescription)
	})

	t.Run("negative revenue is rejected", func(t *testing.T) {
		_, err := Decode(fields(map[string]string{FieldAmount: "-120"}), KindRevenue)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("recurring flag comes from the récurrent column", func(t *testing.T) {
		row, err := Decode(fields(map[string]string{FieldRecurring: "oui"}), KindRevenue)

		require.NoError(t, err)
		assert.True(t, row.Recurring)
		assert.False(t, row.FixedCharge)
	})
}

func TestDecode_MissingRequired(t *testing.T) {
	_, err := Decode(map[string]string{FieldDescription: "something"}, KindExpense)

	require.Error(t, err)
	assert.Contains(t, err.Error(), FieldDate)
	assert.Contains(t, err.Error(), FieldAmount)
	assert.Contains(t, err.Error(), FieldCategory)
}

func TestDecode_BlankRowIsSkipped(t *testing.T) {
	row, err := Decode(map[string]string{
		FieldDate:     "",
		FieldAmount:   "  ",
		FieldCategory: "",
	}, KindExpense)

	assert.NoError(t, err)
	assert.Nil(t, row)
}

func TestDecode_Dates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"French pattern", "31/12/2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"ISO pattern", "2023-12-31", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"French pattern wins over ISO", "05/04/2024", time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), false},
		{"calendar-invalid day", "32/01/2024", time.Time{}, true},
		{"US ordering rejected", "12/31/2023", time.Time{}, true},
		{"free text", "invalid", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := Decode(expenseFields(map[string]string{FieldDate: tt.raw}), KindExpense)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid date format")
				assert.Contains(t, err.Error(), tt.raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, row.Date)
		})
	}
}

func TestDecode_Amounts(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCents int64
		wantErr   bool
	}{
		{"dot decimal", "100.50", 10050, false},
		{"comma decimal", "100,50", 10050, false},
		{"embedded whitespace", "1 234,56", 123456, false},
		{"non-breaking space", "1 234,56", 123456, false},
		{"integer", "200", 20000, false},
		{"negative normalized", "-12.30", 1230, false},
		{"not a number", "12a,50", 0, true},
		{"empty after cleaning", " ", 0, true},
		{"rounds below one cent", "0,004", 0, true},
		{"negative below one cent", "-0.004", 0, true},
		{"rounds up to one cent", "0,005", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, err := parseAmountCents(tt.raw, KindExpense)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCents, cents)
		})
	}

	t.Run("sub-cent revenue is rejected", func(t *testing.T) {
		_, err := parseAmountCents("0,004", KindRevenue)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one cent")
	})
}

func TestParseBool(t *testing.T) {
	for _, token := range []string{"vrai", "VRAI", "true", "oui", "Oui", "1", "yes", " yes "} {
		assert.True(t, parseBool(token), "token %q", token)
	}
	for _, token := range []string{"", "faux", "false", "non", "0", "2", "maybe"} {
		assert.False(t, parseBool(token), "token %q", token)
	}
}

func TestParseAccountType(t *testing.T) {
	assert.Equal(t, AccountJoint, parseAccountType("commun"))
	assert.Equal(t, AccountJoint, parseAccountType("Compte Commun"))
	assert.Equal(t, AccountPersonal, parseAccountType("perso"))
	assert.Equal(t, AccountPersonal, parseAccountType("Personnel"))

	// Unknown values silently fall back to the joint account instead of
	// failing the row.
	assert.Equal(t, AccountJoint, parseAccountType("n'importe quoi"))
	assert.Equal(t, AccountJoint, parseAccountType(""))
}
