package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderMapper_Canonical(t *testing.T) {
	t.Run("maps French bank headers to canonical fields", func(t *testing.T) {
		mapper := NewHeaderMapper(KindExpense)

		assert.Equal(t, FieldAmount, mapper.Canonical("Débit"))
		assert.Equal(t, FieldAmount, mapper.Canonical("débit"))
		assert.Equal(t, FieldAmount, mapper.Canonical("Montant"))
		assert.Equal(t, FieldCategory, mapper.Canonical("Catégorie"))
		assert.Equal(t, FieldAccountType, mapper.Canonical("type de compte"))
		assert.Equal(t, FieldFixedCharge, mapper.Canonical("estChargeFixe"))
	})

	t.Run("trims surrounding whitespace before matching", func(t *testing.T) {
		mapper := NewHeaderMapper(KindExpense)

		assert.Equal(t, FieldAmount, mapper.Canonical("  Débit "))
		assert.Equal(t, FieldDate, mapper.Canonical("\tdate"))
	})

	t.Run("unknown headers pass through lowercased", func(t *testing.T) {
		mapper := NewHeaderMapper(KindExpense)

		assert.Equal(t, "solde", mapper.Canonical("Solde"))
		assert.Equal(t, "iban", mapper.Canonical(" IBAN "))
	})

	t.Run("revenue table maps récurrent and crédit", func(t *testing.T) {
		mapper := NewHeaderMapper(KindRevenue)

		assert.Equal(t, FieldRecurring, mapper.Canonical("récurrent"))
		assert.Equal(t, FieldAmount, mapper.Canonical("Crédit"))
		assert.Equal(t, FieldDescription, mapper.Canonical("Libellé"))
	})

	t.Run("first alias definition wins", func(t *testing.T) {
		// "Montant" appears only once per table, but several raw aliases
		// share the amount canonical name; all of them must agree.
		expense := NewHeaderMapper(KindExpense)
		assert.Equal(t, expense.Canonical("Débit"), expense.Canonical("montant"))

		revenue := NewHeaderMapper(KindRevenue)
		assert.Equal(t, revenue.Canonical("Crédit"), revenue.Canonical("montant"))
	})
}

func TestHeaderMapper_MapHeader(t *testing.T) {
	mapper := NewHeaderMapper(KindExpense)

	header := mapper.MapHeader([]string{"date", "Débit", "catégorie", "description", "Solde"})

	assert.Equal(t, []string{
		FieldDate, FieldAmount, FieldCategory, FieldDescription, "solde",
	}, header)
}

func TestDialect_Delimiter(t *testing.T) {
	assert.Equal(t, ';', DialectBank.Delimiter())
	assert.Equal(t, ',', DialectGeneric.Delimiter())
}
