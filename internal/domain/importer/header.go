// Package importer implements the bulk CSV ingestion pipeline: header
// mapping, row decoding, category resolution and the orchestrated bulk
// write, producing a per-row import report.
package importer

import "strings"

// RecordKind selects the decode rules and alias table for an import run.
type RecordKind string

const (
	KindExpense RecordKind = "expense"
	KindRevenue RecordKind = "revenue"
)

// Dialect fixes the field delimiter. It is configuration, never detected
// from the file.
type Dialect string

const (
	DialectBank    Dialect = "bank"    // semicolon-delimited bank exports
	DialectGeneric Dialect = "generic" // comma-delimited
)

// Delimiter returns the field separator for the dialect.
func (d Dialect) Delimiter() rune {
	if d == DialectBank {
		return ';'
	}
	return ','
}

// Canonical field names produced by the header mapper.
const (
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldAccountType = "accounttype"
	FieldFixedCharge = "fixedcharge"
	FieldRecurring   = "recurring"
)

// HeaderAlias maps one raw header spelling to a canonical field name.
type HeaderAlias struct {
	Raw       string
	Canonical string
}

// Ordered alias tables. Earlier entries win when a raw header matches
// more than one alias.
var expenseAliases = []HeaderAlias{
	{"Date", FieldDate},
	{"date", FieldDate},
	{"Débit", FieldAmount},
	{"débit", FieldAmount},
	{"Debit", FieldAmount},
	{"debit", FieldAmount},
	{"Montant", FieldAmount},
	{"montant", FieldAmount},
	{"amount", FieldAmount},
	{"Catégorie", FieldCategory},
	{"catégorie", FieldCategory},
	{"categorie", FieldCategory},
	{"category", FieldCategory},
	{"Description", FieldDescription},
	{"description", FieldDescription},
	{"Libellé", FieldDescription},
	{"libellé", FieldDescription},
	{"libelle", FieldDescription},
	{"Type de compte", FieldAccountType},
	{"type de compte", FieldAccountType},
	{"compte", FieldAccountType},
	{"accountType", FieldAccountType},
	{"Charge fixe", FieldFixedCharge},
	{"charge fixe", FieldFixedCharge},
	{"estChargeFixe", FieldFixedCharge},
	{"isFixedCharge", FieldFixedCharge},
}

var revenueAliases = []HeaderAlias{
	{"Date", FieldDate},
	{"date", FieldDate},
	{"Crédit", FieldAmount},
	{"crédit", FieldAmount},
	{"Credit", FieldAmount},
	{"credit", FieldAmount},
	{"Montant", FieldAmount},
	{"montant", FieldAmount},
	{"amount", FieldAmount},
	{"Description", FieldDescription},
	{"description", FieldDescription},
	{"Libellé", FieldDescription},
	{"libellé", FieldDescription},
	{"libelle", FieldDescription},
	{"Catégorie", FieldCategory},
	{"catégorie", FieldCategory},
	{"categorie", FieldCategory},
	{"category", FieldCategory},
	{"Type de compte", FieldAccountType},
	{"type de compte", FieldAccountType},
	{"compte", FieldAccountType},
	{"accountType", FieldAccountType},
	{"Récurrent", FieldRecurring},
	{"récurrent", FieldRecurring},
	{"recurrent", FieldRecurring},
	{"isRecurring", FieldRecurring},
}

// HeaderMapper resolves raw header tokens to canonical field names for
// one record kind.
type HeaderMapper struct {
	aliases []HeaderAlias
}

// NewHeaderMapper returns the mapper for a record kind
func NewHeaderMapper(kind RecordKind) *HeaderMapper {
	aliases := expenseAliases
	if kind == KindRevenue {
		aliases = revenueAliases
	}
	return &HeaderMapper{aliases: aliases}
}

// Canonical maps one raw header token. Exact alias matches win; unknown
// headers pass through lowercased and trimmed, and are ignored later if
// they are not a recognized canonical field.
func (m *HeaderMapper) Canonical(raw string) string {
	token := strings.TrimSpace(raw)
	for _, alias := range m.aliases {
		if alias.Raw == token {
			return alias.Canonical
		}
	}
	return strings.ToLower(token)
}

// MapHeader maps a whole header row
func (m *HeaderMapper) MapHeader(raw []string) []string {
	canonical := make([]string, len(raw))
	for i, token := range raw {
		canonical[i] = m.Canonical(token)
	}
	return canonical
}
