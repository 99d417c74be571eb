package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType says which account a movement belongs to.
type AccountType string

const (
	AccountJoint    AccountType = "joint"
	AccountPersonal AccountType = "personal"
)

// Unrecognized or absent account types silently fall back to the joint
// account. Intentionally lenient; do not turn this into an error.
const defaultAccountType = AccountJoint

// Date patterns tried in order; the first calendar-valid match wins.
var datePatterns = []string{
	"02/01/2006", // dd/MM/yyyy
	"2006-01-02", // yyyy-MM-dd
}

// Boolean tokens recognized as true. Anything else, including absence,
// is false.
var trueTokens = map[string]bool{
	"vrai": true,
	"true": true,
	"oui":  true,
	"1":    true,
	"yes":  true,
}

// DecodedRow is a validated record produced from one CSV data row.
type DecodedRow struct {
	Kind        RecordKind
	Date        time.Time
	AmountCents int64
	Category    string
	CategoryID  uuid.UUID // filled in by category resolution
	Description string
	AccountType AccountType
	FixedCharge bool // expenses only
	Recurring   bool // revenues only
}

// DecodeError describes why one row could not be decoded.
type DecodeError struct {
	Field   string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Decode turns one canonical-keyed row into a typed record. It returns
// (nil, nil) for fully blank rows, which the caller must skip without
// counting them as success or failure.
func Decode(fields map[string]string, kind RecordKind) (*DecodedRow, error) {
	if isBlank(fields) {
		return nil, nil
	}

	if missing := missingRequired(fields, kind); len(missing) > 0 {
		return nil, &DecodeError{
			Message: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	date, err := parseDate(fields[FieldDate])
	if err != nil {
		return nil, err
	}

	amountCents, err := parseAmountCents(fields[FieldAmount], kind)
	if err != nil {
		return nil, err
	}

	row := &DecodedRow{
		Kind:        kind,
		Date:        date,
		AmountCents: amountCents,
		Category:    strings.TrimSpace(fields[FieldCategory]),
		Description: strings.TrimSpace(fields[FieldDescription]),
		AccountType: parseAccountType(fields[FieldAccountType]),
	}

	switch kind {
	case KindExpense:
		row.FixedCharge = parseBool(fields[FieldFixedCharge])
	case KindRevenue:
		row.Recurring = parseBool(fields[FieldRecurring])
	}

	return row, nil
}

// isBlank reports whether every field of the row is empty or whitespace
func isBlank(fields map[string]string) bool {
	for _, value := range fields {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// missingRequired returns the canonical names of required fields that
// are missing or empty. Date, amount and category are always required;
// description only for revenues.
func missingRequired(fields map[string]string, kind RecordKind) []string {
	required := []string{FieldDate, FieldAmount, FieldCategory}
	if kind == KindRevenue {
		required = append(required, FieldDescription)
	}

	var missing []string
	for _, name := range required {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, pattern := range datePatterns {
		if t, err := time.Parse(pattern, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DecodeError{
		Field:   FieldDate,
		Message: fmt.Sprintf("invalid date format %q (expected dd/MM/yyyy or yyyy-MM-dd)", raw),
	}
}

// parseAmountCents parses a locale-tolerant decimal amount into cents.
// Embedded whitespace (thousands separators in French exports) is
// stripped and a comma decimal separator is accepted. Expenses keep the
// absolute value of whatever sign the export uses but must be non-zero;
// revenues must be strictly positive.
func parseAmountCents(raw string, kind RecordKind) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, &DecodeError{
			Field:   FieldAmount,
			Message: fmt.Sprintf("invalid amount %q", raw),
		}
	}

	if kind == KindRevenue && amount.Sign() < 0 {
		return 0, &DecodeError{
			Field:   FieldAmount,
			Message: fmt.Sprintf("invalid amount %q: revenue must be positive", raw),
		}
	}

	// The zero check runs on the rounded cents, not the raw decimal:
	// sub-cent amounts like "0,004" round to zero stored cents and would
	// otherwise only fail the amount_cents > 0 check at write time.
	cents := amount.Abs().Shift(2).Round(0).IntPart()
	if cents == 0 {
		message := fmt.Sprintf("invalid amount %q: expense must be at least one cent", raw)
		if kind == KindRevenue {
			message = fmt.Sprintf("invalid amount %q: revenue must be at least one cent", raw)
		}
		return 0, &DecodeError{Field: FieldAmount, Message: message}
	}

	return cents, nil
}

func parseBool(raw string) bool {
	return trueTokens[strings.ToLower(strings.TrimSpace(raw))]
}

func parseAccountType(raw string) AccountType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "joint", "commun", "compte commun":
		return AccountJoint
	case "personal", "perso", "personnel", "compte perso":
		return AccountPersonal
	default:
		return defaultAccountType
	}
}
