package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
	"github.com/shopspring/decimal"
)

// TransactionInput is a transaction as submitted by a client, before an id
// is assigned. Timestamp is optional text; empty means "now".
type TransactionInput struct {
	JobID         int64           `json:"job_id"`
	AccountDebit  string          `json:"account_debit"`
	AccountCredit string          `json:"account_credit"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     string          `json:"timestamp,omitempty"`
}

// Accepted timestamp layouts, tried in order. A trailing "Z" is covered by
// RFC 3339; layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// validate applies the transaction rules in order; the first failure wins.
// Nothing is written when it returns an error.
func (l *Ledger) validate(in TransactionInput) (models.Transaction, error) {
	if in.AccountDebit == "" || in.AccountCredit == "" {
		return models.Transaction{}, xerrors.ErrInvalidAccounts
	}
	if !in.Amount.IsPositive() {
		return models.Transaction{}, xerrors.ErrInvalidAmount
	}

	ts := l.now().UTC()
	if in.Timestamp != "" {
		parsed, err := ParseTimestamp(in.Timestamp)
		if err != nil {
			return models.Transaction{}, err
		}
		ts = parsed
	}

	return models.Transaction{
		JobID:         in.JobID,
		AccountDebit:  in.AccountDebit,
		AccountCredit: in.AccountCredit,
		Amount:        in.Amount,
		Timestamp:     ts,
	}, nil
}

// ParseTimestamp parses an ISO-8601 date-time. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", xerrors.ErrInvalidTimestamp, s)
}
