package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable movement of Amount from AccountDebit to
// AccountCredit, attributed to a job.
type Transaction struct {
	ID            int64           `json:"id"`
	JobID         int64           `json:"job_id"`
	AccountDebit  string          `json:"account_debit"`
	AccountCredit string          `json:"account_credit"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}
