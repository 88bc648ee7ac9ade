package events

import (
	"time"

	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionsTopic is the default topic transaction events are published to.
const TransactionsTopic = "transactions"

type TransactionCreated struct {
	ID            int64           `json:"id"`
	JobID         int64           `json:"job_id"`
	AccountDebit  string          `json:"account_debit"`
	AccountCredit string          `json:"account_credit"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     string          `json:"timestamp"` // ISO-8601
}

// NewTransactionCreated builds the event payload for a stored transaction.
func NewTransactionCreated(txn models.Transaction) TransactionCreated {
	return TransactionCreated{
		ID:            txn.ID,
		JobID:         txn.JobID,
		AccountDebit:  txn.AccountDebit,
		AccountCredit: txn.AccountCredit,
		Amount:        txn.Amount,
		Timestamp:     txn.Timestamp.Format(time.RFC3339Nano),
	}
}
