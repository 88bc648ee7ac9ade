package models

import "time"

// Revision links an original transaction to the transaction that corrects it.
// Both ends stay in the ledger; the revision is the only evidence of the link.
type Revision struct {
	ID                     int64     `json:"id"`
	OriginalTransactionID  int64     `json:"original_transaction_id"`
	CorrectedTransactionID int64     `json:"corrected_transaction_id"`
	Reason                 string    `json:"reason"`
	Timestamp              time.Time `json:"timestamp"`
}
