package models

import "time"

// SealedManifest records how many transactions were present at SealedAt and
// the checksum over their ids. LastTransactionID is the highest id sealed.
type SealedManifest struct {
	ID                int64     `json:"id"`
	SealedAt          time.Time `json:"sealed_at"`
	TransactionCount  int       `json:"transaction_count"`
	LastTransactionID int64     `json:"last_transaction_id"`
	Checksum          string    `json:"checksum"`
}
