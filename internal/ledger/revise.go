package ledger

import (
	"context"

	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"go.uber.org/zap"
)

// RevisionReason is stored on every revision. Reasons supplied by callers
// are not persisted.
const RevisionReason = "Correction"

// ReviseInput is the corrected transaction plus an optional reason.
type ReviseInput struct {
	TransactionInput
	Reason string `json:"reason,omitempty"`
}

// Revise records a correction of transaction originalID. The corrected data
// becomes a new transaction and a Revision links the two. Both are written
// together or not at all, and the original is never changed. Concurrent
// revisions of one original are all kept.
func (l *Ledger) Revise(ctx context.Context, originalID int64, in ReviseInput) (models.Revision, error) {
	original, err := l.store.GetTransaction(ctx, originalID)
	if err != nil {
		return models.Revision{}, err
	}

	txn, err := l.validate(in.TransactionInput)
	if err != nil {
		return models.Revision{}, err
	}

	if in.Reason != "" && in.Reason != RevisionReason {
		l.logger.Debug("revision reason replaced",
			zap.Int64("original_transaction_id", original.ID),
			zap.String("supplied", in.Reason))
	}

	_, rev, err := l.store.CreateCorrection(ctx, txn, models.Revision{
		OriginalTransactionID: original.ID,
		Reason:                RevisionReason,
		Timestamp:             l.now().UTC(),
	})
	if err != nil {
		return models.Revision{}, err
	}

	l.logger.Info("transaction revised",
		zap.Int64("revision_id", rev.ID),
		zap.Int64("original_transaction_id", rev.OriginalTransactionID),
		zap.Int64("corrected_transaction_id", rev.CorrectedTransactionID))
	return rev, nil
}

// CorrectionsOf returns the revisions whose original is transactionID, i.e.
// the outgoing edges of that node in the correction graph.
func (l *Ledger) CorrectionsOf(ctx context.Context, transactionID int64) ([]models.Revision, error) {
	if _, err := l.store.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}
	return l.store.RevisionsByOriginal(ctx, transactionID)
}
