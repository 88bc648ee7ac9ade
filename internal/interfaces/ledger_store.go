package interfaces

import (
	"context"

	"github.com/sheikh-saqib/jobs-ledger/internal/models"
)

// LedgerStore owns jobs, transactions, revisions and sealed manifests.
// Implementations assign identifiers themselves and return rows in
// insertion (id) order from every list method.
type LedgerStore interface {
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)

	CreateTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	TransactionsByJob(ctx context.Context, jobID int64) ([]models.Transaction, error)

	// SealSnapshot returns every committed transaction in id order with no
	// gaps left by writes still in flight.
	SealSnapshot(ctx context.Context) ([]models.Transaction, error)

	// CreateCorrection stores the corrected transaction and the revision
	// linking it to rev.OriginalTransactionID atomically: either both rows
	// exist afterwards or neither does.
	CreateCorrection(ctx context.Context, txn models.Transaction, rev models.Revision) (models.Transaction, models.Revision, error)
	ListRevisions(ctx context.Context) ([]models.Revision, error)
	RevisionsByOriginal(ctx context.Context, transactionID int64) ([]models.Revision, error)

	CreateManifest(ctx context.Context, m models.SealedManifest) (models.SealedManifest, error)
	GetManifest(ctx context.Context, id int64) (models.SealedManifest, error)
	ListManifests(ctx context.Context) ([]models.SealedManifest, error)
}
