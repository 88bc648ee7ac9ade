package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"fmt"
	"sync" // standard Go package for concurrency primitives like Mutex
	"time"

	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Rows live in append-only slices, so list order is insertion order, and
// ids are assigned from per-table counters under the store mutex.
type MemoryLedgerStore struct {
	mu sync.RWMutex // protects every slice, index and counter below

	jobs         []models.Job
	transactions []models.Transaction
	revisions    []models.Revision
	manifests    []models.SealedManifest

	jobIndex map[int64]int // job id -> position in jobs
	txnIndex map[int64]int // transaction id -> position in transactions

	nextJobID, nextTxnID, nextRevisionID, nextManifestID int64
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		jobs:         make([]models.Job, 0),
		transactions: make([]models.Transaction, 0),
		revisions:    make([]models.Revision, 0),
		manifests:    make([]models.SealedManifest, 0),
		jobIndex:     make(map[int64]int),
		txnIndex:     make(map[int64]int),
	}
}

func (m *MemoryLedgerStore) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextJobID++
	job.ID = m.nextJobID
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	m.jobIndex[job.ID] = len(m.jobs)
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *MemoryLedgerStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// return a copy so external code can't modify internal state
	copied := make([]models.Job, len(m.jobs))
	copy(copied, m.jobs)
	return copied, nil
}

// CreateTransaction stores txn under a fresh id. The owning job must exist.
func (m *MemoryLedgerStore) CreateTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobIndex[txn.JobID]; !ok {
		return models.Transaction{}, fmt.Errorf("job %d: %w", txn.JobID, xerrors.ErrNotFound)
	}

	m.nextTxnID++
	txn.ID = m.nextTxnID
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}

	m.txnIndex[txn.ID] = len(m.transactions)
	m.transactions = append(m.transactions, txn)
	return txn, nil
}

func (m *MemoryLedgerStore) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.txnIndex[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, xerrors.ErrNotFound)
	}
	return m.transactions[pos], nil
}

// ListTransactions returns a snapshot of every transaction ever stored.
func (m *MemoryLedgerStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := make([]models.Transaction, len(m.transactions))
	copy(copied, m.transactions)
	return copied, nil
}

// SealSnapshot is ListTransactions: ids are assigned and appended under the
// same lock, so the slice never has gaps.
func (m *MemoryLedgerStore) SealSnapshot(ctx context.Context) ([]models.Transaction, error) {
	return m.ListTransactions(ctx)
}

func (m *MemoryLedgerStore) TransactionsByJob(ctx context.Context, jobID int64) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.jobIndex[jobID]; !ok {
		return nil, fmt.Errorf("job %d: %w", jobID, xerrors.ErrNotFound)
	}

	result := make([]models.Transaction, 0)
	for _, t := range m.transactions {
		if t.JobID == jobID {
			result = append(result, t)
		}
	}
	return result, nil
}

// CreateCorrection stores txn and the revision pointing at it under one
// lock. Nothing is written unless the original transaction and the job exist.
func (m *MemoryLedgerStore) CreateCorrection(ctx context.Context, txn models.Transaction, rev models.Revision) (models.Transaction, models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return models.Transaction{}, models.Revision{}, err
	}
	if _, ok := m.txnIndex[rev.OriginalTransactionID]; !ok {
		return models.Transaction{}, models.Revision{}, fmt.Errorf("transaction %d: %w", rev.OriginalTransactionID, xerrors.ErrNotFound)
	}
	if _, ok := m.jobIndex[txn.JobID]; !ok {
		return models.Transaction{}, models.Revision{}, fmt.Errorf("job %d: %w", txn.JobID, xerrors.ErrNotFound)
	}

	now := time.Now().UTC()

	m.nextTxnID++
	txn.ID = m.nextTxnID
	if txn.Timestamp.IsZero() {
		txn.Timestamp = now
	}
	m.txnIndex[txn.ID] = len(m.transactions)
	m.transactions = append(m.transactions, txn)

	m.nextRevisionID++
	rev.ID = m.nextRevisionID
	rev.CorrectedTransactionID = txn.ID
	if rev.Timestamp.IsZero() {
		rev.Timestamp = now
	}
	m.revisions = append(m.revisions, rev)

	return txn, rev, nil
}

func (m *MemoryLedgerStore) ListRevisions(ctx context.Context) ([]models.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := make([]models.Revision, len(m.revisions))
	copy(copied, m.revisions)
	return copied, nil
}

func (m *MemoryLedgerStore) RevisionsByOriginal(ctx context.Context, transactionID int64) ([]models.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Revision, 0)
	for _, r := range m.revisions {
		if r.OriginalTransactionID == transactionID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MemoryLedgerStore) CreateManifest(ctx context.Context, manifest models.SealedManifest) (models.SealedManifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextManifestID++
	manifest.ID = m.nextManifestID
	if manifest.SealedAt.IsZero() {
		manifest.SealedAt = time.Now().UTC()
	}

	m.manifests = append(m.manifests, manifest)
	return manifest, nil
}

func (m *MemoryLedgerStore) GetManifest(ctx context.Context, id int64) (models.SealedManifest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// manifest ids are dense and never deleted, so id-1 is the position
	if id < 1 || id > int64(len(m.manifests)) {
		return models.SealedManifest{}, fmt.Errorf("manifest %d: %w", id, xerrors.ErrNotFound)
	}
	return m.manifests[id-1], nil
}

func (m *MemoryLedgerStore) ListManifests(ctx context.Context) ([]models.SealedManifest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := make([]models.SealedManifest, len(m.manifests))
	copy(copied, m.manifests)
	return copied, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
