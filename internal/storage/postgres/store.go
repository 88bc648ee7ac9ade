package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
)

//go:embed schema.sql
var schema string

const (
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// EnsureSchema creates the ledger tables and indexes when they are missing.
func (p *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresLedgerStore) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	const query = `INSERT INTO jobs (name, description, created_at)
	VALUES ($1,$2,$3) RETURNING id`

	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	err := p.db.QueryRowContext(ctx, query, job.Name, job.Description, job.CreatedAt).Scan(&job.ID)
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}

func (p *PostgresLedgerStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	const query = `SELECT id, name, description, created_at FROM jobs ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		var job models.Job
		if err := rows.Scan(&job.ID, &job.Name, &job.Description, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (p *PostgresLedgerStore) CreateTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	return insertTransaction(ctx, p.db, txn)
}

// insertTransaction returns txn as stored, including the amount the column
// actually holds.
func insertTransaction(ctx context.Context, q rowQuerier, txn models.Transaction) (models.Transaction, error) {
	const query = `INSERT INTO transactions (job_id, account_debit, account_credit, amount, timestamp)
	VALUES ($1,$2,$3,$4,$5) RETURNING id, amount`

	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}
	err := q.QueryRowContext(ctx, query,
		txn.JobID, txn.AccountDebit, txn.AccountCredit, txn.Amount, txn.Timestamp,
	).Scan(&txn.ID, &txn.Amount)
	switch {
	case isPQError(err, pqForeignKeyViolation):
		return models.Transaction{}, fmt.Errorf("job %d: %w", txn.JobID, xerrors.ErrNotFound)
	case isPQError(err, pqCheckViolation):
		return models.Transaction{}, fmt.Errorf("%w: %s", xerrors.ErrInvalidAmount, txn.Amount)
	case err != nil:
		return models.Transaction{}, err
	}
	return txn, nil
}

func (p *PostgresLedgerStore) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	const query = `SELECT id, job_id, account_debit, account_credit, amount, timestamp
	FROM transactions WHERE id = $1`

	var txn models.Transaction
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&txn.ID,
		&txn.JobID,
		&txn.AccountDebit,
		&txn.AccountCredit,
		&txn.Amount,
		&txn.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, xerrors.ErrNotFound)
	}
	if err != nil {
		return models.Transaction{}, err
	}
	return txn, nil
}

// ListTransactions reads every transaction in one statement, so the result
// is a consistent snapshot ordered by id.
func (p *PostgresLedgerStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, job_id, account_debit, account_credit, amount, timestamp
	FROM transactions ORDER BY id`

	return p.queryTransactions(ctx, query)
}

// SealSnapshot holds a SHARE lock on transactions while it reads them. The
// lock waits for every in-flight insert to commit and blocks new ones, so
// the result has no holes below its highest id.
func (p *PostgresLedgerStore) SealSnapshot(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT id, job_id, account_debit, account_credit, amount, timestamp
	FROM transactions ORDER BY id`

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `LOCK TABLE transactions IN SHARE MODE`); err != nil {
		return nil, err
	}
	rows, err := dbTx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	txns, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	return txns, dbTx.Commit()
}

func (p *PostgresLedgerStore) TransactionsByJob(ctx context.Context, jobID int64) ([]models.Transaction, error) {
	const exists = `SELECT 1 FROM jobs WHERE id = $1`
	const query = `SELECT id, job_id, account_debit, account_credit, amount, timestamp
	FROM transactions WHERE job_id = $1 ORDER BY id`

	var one int
	err := p.db.QueryRowContext(ctx, exists, jobID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %d: %w", jobID, xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p.queryTransactions(ctx, query, jobID)
}

func (p *PostgresLedgerStore) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	txns := make([]models.Transaction, 0)
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.JobID,
			&txn.AccountDebit,
			&txn.AccountCredit,
			&txn.Amount,
			&txn.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

// CreateCorrection inserts the corrected transaction and its revision in one
// database transaction. Either both rows are committed or neither is.
func (p *PostgresLedgerStore) CreateCorrection(ctx context.Context, txn models.Transaction, rev models.Revision) (models.Transaction, models.Revision, error) {
	const query = `INSERT INTO revisions (original_transaction_id, corrected_transaction_id, reason, timestamp)
	VALUES ($1,$2,$3,$4) RETURNING id`

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, models.Revision{}, err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	txn, err = insertTransaction(ctx, dbTx, txn)
	if err != nil {
		return models.Transaction{}, models.Revision{}, err
	}

	rev.CorrectedTransactionID = txn.ID
	if rev.Timestamp.IsZero() {
		rev.Timestamp = time.Now().UTC()
	}
	err = dbTx.QueryRowContext(ctx, query,
		rev.OriginalTransactionID, rev.CorrectedTransactionID, rev.Reason, rev.Timestamp,
	).Scan(&rev.ID)
	if isPQError(err, pqForeignKeyViolation) {
		err = fmt.Errorf("transaction %d: %w", rev.OriginalTransactionID, xerrors.ErrNotFound)
	}
	if err != nil {
		return models.Transaction{}, models.Revision{}, err
	}

	if err = dbTx.Commit(); err != nil {
		return models.Transaction{}, models.Revision{}, err
	}
	return txn, rev, nil
}

func (p *PostgresLedgerStore) ListRevisions(ctx context.Context) ([]models.Revision, error) {
	const query = `SELECT id, original_transaction_id, corrected_transaction_id, reason, timestamp
	FROM revisions ORDER BY id`

	return p.queryRevisions(ctx, query)
}

func (p *PostgresLedgerStore) RevisionsByOriginal(ctx context.Context, transactionID int64) ([]models.Revision, error) {
	const query = `SELECT id, original_transaction_id, corrected_transaction_id, reason, timestamp
	FROM revisions WHERE original_transaction_id = $1 ORDER BY id`

	return p.queryRevisions(ctx, query, transactionID)
}

func (p *PostgresLedgerStore) queryRevisions(ctx context.Context, query string, args ...any) ([]models.Revision, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revisions := make([]models.Revision, 0)
	for rows.Next() {
		var rev models.Revision
		if err := rows.Scan(&rev.ID, &rev.OriginalTransactionID, &rev.CorrectedTransactionID, &rev.Reason, &rev.Timestamp); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return revisions, nil
}

func (p *PostgresLedgerStore) CreateManifest(ctx context.Context, m models.SealedManifest) (models.SealedManifest, error) {
	const query = `INSERT INTO sealed_manifests (sealed_at, transaction_count, last_transaction_id, checksum)
	VALUES ($1,$2,$3,$4) RETURNING id`

	if m.SealedAt.IsZero() {
		m.SealedAt = time.Now().UTC()
	}
	if err := p.db.QueryRowContext(ctx, query, m.SealedAt, m.TransactionCount, m.LastTransactionID, m.Checksum).Scan(&m.ID); err != nil {
		return models.SealedManifest{}, err
	}
	return m, nil
}

func (p *PostgresLedgerStore) GetManifest(ctx context.Context, id int64) (models.SealedManifest, error) {
	const query = `SELECT id, sealed_at, transaction_count, last_transaction_id, checksum FROM sealed_manifests WHERE id = $1`

	var m models.SealedManifest
	err := p.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.SealedAt, &m.TransactionCount, &m.LastTransactionID, &m.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SealedManifest{}, fmt.Errorf("manifest %d: %w", id, xerrors.ErrNotFound)
	}
	if err != nil {
		return models.SealedManifest{}, err
	}
	return m, nil
}

func (p *PostgresLedgerStore) ListManifests(ctx context.Context) ([]models.SealedManifest, error) {
	const query = `SELECT id, sealed_at, transaction_count, last_transaction_id, checksum FROM sealed_manifests ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	manifests := make([]models.SealedManifest, 0)
	for rows.Next() {
		var m models.SealedManifest
		if err := rows.Scan(&m.ID, &m.SealedAt, &m.TransactionCount, &m.LastTransactionID, &m.Checksum); err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return manifests, nil
}

func isPQError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
