package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to LEDGER_TEST_DATABASE_URL and resets the ledger
// tables. Tests are skipped when the variable is not set.
func openTestStore(t *testing.T) *PostgresLedgerStore {
	t.Helper()

	dsn := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS sealed_manifests, revisions, transactions, jobs`)
	require.NoError(t, err)

	store := NewPostgresLedgerStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestPostgresJobsAndTransactions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	desc := "Experienced driver"
	job, err := store.CreateJob(ctx, models.Job{Name: "Driver", Description: &desc})
	require.NoError(t, err)
	assert.EqualValues(t, 1, job.ID)

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].Description)
	assert.Equal(t, desc, *jobs[0].Description)

	_, err = store.CreateTransaction(ctx, models.Transaction{
		JobID: 99, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	txn, err := store.CreateTransaction(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.RequireFromString("100.50"),
	})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(txn.Amount))

	_, err = store.GetTransaction(ctx, 9999)
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	byJob, err := store.TransactionsByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, byJob, 1)
}

func TestPostgresRevisionsAndManifests(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, models.Job{Name: "Driver"})
	require.NoError(t, err)
	original, err := store.CreateTransaction(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	corrected, rev, err := store.CreateCorrection(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(200),
	}, models.Revision{OriginalTransactionID: original.ID, Reason: "Correction"})
	require.NoError(t, err)
	assert.Equal(t, corrected.ID, rev.CorrectedTransactionID)

	revs, err := store.RevisionsByOriginal(ctx, original.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, rev.ID, revs[0].ID)

	m, err := store.CreateManifest(ctx, models.SealedManifest{TransactionCount: 2, LastTransactionID: corrected.ID, Checksum: "deadbeef"})
	require.NoError(t, err)
	got, err := store.GetManifest(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got.Checksum)
	assert.Equal(t, corrected.ID, got.LastTransactionID)

	all, err := store.ListManifests(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPostgresAmountsAreStoredExactly(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, models.Job{Name: "Driver"})
	require.NoError(t, err)

	for _, amount := range []string{"0.00001", "1.23456", "100.50"} {
		in := decimal.RequireFromString(amount)
		txn, err := store.CreateTransaction(ctx, models.Transaction{
			JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: in,
		})
		require.NoError(t, err, amount)
		assert.True(t, txn.Amount.Equal(in), "returned %s for %s", txn.Amount, amount)

		got, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(txn.Amount), "stored %s, returned %s", got.Amount, txn.Amount)
	}

	_, err = store.CreateTransaction(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.Zero,
	})
	require.ErrorIs(t, err, xerrors.ErrInvalidAmount)
}

func TestPostgresCreateCorrectionRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, models.Job{Name: "Driver"})
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, _, err = store.CreateCorrection(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(200),
	}, models.Revision{OriginalTransactionID: 9999, Reason: "Correction"})
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	txns, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 1, "corrected row must be rolled back with the revision")

	revs, err := store.ListRevisions(ctx)
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestPostgresSealSnapshotWaitsForInFlightInserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.CreateJob(ctx, models.Job{Name: "Driver"})
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	// an insert that has taken its id but not committed yet
	pending, err := store.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer pending.Rollback()
	_, err = insertTransaction(ctx, pending, models.Transaction{
		JobID: job.ID, AccountDebit: "a", AccountCredit: "b", Amount: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	type result struct {
		txns []models.Transaction
		err  error
	}
	done := make(chan result, 1)
	go func() {
		txns, err := store.SealSnapshot(ctx)
		done <- result{txns, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("snapshot returned before the pending insert committed: %d rows, err %v", len(r.txns), r.err)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, pending.Commit())

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.Len(t, r.txns, 2)
		assert.EqualValues(t, 1, r.txns[0].ID)
		assert.EqualValues(t, 2, r.txns[1].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot did not finish after the insert committed")
	}
}
