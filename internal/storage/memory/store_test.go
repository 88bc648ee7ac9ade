package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTxn(jobID int64) models.Transaction {
	return models.Transaction{
		JobID:         jobID,
		AccountDebit:  "DE89370400440532013000",
		AccountCredit: "DE89370400440532013001",
		Amount:        decimal.NewFromInt(100),
	}
}

func TestCreateJobAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	first, err := store.CreateJob(ctx, models.Job{Name: "Driver"})
	require.NoError(t, err)
	second, err := store.CreateJob(ctx, models.Job{Name: "Courier"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, first.ID)
	assert.EqualValues(t, 2, second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Nil(t, first.Description)

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Driver", jobs[0].Name)
}

func TestCreateTransactionRequiresJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	_, err := store.CreateTransaction(ctx, newTxn(42))
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	txns, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	job, err := store.CreateJob(ctx, models.Job{Name: "Driver"})
	require.NoError(t, err)

	stored, err := store.CreateTransaction(ctx, newTxn(job.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.ID)
	assert.False(t, stored.Timestamp.IsZero())

	got, err := store.GetTransaction(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = store.GetTransaction(ctx, 9999)
	require.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestTransactionsByJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	driver, _ := store.CreateJob(ctx, models.Job{Name: "Driver"})
	courier, _ := store.CreateJob(ctx, models.Job{Name: "Courier"})

	for _, jobID := range []int64{driver.ID, courier.ID, driver.ID} {
		_, err := store.CreateTransaction(ctx, newTxn(jobID))
		require.NoError(t, err)
	}

	txns, err := store.TransactionsByJob(ctx, driver.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.EqualValues(t, 1, txns[0].ID)
	assert.EqualValues(t, 3, txns[1].ID)

	_, err = store.TransactionsByJob(ctx, 77)
	require.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCreateCorrectionWritesBothRows(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	job, _ := store.CreateJob(ctx, models.Job{Name: "Driver"})
	original, _ := store.CreateTransaction(ctx, newTxn(job.ID))

	corrected, rev, err := store.CreateCorrection(ctx, newTxn(job.ID), models.Revision{
		OriginalTransactionID: original.ID,
		Reason:                "Correction",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, corrected.ID)
	assert.EqualValues(t, 1, rev.ID)
	assert.Equal(t, original.ID, rev.OriginalTransactionID)
	assert.Equal(t, corrected.ID, rev.CorrectedTransactionID)

	byOriginal, err := store.RevisionsByOriginal(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Revision{rev}, byOriginal)

	none, err := store.RevisionsByOriginal(ctx, corrected.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateCorrectionLeavesNoOrphans(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	job, _ := store.CreateJob(ctx, models.Job{Name: "Driver"})
	original, _ := store.CreateTransaction(ctx, newTxn(job.ID))

	_, _, err := store.CreateCorrection(ctx, newTxn(job.ID), models.Revision{OriginalTransactionID: 99})
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	_, _, err = store.CreateCorrection(ctx, newTxn(77), models.Revision{OriginalTransactionID: original.ID})
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = store.CreateCorrection(cancelled, newTxn(job.ID), models.Revision{OriginalTransactionID: original.ID})
	require.ErrorIs(t, err, context.Canceled)

	txns, _ := store.ListTransactions(ctx)
	revs, _ := store.ListRevisions(ctx)
	assert.Len(t, txns, 1)
	assert.Empty(t, revs)

	next, err := store.CreateTransaction(ctx, newTxn(job.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.ID, "failed corrections must not consume ids")
}

func TestSealSnapshotMatchesList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	job, _ := store.CreateJob(ctx, models.Job{Name: "Driver"})
	for i := 0; i < 3; i++ {
		_, err := store.CreateTransaction(ctx, newTxn(job.ID))
		require.NoError(t, err)
	}

	snap, err := store.SealSnapshot(ctx)
	require.NoError(t, err)
	all, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, snap)
}

func TestManifests(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	_, err := store.GetManifest(ctx, 1)
	require.ErrorIs(t, err, xerrors.ErrNotFound)

	m, err := store.CreateManifest(ctx, models.SealedManifest{TransactionCount: 3, Checksum: "abc"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, m.ID)
	assert.False(t, m.SealedAt.IsZero())

	got, err := store.GetManifest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	all, err := store.ListManifests(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConcurrentCreatesAssignUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	job, _ := store.CreateJob(ctx, models.Job{Name: "Driver"})

	const workers = 50
	var wg sync.WaitGroup
	ids := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txn, err := store.CreateTransaction(ctx, newTxn(job.ID))
			assert.NoError(t, err)
			ids <- txn.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	txns, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	for i, txn := range txns {
		assert.EqualValues(t, i+1, txn.ID)
	}
}
