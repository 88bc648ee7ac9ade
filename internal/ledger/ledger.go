package ledger

import (
	"context"
	"time"

	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces"
	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/models/events"
	"go.uber.org/zap"
)

// Ledger is the main struct representing our ledger system.
// It records jobs and transactions, seals the transaction set and records
// corrections. It holds no locks of its own; every call goes straight to
// the store, which is responsible for id assignment.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher // may be nil
	topic     string
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Ledger)

// WithPublisher sends a TransactionCreated event to topic after every
// successful CreateTransaction.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = p
		l.topic = topic
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides time.Now, used for timestamps and seal times.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger is a constructor function that creates a new Ledger instance.
// We pass in a storage implementation (MemoryLedgerStore, Postgres, etc.)
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		topic:  events.TransactionsTopic,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// JobInput is the caller-supplied part of a Job.
type JobInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (l *Ledger) CreateJob(ctx context.Context, in JobInput) (models.Job, error) {
	job, err := l.store.CreateJob(ctx, models.Job{
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   l.now().UTC(),
	})
	if err != nil {
		return models.Job{}, err
	}
	l.logger.Debug("job created", zap.Int64("job_id", job.ID), zap.String("name", job.Name))
	return job, nil
}

func (l *Ledger) ListJobs(ctx context.Context) ([]models.Job, error) {
	return l.store.ListJobs(ctx)
}

// CreateTransaction validates in, stores it and hands a TransactionCreated
// event to the publisher. Publishing never affects the result.
func (l *Ledger) CreateTransaction(ctx context.Context, in TransactionInput) (models.Transaction, error) {
	txn, err := l.validate(in)
	if err != nil {
		return models.Transaction{}, err
	}

	stored, err := l.store.CreateTransaction(ctx, txn)
	if err != nil {
		return models.Transaction{}, err
	}

	l.publish(ctx, stored)
	return stored, nil
}

func (l *Ledger) publish(ctx context.Context, txn models.Transaction) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, l.topic, events.NewTransactionCreated(txn)); err != nil {
		l.logger.Warn("transaction event not published",
			zap.Int64("transaction_id", txn.ID),
			zap.String("topic", l.topic),
			zap.Error(err))
	}
}

func (l *Ledger) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

func (l *Ledger) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return l.store.ListTransactions(ctx)
}

func (l *Ledger) TransactionsByJob(ctx context.Context, jobID int64) ([]models.Transaction, error) {
	return l.store.TransactionsByJob(ctx, jobID)
}

func (l *Ledger) ListRevisions(ctx context.Context) ([]models.Revision, error) {
	return l.store.ListRevisions(ctx)
}

func (l *Ledger) ListManifests(ctx context.Context) ([]models.SealedManifest, error) {
	return l.store.ListManifests(ctx)
}
