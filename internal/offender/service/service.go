// Package service implements the offender setup workflow: a practitioner
// starts a setup for a case, the offender uploads a reference photo, and the
// practitioner completes (verifies) or terminates the setup. The primary
// mutation always commits first; audits and notifications run afterwards,
// best-effort.
package service

import (
	"context"
	"log"
	"sync"
	"time"

	"supervision/internal/audit"
	"supervision/internal/contacts"
	"supervision/internal/media"
	"supervision/internal/notify"
	offendermetrics "supervision/internal/offender/metrics"
	"supervision/internal/offender/models"
	id "supervision/pkg/domain"
)

// OffenderStore persists offender aggregates. Create returns
// sentinel.ErrConflict when another active offender holds the same CRN.
type OffenderStore interface {
	Create(ctx context.Context, offender *models.Offender) error
	FindByID(ctx context.Context, offenderID id.OffenderID) (*models.Offender, error)
	Update(ctx context.Context, offender *models.Offender) error
	List(ctx context.Context, limit, offset int) ([]*models.Offender, error)
}

// SetupStore persists pending setups.
type SetupStore interface {
	Create(ctx context.Context, setup *models.Setup) error
	FindByID(ctx context.Context, setupID id.SetupID) (*models.Setup, error)
	MarkStarted(ctx context.Context, setupID id.SetupID, at time.Time) error
	Delete(ctx context.Context, setupID id.SetupID) error
}

// StoreTx runs fn inside one transaction; stores called with txCtx join it.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Service orchestrates the setup workflow.
type Service struct {
	offenders OffenderStore
	setups    SetupStore
	tx        StoreTx
	storage   media.ObjectStorage
	contacts  contacts.Provider
	recorder  *audit.Recorder
	notifier  notify.Notifier
	metrics   *offendermetrics.Metrics
	log       *log.Logger
}

type serviceConfig struct {
	tx       StoreTx
	contacts contacts.Provider
	recorder *audit.Recorder
	notifier notify.Notifier
	metrics  *offendermetrics.Metrics
	log      *log.Logger
}

type Option func(cfg *serviceConfig)

func WithStoreTx(tx StoreTx) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

func WithContacts(provider contacts.Provider) Option {
	return func(cfg *serviceConfig) { cfg.contacts = provider }
}

func WithRecorder(recorder *audit.Recorder) Option {
	return func(cfg *serviceConfig) { cfg.recorder = recorder }
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(cfg *serviceConfig) { cfg.notifier = notifier }
}

func WithMetrics(m *offendermetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithLogger(logger *log.Logger) Option {
	return func(cfg *serviceConfig) { cfg.log = logger }
}

// New constructs a Service. Collaborators not supplied through options fall
// back to no-op implementations so the workflow itself never nil-checks them.
func New(offenders OffenderStore, setups SetupStore, storage media.ObjectStorage, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = NewInMemoryStoreTx()
	}
	if cfg.contacts == nil {
		cfg.contacts = contacts.MockProvider{Unresolvable: true}
	}
	if cfg.notifier == nil {
		cfg.notifier = notify.LogNotifier{Log: cfg.log}
	}
	if cfg.recorder == nil {
		cfg.recorder = audit.NewRecorder(discardAuditStore{}, cfg.log)
	}
	return &Service{
		offenders: offenders,
		setups:    setups,
		tx:        cfg.tx,
		storage:   storage,
		contacts:  cfg.contacts,
		recorder:  cfg.recorder,
		notifier:  cfg.notifier,
		metrics:   cfg.metrics,
		log:       cfg.log,
	}
}

// InMemoryStoreTx serializes "transactions" with a mutex. Memory stores have
// no rollback, so fn must keep mutations until after its last fallible step.
type InMemoryStoreTx struct {
	mu sync.Mutex
}

func NewInMemoryStoreTx() *InMemoryStoreTx {
	return &InMemoryStoreTx{}
}

func (t *InMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type discardAuditStore struct{}

func (discardAuditStore) Append(context.Context, audit.Event) error        { return nil }
func (discardAuditStore) AppendBatch(context.Context, []audit.Event) error { return nil }
