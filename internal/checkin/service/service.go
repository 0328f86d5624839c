// Package service implements the check-in lifecycle: the sweep schedules
// check-ins from each verified offender's cadence, the offender submits
// snapshots and a survey, a practitioner reviews, and overdue check-ins
// expire. The primary mutation always commits first; audits, notifications
// and domain events follow, best-effort.
package service

import (
	"context"
	"log"
	"time"

	"supervision/internal/audit"
	checkinmetrics "supervision/internal/checkin/metrics"
	"supervision/internal/checkin/models"
	"supervision/internal/contacts"
	"supervision/internal/media"
	"supervision/internal/notify"
	offendermodels "supervision/internal/offender/models"
	"supervision/internal/verification"
	id "supervision/pkg/domain"
	"supervision/pkg/platform/events"
)

// CheckinStore persists check-in aggregates.
type CheckinStore interface {
	Create(ctx context.Context, checkin *models.Checkin) error
	FindByID(ctx context.Context, checkinID id.CheckinID) (*models.Checkin, error)
	Update(ctx context.Context, checkin *models.Checkin) error
	ListByOffender(ctx context.Context, offenderID id.OffenderID, limit, offset int) ([]*models.Checkin, error)
	ListOpenDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Checkin, error)
	ListCreatedDueBetween(ctx context.Context, from, to time.Time) ([]*models.Checkin, error)
	ExistsForOffenderDue(ctx context.Context, offenderID id.OffenderID, dueDate time.Time) (bool, error)
}

// OffenderSource is the read side of the offender module this service needs.
type OffenderSource interface {
	FindByID(ctx context.Context, offenderID id.OffenderID) (*offendermodels.Offender, error)
	DueCandidates(ctx context.Context, from, to time.Time) ([]*offendermodels.Offender, error)
}

// Verifier runs the identity check on submitted snapshots.
type Verifier interface {
	Verify(ctx context.Context, referenceKey string, snapshotKeys []string) verification.Outcome
}

// StoreTx runs fn inside one transaction; stores called with txCtx join it.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Service orchestrates the check-in lifecycle.
type Service struct {
	checkins  CheckinStore
	offenders OffenderSource
	verifier  Verifier
	storage   media.ObjectStorage
	tx        StoreTx
	contacts  contacts.Provider
	recorder  *audit.Recorder
	notifier  notify.Notifier
	publisher events.Publisher
	metrics   *checkinmetrics.Metrics
	log       *log.Logger
}

type serviceConfig struct {
	tx        StoreTx
	contacts  contacts.Provider
	recorder  *audit.Recorder
	notifier  notify.Notifier
	publisher events.Publisher
	metrics   *checkinmetrics.Metrics
	log       *log.Logger
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

func WithPublisher(publisher events.Publisher) Option {
	return func(cfg *serviceConfig) { cfg.publisher = publisher }
}

func WithMetrics(m *checkinmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithLogger(logger *log.Logger) Option {
	return func(cfg *serviceConfig) { cfg.log = logger }
}

// New constructs a Service. Collaborators not supplied through options fall
// back to no-op implementations so the lifecycle itself never nil-checks them.
func New(checkins CheckinStore, offenders OffenderSource, verifier Verifier, storage media.ObjectStorage, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
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
	if cfg.publisher == nil {
		cfg.publisher = dropPublisher{}
	}
	return &Service{
		checkins:  checkins,
		offenders: offenders,
		verifier:  verifier,
		storage:   storage,
		tx:        cfg.tx,
		contacts:  cfg.contacts,
		recorder:  cfg.recorder,
		notifier:  cfg.notifier,
		publisher: cfg.publisher,
		metrics:   cfg.metrics,
		log:       cfg.log,
	}
}

type inMemoryStoreTx struct{}

func newInMemoryStoreTx() inMemoryStoreTx { return inMemoryStoreTx{} }

func (inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type discardAuditStore struct{}

func (discardAuditStore) Append(context.Context, audit.Event) error        { return nil }
func (discardAuditStore) AppendBatch(context.Context, []audit.Event) error { return nil }

type dropPublisher struct{}

func (dropPublisher) Publish(context.Context, events.Type, string, any) error { return nil }

func (s *Service) warnf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf("WARN "+format, args...)
	}
}

// resolveContacts is the best-effort lookup shared by the lifecycle flows.
func (s *Service) resolveContacts(ctx context.Context, crn id.CRN) *contacts.ContactDetails {
	details, err := s.contacts.GetContactDetails(ctx, crn)
	if err != nil {
		return nil
	}
	return details
}
