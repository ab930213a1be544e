// Package service is the registry state machine. Every mutating operation
// runs inside one ledger transaction: validation, state checks and writes
// either all land or leave the ledger untouched. Events are published only
// after commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idattest/internal/events"
	"idattest/internal/ledger"
	"idattest/internal/registry/address"
	"idattest/internal/registry/metrics"
	"idattest/internal/registry/models"
	"idattest/internal/registry/verifier"
	dErrors "idattest/pkg/domain-errors"
	"idattest/pkg/platform/sentinel"
	"idattest/pkg/requestcontext"
)

const tracerName = "idattest/internal/registry/service"

const (
	opInitialize     = "initialize"
	opRegister       = "register_identity"
	opVerifyProof    = "verify_proof"
	opAttest         = "attest"
	opRevoke         = "revoke_identity"
	opUpdateMetadata = "update_metadata"
)

// Service orchestrates registry operations over a ledger store.
type Service struct {
	store     ledger.Store
	addrs     *address.Deriver
	verifier  verifier.Verifier
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithVerifier(v verifier.Verifier) Option {
	return func(s *Service) {
		if v != nil {
			s.verifier = v
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a Service. Signatures are checked with Ed25519 unless
// WithVerifier says otherwise.
func New(store ledger.Store, addrs *address.Deriver, opts ...Option) *Service {
	s := &Service{
		store:    store,
		addrs:    addrs,
		verifier: verifier.Ed25519{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// txFunc fills in the receipt for one transaction attempt.
type txFunc func(ctx context.Context, accts ledger.Accounts, r *models.Receipt) error

// execute runs fn in a ledger transaction, then records, logs and publishes.
// Optimistic stores may call fn more than once, so the receipt is rebuilt on
// every attempt.
func (s *Service) execute(ctx context.Context, op string, fn txFunc) (*models.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "registry."+op)
	defer span.End()
	start := time.Now()

	var receipt *models.Receipt
	err := s.store.RunInTx(ctx, func(ctx context.Context, accts ledger.Accounts) error {
		receipt = &models.Receipt{TxID: uuid.NewString()}
		return fn(ctx, accts, receipt)
	})
	if err != nil {
		err = translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
		s.metrics.ObserveOperation(op, outcome(err), time.Since(start))
		s.logger.InfoContext(ctx, "registry operation rejected",
			"operation", op,
			"outcome", outcome(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("registry.tx_id", receipt.TxID))
	s.metrics.ObserveOperation(op, "ok", time.Since(start))
	s.publish(ctx, receipt)
	return receipt, nil
}

// reject records an operation that failed validation before any transaction.
func (s *Service) reject(ctx context.Context, op string, err error) error {
	s.metrics.ObserveOperation(op, outcome(err), 0)
	s.logger.DebugContext(ctx, "registry operation invalid",
		"operation", op,
		"outcome", outcome(err),
		"request_id", requestcontext.RequestID(ctx),
	)
	return err
}

func (s *Service) publish(ctx context.Context, r *models.Receipt) {
	if s.publisher == nil || len(r.Events) == 0 {
		return
	}
	named := make([]events.Named, len(r.Events))
	for i, ev := range r.Events {
		named[i] = ev
	}
	envs, err := events.Wrap(r.TxID, s.addrs.Program().String(), requestcontext.Now(ctx), named...)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to wrap events", "tx_id", r.TxID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, envs...); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish events", "tx_id", r.TxID, "error", err)
	}
}

// translate maps store failures onto domain errors; registry errors pass through.
func translate(err error) error {
	var regErr *models.Error
	if errors.As(err, &regErr) {
		return regErr
	}
	var coder dErrors.Coder
	if errors.As(err, &coder) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent ledger update, retry the request")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger transaction timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger transaction failed")
	}
}

// outcome is the metrics label for err: the registry error name or the domain code.
func outcome(err error) string {
	var regErr *models.Error
	if errors.As(err, &regErr) {
		return regErr.Reason()
	}
	return string(dErrors.CodeOf(err))
}

func unixNow(ctx context.Context) int64 {
	return requestcontext.Now(ctx).Unix()
}
