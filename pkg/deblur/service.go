package deblur

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/unblurhq/unblur/pkg/billing"
	"github.com/unblurhq/unblur/pkg/credit"
)

// CreditCost is the ledger charge for one deblur run.
const CreditCost int64 = 1

// Job is one deblur run tied to an account.
type Job struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	RequestID  string
	SourceURL  string
	ResultURL  string
	Status     Status
	CreditCost int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JobStore is the persistence boundary for deblur jobs.
type JobStore interface {
	Insert(ctx context.Context, job *Job) error
	// ByRequestID returns ErrJobNotFound when the account has no such job.
	ByRequestID(ctx context.Context, accountID uuid.UUID, requestID string) (*Job, error)
	SetResult(ctx context.Context, requestID string, status Status, resultURL string) (*Job, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Job, error)
}

// API is the subset of the deblur client the service calls.
type API interface {
	Submit(ctx context.Context, imageURL string) (string, error)
	Result(ctx context.Context, requestID string) (*Prediction, error)
}

// ResultCache holds terminal predictions for a short window so status
// polling does not hammer the external API.
type ResultCache interface {
	Get(ctx context.Context, requestID string) (*Prediction, bool, error)
	Set(ctx context.Context, requestID string, p *Prediction) error
}

// Service runs the paid deblur flow against the credit ledger.
type Service struct {
	accounts billing.AccountStore
	jobs     JobStore
	api      API
	cache    ResultCache
	log      *slog.Logger
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithCache attaches a result cache. Without one every status check hits
// the external API.
func WithCache(c ResultCache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService wires the deblur service. Panics on missing dependencies to
// fail fast during initialization.
func NewService(accounts billing.AccountStore, jobs JobStore, api API, opts ...ServiceOption) *Service {
	if accounts == nil {
		panic("deblur: account store is required")
	}
	if jobs == nil {
		panic("deblur: job store is required")
	}
	if api == nil {
		panic("deblur: API client is required")
	}

	s := &Service{
		accounts: accounts,
		jobs:     jobs,
		api:      api,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit charges one credit and starts a deblur run. The charge happens
// only after the API accepts the image, and the balance check runs again
// inside the store transaction so concurrent submissions cannot spend the
// same credit twice.
func (s *Service) Submit(ctx context.Context, identityID, imageURL string) (*Job, error) {
	if imageURL == "" {
		return nil, ErrEmptyImageURL
	}

	acct, err := s.accounts.ByIdentityID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if !credit.HasEnough(acct.Credit, acct.BonusCredit, CreditCost) {
		return nil, billing.ErrInsufficientCredit
	}

	requestID, err := s.api.Submit(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("submit deblur request: %w", err)
	}

	acct, err = s.accounts.UpdateByIdentityID(ctx, identityID, "", func(a *billing.Account) error {
		if !credit.HasEnough(a.Credit, a.BonusCredit, CreditCost) {
			return billing.ErrInsufficientCredit
		}
		balance := credit.Consume(a.Credit, a.BonusCredit, CreditCost)
		a.Credit = balance.Credit
		a.BonusCredit = balance.Bonus
		return nil
	})
	if err != nil {
		// The run is already started; the account keeps its credit and the
		// result is simply never delivered.
		s.log.ErrorContext(ctx, "deblur charge failed after submission",
			slog.String("identity_id", identityID),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return nil, err
	}

	job := &Job{
		AccountID:  acct.ID,
		RequestID:  requestID,
		SourceURL:  imageURL,
		Status:     StatusProcessing,
		CreditCost: CreditCost,
	}
	if err := s.jobs.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("record deblur job %s: %w", requestID, err)
	}
	return job, nil
}

// Result returns the current state of a job, consulting the cache and the
// external API for jobs that are still processing. Terminal results are
// persisted on the job row.
func (s *Service) Result(ctx context.Context, identityID, requestID string) (*Job, error) {
	if requestID == "" {
		return nil, ErrEmptyRequestID
	}

	acct, err := s.accounts.ByIdentityID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.ByRequestID(ctx, acct.ID, requestID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}

	p, err := s.lookupPrediction(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !p.Status.Terminal() {
		return job, nil
	}

	updated, err := s.jobs.SetResult(ctx, requestID, p.Status, p.OutputURL)
	if err != nil {
		return nil, fmt.Errorf("persist deblur result %s: %w", requestID, err)
	}
	if p.Status == StatusFailed {
		return updated, errors.Join(ErrJobFailed, errors.New(p.Error))
	}
	return updated, nil
}

// History lists the account's jobs, newest first.
func (s *Service) History(ctx context.Context, identityID string, limit int) ([]Job, error) {
	acct, err := s.accounts.ByIdentityID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return s.jobs.ListByAccount(ctx, acct.ID, limit)
}

func (s *Service) lookupPrediction(ctx context.Context, requestID string) (*Prediction, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, requestID)
		if err != nil {
			// Cache trouble degrades to an API call.
			s.log.WarnContext(ctx, "deblur result cache read failed",
				slog.String("request_id", requestID),
				slog.Any("error", err))
		} else if ok {
			return p, nil
		}
	}

	p, err := s.api.Result(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("fetch deblur result %s: %w", requestID, err)
	}

	if s.cache != nil && p.Status.Terminal() {
		if err := s.cache.Set(ctx, requestID, p); err != nil {
			s.log.WarnContext(ctx, "deblur result cache write failed",
				slog.String("request_id", requestID),
				slog.Any("error", err))
		}
	}
	return p, nil
}
