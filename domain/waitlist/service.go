package waitlist

import (
	"context"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/internal/models"
	apperrors "github.com/akeren/waitlist-service/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/waitlist-service/domain/waitlist"

// Span outcome values, also used as metric labels.
const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"
)

type WaitlistService interface {
	// Register validates email and adds it to the waitlist. The email is stored verbatim.
	Register(ctx context.Context, email string) (*RegisterResult, error)

	// Count returns the number of registered emails.
	Count(ctx context.Context) (int64, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	validate   *validator.Validate
	tracer     trace.Tracer
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository) WaitlistService {
	return &waitlistService{
		logger:     logger,
		repository: repository,
		validate:   validator.New(),
		tracer:     otel.Tracer(tracerName),
	}
}

func (s *waitlistService) Register(ctx context.Context, email string) (*RegisterResult, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.Register")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if err := s.validateEmail(email); err != nil {
		logger.Info("Waitlist registration rejected", "reason", "invalid_email")
		setOutcome(span, outcomeInvalid)
		return nil, err
	}

	existing, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Failed to look up waitlist entry", "error", err)
		failSpan(span, err)
		return nil, NewSystemError(MsgRegisterFailed, err)
	}

	if existing != nil {
		logger.Info("Waitlist registration rejected", "reason", "duplicate")
		setOutcome(span, outcomeDuplicate)
		return nil, NewDuplicateError(nil)
	}

	entry, err := s.repository.Create(ctx, &models.WaitlistEntry{Email: email})
	if err != nil {
		// Another request inserted the same email between lookup and insert;
		// the unique index rejected ours.
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			logger.Info("Waitlist registration rejected", "reason", "duplicate", "detected_by", "unique_constraint")
			setOutcome(span, outcomeDuplicate)
			return nil, NewDuplicateError(err)
		}

		logger.Error("Failed to create waitlist entry", "error", err)
		failSpan(span, err)
		return nil, NewSystemError(MsgRegisterFailed, err)
	}

	logger.Info("Waitlist entry created", "id", entry.ID)
	setOutcome(span, outcomeCreated)

	return &RegisterResult{
		Message: MsgRegistered,
		Entry:   ToWaitlistEntryResponse(entry),
	}, nil
}

func (s *waitlistService) Count(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.Count")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	count, err := s.repository.Count(ctx)
	if err != nil {
		logger.Error("Failed to count waitlist entries", "error", err)
		failSpan(span, err)
		return 0, NewSystemError(MsgCountFailed, err)
	}

	span.SetAttributes(attribute.Int64("waitlist.count", count))
	return count, nil
}

func (s *waitlistService) validateEmail(email string) error {
	req := RegisterRequest{Email: email}

	if err := s.validate.Struct(&req); err != nil {
		return NewValidationError(apperrors.FirstValidationMessage(err, &req, MsgInvalidEmail), err)
	}

	return nil
}

func setOutcome(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("waitlist.outcome", outcome))
}

func failSpan(span trace.Span, err error) {
	setOutcome(span, outcomeError)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
