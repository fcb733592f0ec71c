package service

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/session"
	"tillpos/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	TaxRatePercent    decimal.Decimal
	LowStockThreshold int
}

type Service struct {
	repo              store.Repository
	sessions          session.Store
	logger            *zap.Logger
	validate          *validator.Validate
	taxRate           decimal.Decimal
	lowStockThreshold int
	now               func() time.Time
}

func New(repo store.Repository, sessions session.Store, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 5
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	return &Service{
		repo:              repo,
		sessions:          sessions,
		logger:            logger.Named("service"),
		validate:          validate,
		taxRate:           opts.TaxRatePercent,
		lowStockThreshold: opts.LowStockThreshold,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// validateStruct runs the validate tags on v and converts failures into a
// *domain.ValidationError keyed by json field name.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, domain.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	default:
		return "is invalid"
	}
}

// nonNegative appends a field error for each negative amount.
func nonNegative(verr *domain.ValidationError, amounts map[string]decimal.Decimal) {
	for _, field := range slices.Sorted(maps.Keys(amounts)) {
		if amounts[field].IsNegative() {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: field, Message: "must be at least 0"})
		}
	}
}

func sessionKey(actor domain.Actor) string {
	return "user:" + strconv.FormatInt(actor.UserID, 10)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if _, err := s.authorize(ctx, CapViewAudit); err != nil {
		return nil, err
	}

	day := s.now()
	if strings.TrimSpace(date) != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, domain.NewValidationError("date", "must be a date in 2006-01-02 format")
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.ListAuditLogs(ctx, from, from.AddDate(0, 0, 1), limit)
}
