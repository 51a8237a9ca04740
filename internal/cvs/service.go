package cvs

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Service validates requests at the boundary and delegates to a Repo.
type Service struct {
	Repo     Repo
	validate *validator.Validate
}

// NewService constructs a Service on repo.
func NewService(repo Repo) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return !isBlank(fl.Field().String())
	})
	return &Service{Repo: repo, validate: v}
}

// Create validates req and persists it as a new CV.
func (s *Service) Create(ctx context.Context, req SaveRequest) (int64, error) {
	req = req.withoutBlankEntries()
	if err := s.check(req); err != nil {
		return 0, err
	}
	return s.Repo.Create(ctx, req.ToAggregate())
}

// Update validates req and replaces the CV stored under id.
func (s *Service) Update(ctx context.Context, id int64, req SaveRequest) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	req = req.withoutBlankEntries()
	if err := s.check(req); err != nil {
		return err
	}
	return s.Repo.Replace(ctx, id, req.ToAggregate())
}

// Get returns the CV stored under id.
func (s *Service) Get(ctx context.Context, id int64) (CVAggregate, error) {
	if id <= 0 {
		return CVAggregate{}, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	return s.Repo.Fetch(ctx, id)
}

// List returns all CV summaries, most recently updated first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.Repo.ListSummaries(ctx)
}

// Delete removes the CV stored under id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	return s.Repo.Delete(ctx, id)
}

func (s *Service) check(req SaveRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "SaveRequest.")
		switch e.Tag() {
		case "notblank":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
