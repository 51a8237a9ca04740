package cvs

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func validRequest() SaveRequest {
	return SaveRequest{
		Personal: PersonalInput{FullName: "Ada Lovelace", Email: "ada@example.com"},
		Profile:  "Analytical engines.",
		Skills:   []string{"Go", ""},
		Experiences: []ExperienceInput{
			{Company: "Acme", Role: "Engineer", Period: "2020-2023"},
		},
		Education: []EducationInput{
			{Institution: "Cambridge", Qualification: "BSc"},
		},
		References: []string{"Ref A"},
	}
}

func TestServiceCreateAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	id, err := svc.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cv, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cv.Personal.FullName != "Ada Lovelace" || len(cv.Skills) != 1 || cv.Education[0].Institution != "Cambridge" {
		t.Fatalf("unexpected aggregate: %+v", cv)
	}
}

func TestServiceRejectsBlankFullName(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	req := validRequest()
	req.Personal.FullName = "   "

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "personal.fullName is required") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestServiceRejectsOverlongFields(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	req := validRequest()
	req.Skills = []string{strings.Repeat("x", 256)}

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "skills[0] must be at most 255") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestServiceRejectsNonPositiveIDs(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.Get(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Get: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Update(ctx, -1, validRequest()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Update: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Delete(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Delete: expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceUpdateMissingCV(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Update(context.Background(), 77, validRequest()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRequestToAggregate(t *testing.T) {
	cv := validRequest().ToAggregate()
	if cv.ID != 0 {
		t.Fatalf("expected no id, got %d", cv.ID)
	}
	if cv.Personal.Email != "ada@example.com" || cv.Experiences[0].Role != "Engineer" {
		t.Fatalf("fields not copied: %+v", cv)
	}
	if len(cv.Skills) != 2 {
		t.Fatalf("conversion must not filter, got %v", cv.Skills)
	}
}

func TestServiceDropsBlankEntriesBeforeLimits(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	req := validRequest()
	req.Skills = []string{"Go", strings.Repeat(" ", 300)}
	for i := 0; i < 204; i++ {
		req.Skills = append(req.Skills, "")
	}
	for i := 0; i < 150; i++ {
		req.Experiences = append(req.Experiences, ExperienceInput{Period: "2020", Details: "no company or role"})
		req.References = append(req.References, "\t")
	}

	id, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cv, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cv.Skills) != 1 || cv.Skills[0] != "Go" {
		t.Fatalf("skills = %v, want [Go]", cv.Skills)
	}
	if len(cv.Experiences) != 1 || len(cv.References) != 1 {
		t.Fatalf("blank entries persisted: %d experiences, %d references", len(cv.Experiences), len(cv.References))
	}

	if err := svc.Update(ctx, id, req); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestServiceStillLimitsKeptEntries(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	req := validRequest()
	req.Skills = nil
	for i := 0; i < 201; i++ {
		req.Skills = append(req.Skills, "Go")
	}

	if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
