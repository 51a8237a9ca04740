package cvs

import "time"

// SaveRequest is the typed body accepted by create and update. Blank child
// entries are allowed here; they are dropped before validation and never
// count toward the limits.
type SaveRequest struct {
	Personal    PersonalInput     `json:"personal"`
	Profile     string            `json:"profile" validate:"max=20000"`
	Skills      []string          `json:"skills" validate:"max=200,dive,max=255"`
	Experiences []ExperienceInput `json:"experiences" validate:"max=100,dive"`
	Education   []EducationInput  `json:"education" validate:"max=100,dive"`
	References  []string          `json:"references" validate:"max=100,dive,max=5000"`
}

// PersonalInput is the personal block of a SaveRequest.
type PersonalInput struct {
	FullName string `json:"fullName" validate:"notblank,max=255"`
	Title    string `json:"title" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=50"`
	Email    string `json:"email" validate:"max=255"`
	Location string `json:"location" validate:"max=255"`
}

// ExperienceInput is one experience entry of a SaveRequest.
type ExperienceInput struct {
	Company string `json:"company" validate:"max=255"`
	Role    string `json:"role" validate:"max=255"`
	Period  string `json:"period" validate:"max=255"`
	Details string `json:"details" validate:"max=10000"`
}

// EducationInput is one education entry of a SaveRequest.
type EducationInput struct {
	Institution   string `json:"institution" validate:"max=255"`
	Qualification string `json:"qualification" validate:"max=255"`
	Period        string `json:"period" validate:"max=255"`
}

// withoutBlankEntries drops the child entries FilterAggregate would drop, so
// limits apply only to what is persisted.
func (r SaveRequest) withoutBlankEntries() SaveRequest {
	out := r
	out.Skills = filterStrings(r.Skills)
	out.References = filterStrings(r.References)

	out.Experiences = make([]ExperienceInput, 0, len(r.Experiences))
	for _, e := range r.Experiences {
		if isBlank(e.Company) && isBlank(e.Role) {
			continue
		}
		out.Experiences = append(out.Experiences, e)
	}

	out.Education = make([]EducationInput, 0, len(r.Education))
	for _, e := range r.Education {
		if isBlank(e.Institution) && isBlank(e.Qualification) {
			continue
		}
		out.Education = append(out.Education, e)
	}
	return out
}

// ToAggregate converts the request into an aggregate without an id.
func (r SaveRequest) ToAggregate() CVAggregate {
	cv := CVAggregate{
		Personal: Personal{
			FullName: r.Personal.FullName,
			Title:    r.Personal.Title,
			Phone:    r.Personal.Phone,
			Email:    r.Personal.Email,
			Location: r.Personal.Location,
		},
		Profile:     r.Profile,
		Skills:      append([]string{}, r.Skills...),
		References:  append([]string{}, r.References...),
		Experiences: make([]Experience, 0, len(r.Experiences)),
		Education:   make([]Education, 0, len(r.Education)),
	}
	for _, e := range r.Experiences {
		cv.Experiences = append(cv.Experiences, Experience(e))
	}
	for _, e := range r.Education {
		cv.Education = append(cv.Education, Education(e))
	}
	return cv
}

// CVResponse is the outward-facing representation of a stored CV.
type CVResponse struct {
	ID          int64        `json:"id"`
	Personal    Personal     `json:"personal"`
	Profile     string       `json:"profile"`
	Skills      []string     `json:"skills"`
	Experiences []Experience `json:"experiences"`
	Education   []Education  `json:"education"`
	References  []string     `json:"references"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func toResponse(cv CVAggregate) CVResponse {
	return CVResponse(cv)
}
