package cvs

import "time"

// Personal holds the contact block at the top of a CV.
type Personal struct {
	FullName string `json:"fullName"`
	Title    string `json:"title"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Experience is one work history entry.
type Experience struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	Period  string `json:"period"`
	Details string `json:"details"`
}

// Education is one education entry.
type Education struct {
	Institution   string `json:"institution"`
	Qualification string `json:"qualification"`
	Period        string `json:"period"`
}

// CVAggregate is the unit of persistence: one cvs row plus its four ordered
// child collections. ID is zero until the store assigns one.
type CVAggregate struct {
	ID          int64        `json:"id,omitempty"`
	Personal    Personal     `json:"personal"`
	Profile     string       `json:"profile"`
	Skills      []string     `json:"skills"`
	Experiences []Experience `json:"experiences"`
	Education   []Education  `json:"education"`
	References  []string     `json:"references"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Summary is the lightweight listing row for a CV.
type Summary struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Title     string    `json:"title"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
