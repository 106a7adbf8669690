package model

// Professional is not owned by any single clinic. The same person may hold
// bookings at several clinics, which is where cross-location conflicts
// come from.
type Professional struct {
	Base
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

type CreateProfessionalRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type UpdateProfessionalRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=200"`
	Active *bool   `json:"active"`
}
