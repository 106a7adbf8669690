package model

type Clinic struct {
	Base
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

type CreateClinicRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type UpdateClinicRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=200"`
	Active *bool   `json:"active"`
}
