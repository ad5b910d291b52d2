package entities

import "time"

// Organization is the provider that owns locations and services.
type Organization struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	URL         *string   `json:"url" db:"url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Locations []*Location `json:"Locations,omitempty" db:"-"`
}

// OrganizationUpdate carries the mutable organization fields. Nil means unchanged.
type OrganizationUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// IsEmpty reports whether the update changes nothing.
func (u OrganizationUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.URL == nil
}
