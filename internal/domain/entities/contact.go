package entities

// Phone is a phone number of a location, service or organization.
type Phone struct {
	ID             string  `json:"id" db:"id"`
	Number         string  `json:"number" db:"number"`
	Extension      *int    `json:"extension" db:"extension"`
	Type           *string `json:"type" db:"type"`
	Language       *string `json:"language" db:"language"`
	Description    *string `json:"description" db:"description"`
	LocationID     *string `json:"location_id,omitempty" db:"location_id"`
	ServiceID      *string `json:"service_id,omitempty" db:"service_id"`
	OrganizationID *string `json:"organization_id,omitempty" db:"organization_id"`
}

// PhysicalAddress is the street address of a location.
type PhysicalAddress struct {
	ID            string  `json:"id" db:"id"`
	LocationID    string  `json:"location_id" db:"location_id"`
	Address1      string  `json:"address_1" db:"address_1"`
	City          string  `json:"city" db:"city"`
	Region        *string `json:"region" db:"region"`
	StateProvince string  `json:"state_province" db:"state_province"`
	PostalCode    string  `json:"postal_code" db:"postal_code"`
	Country       string  `json:"country" db:"country"`
}

// AccessibilityForDisabilities describes the accessibility of a location.
type AccessibilityForDisabilities struct {
	ID            string  `json:"id" db:"id"`
	LocationID    string  `json:"location_id" db:"location_id"`
	Accessibility *string `json:"accessibility" db:"accessibility"`
	Details       *string `json:"details" db:"details"`
}

// Language is a language spoken at a location or offered by a service.
type Language struct {
	ID       string  `json:"id" db:"id"`
	Language *string `json:"language" db:"language"`
	Name     *string `json:"name" db:"name"`
}

// EventRelatedInfo is information tied to an event or occasion, such as
// COVID-19 changes, for a location or a service.
type EventRelatedInfo struct {
	ID          string  `json:"id" db:"id"`
	Event       string  `json:"event" db:"event"`
	Information string  `json:"information" db:"information"`
	LocationID  *string `json:"location_id,omitempty" db:"location_id"`
	ServiceID   *string `json:"service_id,omitempty" db:"service_id"`
}
