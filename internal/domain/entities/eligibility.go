package entities

import "encoding/json"

// EligibilityParameter is a named axis restricting who may use a service.
type EligibilityParameter struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Eligibility restricts a service on one parameter to a list of values.
// A service without an Eligibility for a parameter is unrestricted on it.
type Eligibility struct {
	ID             string          `json:"id" db:"id"`
	ServiceID      string          `json:"service_id" db:"service_id"`
	ParameterID    string          `json:"parameter_id" db:"parameter_id"`
	EligibleValues json.RawMessage `json:"eligible_values" db:"eligible_values"`
	Description    *string         `json:"description" db:"description"`

	EligibilityParameter *EligibilityParameter `json:"EligibilityParameter,omitempty" db:"-"`
}

// ServiceArea is the set of zipcodes a service is restricted to.
type ServiceArea struct {
	ID          string   `json:"id" db:"id"`
	ServiceID   string   `json:"service_id" db:"service_id"`
	PostalCodes []string `json:"postal_codes" db:"postal_codes"`
	Description *string  `json:"description" db:"description"`
}
