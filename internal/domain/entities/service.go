package entities

import (
	"encoding/json"
	"time"
)

// Service is something an organization offers at one or more locations.
type Service struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	Name           string          `json:"name" db:"name"`
	Description    *string         `json:"description" db:"description"`
	URL            *string         `json:"url" db:"url"`
	Fees           *string         `json:"fees,omitempty" db:"fees"`
	AdditionalInfo *string         `json:"additional_info,omitempty" db:"additional_info"`
	AgesServed     json.RawMessage `json:"ages_served,omitempty" db:"ages_served"`
	WhoDoesItServe json.RawMessage `json:"who_does_it_serve,omitempty" db:"who_does_it_serve"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	Taxonomies                 []*Taxonomy                         `json:"Taxonomies,omitempty" db:"-"`
	RequiredDocuments          []*RequiredDocument                 `json:"RequiredDocuments,omitempty" db:"-"`
	DocumentsInfo              *DocumentsInfo                      `json:"DocumentsInfo,omitempty" db:"-"`
	RegularSchedules           []*RegularSchedule                  `json:"RegularSchedules,omitempty" db:"-"`
	HolidaySchedules           []*HolidaySchedule                  `json:"HolidaySchedules,omitempty" db:"-"`
	Eligibilities              []*Eligibility                      `json:"Eligibilities,omitempty" db:"-"`
	ServiceAreas               []*ServiceArea                      `json:"ServiceAreas,omitempty" db:"-"`
	Languages                  []*Language                         `json:"Languages,omitempty" db:"-"`
	EventRelatedInfos          []*EventRelatedInfo                 `json:"EventRelatedInfos,omitempty" db:"-"`
	TaxonomySpecificAttributes []*ServiceTaxonomySpecificAttribute `json:"ServiceTaxonomySpecificAttributes,omitempty" db:"-"`
}

// NewService holds the fields needed to create a service at a location.
type NewService struct {
	Name           string
	Description    *string
	URL            *string
	AdditionalInfo *string
	TaxonomyID     string
	LocationID     string
}

// ServiceUpdate describes a partial service update. Nil fields and nil
// slices are left untouched; a non-nil empty slice clears the association.
type ServiceUpdate struct {
	Name           *string
	Description    *string
	URL            *string
	Fees           *string
	AdditionalInfo *string
	TaxonomyID     *string
	AgesServed     json.RawMessage
	WhoDoesItServe json.RawMessage

	Hours            []HoursInput
	IrregularHours   []IrregularHoursInput
	Documents        *DocumentsInput
	EventRelatedInfo *EventRelatedInfoInput
	Eligibility      map[string]json.RawMessage
	AreaServed       []string
	LanguageIDs      []string
}

// HoursInput is one regular opening interval keyed by weekday name.
type HoursInput struct {
	Weekday  string `json:"weekday"`
	OpensAt  string `json:"opensAt"`
	ClosesAt string `json:"closesAt"`
}

// IrregularHoursInput is one holiday or occasion schedule entry.
type IrregularHoursInput struct {
	Closed    bool    `json:"closed"`
	OpensAt   *string `json:"opensAt"`
	ClosesAt  *string `json:"closesAt"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Weekday   *string `json:"weekday"`
	Occasion  *string `json:"occasion"`
}

// DocumentsInput replaces the required proofs and upserts the documents info.
type DocumentsInput struct {
	Proofs              []string `json:"proofs"`
	RecertificationTime *string  `json:"recertificationTime"`
	GracePeriod         *string  `json:"gracePeriod"`
	AdditionalInfo      *string  `json:"additionalInfo"`
}
