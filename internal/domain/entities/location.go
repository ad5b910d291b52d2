package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streetlives/streetlives-api/pkg/geo"
)

// Location is a physical site of an organization.
type Location struct {
	ID               string    `json:"id" db:"id"`
	OrganizationID   string    `json:"organization_id" db:"organization_id"`
	Name             *string   `json:"name" db:"name"`
	Description      *string   `json:"description" db:"description"`
	AdditionalInfo   *string   `json:"additional_info,omitempty" db:"additional_info"`
	Position         *Position `json:"position" db:"-"`
	HiddenFromSearch bool      `json:"-" db:"hidden_from_search"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	// Computed for search results.
	Closed   bool     `json:"closed"`
	Distance *float64 `json:"distance,omitempty"`

	Organization                 *Organization                   `json:"Organization,omitempty" db:"-"`
	Services                     []*Service                      `json:"Services,omitempty" db:"-"`
	Phones                       []*Phone                        `json:"Phones,omitempty" db:"-"`
	PhysicalAddresses            []*PhysicalAddress              `json:"PhysicalAddresses,omitempty" db:"-"`
	RegularSchedules             []*RegularSchedule              `json:"RegularSchedules,omitempty" db:"-"`
	HolidaySchedules             []*HolidaySchedule              `json:"HolidaySchedules,omitempty" db:"-"`
	EventRelatedInfos            []*EventRelatedInfo             `json:"EventRelatedInfos,omitempty" db:"-"`
	Languages                    []*Language                     `json:"Languages,omitempty" db:"-"`
	Comments                     []*Comment                      `json:"Comments,omitempty" db:"-"`
	AccessibilityForDisabilities []*AccessibilityForDisabilities `json:"AccessibilityForDisabilities,omitempty" db:"-"`
}

// Point returns the location position as a geo point.
func (l *Location) Point() (geo.Point, bool) {
	if l.Position == nil {
		return geo.Point{}, false
	}
	return geo.NewPoint(l.Position.Longitude, l.Position.Latitude), true
}

// Position is a stored longitude/latitude pair, rendered as a GeoJSON point.
type Position struct {
	Longitude float64
	Latitude  float64
}

type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// MarshalJSON encodes the position as {"type":"Point","coordinates":[lon,lat]}.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{Type: "Point", Coordinates: []float64{p.Longitude, p.Latitude}})
}

// UnmarshalJSON accepts the GeoJSON form produced by MarshalJSON.
func (p *Position) UnmarshalJSON(data []byte) error {
	var g geoJSONPoint
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	if len(g.Coordinates) != 2 {
		return fmt.Errorf("point needs exactly two coordinates, got %d", len(g.Coordinates))
	}
	p.Longitude, p.Latitude = g.Coordinates[0], g.Coordinates[1]
	return nil
}

// LocationUpdate carries the mutable location fields. Nil means unchanged.
type LocationUpdate struct {
	Name             *string
	Description      *string
	AdditionalInfo   *string
	Position         *Position
	OrganizationID   *string
	Address          *AddressUpdate
	EventRelatedInfo *EventRelatedInfoInput
}

// AddressUpdate carries the mutable address fields.
type AddressUpdate struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	Region     *string `json:"region"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}

// EventRelatedInfoInput upserts the information attached to a named event.
type EventRelatedInfoInput struct {
	Event       string `json:"event"`
	Information string `json:"information"`
}

// NewLocation holds the fields needed to create a location with its address.
type NewLocation struct {
	OrganizationID string
	Name           *string
	Description    *string
	AdditionalInfo *string
	Position       Position
	Address        PhysicalAddress
}
