package search

import "github.com/streetlives/streetlives-api/pkg/geo"

// Level says where a predicate is evaluated.
type Level int

const (
	// LevelRow predicates restrict individual joined rows before grouping.
	LevelRow Level = iota
	// LevelGroup predicates are evaluated over all rows of one service at one
	// location after grouping.
	LevelGroup
)

func (l Level) String() string {
	if l == LevelGroup {
		return "group"
	}
	return "row"
}

// Predicate is one condition of a location search. The concrete types below
// form a closed set; store adapters switch on them.
type Predicate interface {
	Level() Level
	predicate()
}

// TextMatch matches Term case-insensitively as a substring of the
// organization name or description, a service name or description, or a
// service taxonomy name.
type TextMatch struct {
	Term string
}

// OrganizationNameMatch matches Term as a substring of the organization name.
type OrganizationNameMatch struct {
	Term string
}

// TaxonomyIn requires a service tagged with one of the taxonomy IDs. IDs is
// already closed under descendants.
type TaxonomyIn struct {
	IDs []string
}

// OpenAt requires a service schedule covering TimeOfDay on Weekday. Without an
// Occasion the regular schedule is used; with one, the holiday schedule for
// that occasion, ignoring entries marked closed. OpensAt is inclusive,
// ClosesAt exclusive.
type OpenAt struct {
	Weekday   int
	TimeOfDay string
	Occasion  string
}

// HasOccasion requires a service with any holiday schedule for the occasion.
type HasOccasion struct {
	Occasion string
}

// ServesZipcode requires a service with no service area, or one whose postal
// codes include Zipcode.
type ServesZipcode struct {
	Zipcode string
}

// AddressIn requires the location's own address postal code to be in Zipcodes.
type AddressIn struct {
	Zipcodes []string
}

// WithinRadius bounds the great-circle distance from Origin.
type WithinRadius struct {
	Origin geo.Point
	Radius float64
}

// EligibilityMatch requires the service to either have no eligibility for
// Parameter or list Value among its eligible values.
type EligibilityMatch struct {
	Parameter string
	Value     interface{}
}

// DocumentRequirement requires the service's required documents to contain
// (Required) or not contain (!Required) Document, ignoring case.
type DocumentRequirement struct {
	Document string
	Required bool
}

// AttributeMatch requires the service's values for the taxonomy specific
// attribute Name to include Value.
type AttributeMatch struct {
	Name  string
	Value string
}

func (TextMatch) Level() Level             { return LevelRow }
func (OrganizationNameMatch) Level() Level { return LevelRow }
func (TaxonomyIn) Level() Level            { return LevelRow }
func (OpenAt) Level() Level                { return LevelRow }
func (HasOccasion) Level() Level           { return LevelRow }
func (ServesZipcode) Level() Level         { return LevelRow }
func (AddressIn) Level() Level             { return LevelRow }
func (WithinRadius) Level() Level          { return LevelRow }
func (EligibilityMatch) Level() Level      { return LevelGroup }
func (DocumentRequirement) Level() Level   { return LevelGroup }
func (AttributeMatch) Level() Level        { return LevelGroup }

func (TextMatch) predicate()             {}
func (OrganizationNameMatch) predicate() {}
func (TaxonomyIn) predicate()            {}
func (OpenAt) predicate()                {}
func (HasOccasion) predicate()           {}
func (ServesZipcode) predicate()         {}
func (AddressIn) predicate()             {}
func (WithinRadius) predicate()          {}
func (EligibilityMatch) predicate()      {}
func (DocumentRequirement) predicate()   {}
func (AttributeMatch) predicate()        {}
