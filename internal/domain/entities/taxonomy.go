package entities

// Taxonomy is a category tag. Root taxonomies have no parent.
type Taxonomy struct {
	ID         string  `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	ParentID   *string `json:"parent_id" db:"parent_id"`
	ParentName *string `json:"parent_name" db:"parent_name"`
}

// TaxonomyNode is a taxonomy together with its descendants, as returned by
// the hierarchy endpoint.
type TaxonomyNode struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ParentID *string         `json:"parent_id"`
	Children []*TaxonomyNode `json:"children"`
}

// TaxonomySpecificAttribute is a named attribute that only applies to services
// of one taxonomy (e.g. "wearerAge" for clothing).
type TaxonomySpecificAttribute struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	TaxonomyID string `json:"taxonomy_id" db:"taxonomy_id"`
}

// ServiceTaxonomySpecificAttribute holds a service's values for an attribute.
type ServiceTaxonomySpecificAttribute struct {
	ID          string   `json:"id" db:"id"`
	ServiceID   string   `json:"service_id" db:"service_id"`
	AttributeID string   `json:"attribute_id" db:"attribute_id"`
	Name        string   `json:"name" db:"-"`
	Values      []string `json:"values" db:"attribute_values"`
}
