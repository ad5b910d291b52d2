package search

import "github.com/streetlives/streetlives-api/pkg/geo"

// QueryPlan is a compiled location search: row conditions, group conditions,
// optional distance ordering and a limit. A plan is a value; the modifiers
// below return copies.
type QueryPlan struct {
	Row   []Predicate
	Group []Predicate

	// Origin orders results by distance ascending when set. Ties are broken
	// by location ID.
	Origin *geo.Point
	Limit  int

	// Unsatisfiable is set when a filter can match nothing, such as a
	// taxonomy filter naming only unknown taxonomies. Such plans are never
	// sent to the store.
	Unsatisfiable bool
}

// Predicates returns row then group predicates.
func (p QueryPlan) Predicates() []Predicate {
	all := make([]Predicate, 0, len(p.Row)+len(p.Group))
	all = append(all, p.Row...)
	return append(all, p.Group...)
}

// HasGroupConditions reports whether the plan needs per-service aggregation.
func (p QueryPlan) HasGroupConditions() bool {
	return len(p.Group) > 0
}

// WithinRadius returns a copy bounded to radius meters around origin and
// ordered by distance from it.
func (p QueryPlan) WithinRadius(origin geo.Point, radius float64) QueryPlan {
	out := p.withoutDistanceBound()
	out.Row = append(out.Row, WithinRadius{Origin: origin, Radius: radius})
	out.Origin = &origin
	return out
}

// Relaxed returns a copy without any distance bound, still ordered by
// distance from the origin, limited to limit.
func (p QueryPlan) Relaxed(limit int) QueryPlan {
	out := p.withoutDistanceBound()
	out.Limit = limit
	return out
}

// WithLimit returns a copy with the given limit.
func (p QueryPlan) WithLimit(limit int) QueryPlan {
	out := p.clone()
	out.Limit = limit
	return out
}

// DistanceBound returns the radius predicate, if any.
func (p QueryPlan) DistanceBound() (WithinRadius, bool) {
	for _, pred := range p.Row {
		if wr, ok := pred.(WithinRadius); ok {
			return wr, true
		}
	}
	return WithinRadius{}, false
}

func (p QueryPlan) withoutDistanceBound() QueryPlan {
	out := p.clone()
	out.Row = out.Row[:0]
	for _, pred := range p.Row {
		if _, ok := pred.(WithinRadius); !ok {
			out.Row = append(out.Row, pred)
		}
	}
	return out
}

func (p QueryPlan) clone() QueryPlan {
	out := p
	out.Row = append([]Predicate(nil), p.Row...)
	out.Group = append([]Predicate(nil), p.Group...)
	return out
}
