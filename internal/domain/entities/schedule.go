package entities

// RegularSchedule is a weekly opening interval of a location or a service.
// Weekday runs from 1 (Monday) to 7 (Sunday); times are HH:MM:SS in the
// reference time zone.
type RegularSchedule struct {
	ID         string  `json:"id" db:"id"`
	Weekday    int     `json:"weekday" db:"weekday"`
	OpensAt    *string `json:"opens_at" db:"opens_at"`
	ClosesAt   *string `json:"closes_at" db:"closes_at"`
	LocationID *string `json:"location_id,omitempty" db:"location_id"`
	ServiceID  *string `json:"service_id,omitempty" db:"service_id"`
}

// HolidaySchedule is an exception to the regular schedule, either for a date
// range or for a recurring named occasion.
type HolidaySchedule struct {
	ID         string  `json:"id" db:"id"`
	Closed     bool    `json:"closed" db:"closed"`
	OpensAt    *string `json:"opens_at" db:"opens_at"`
	ClosesAt   *string `json:"closes_at" db:"closes_at"`
	StartDate  *string `json:"start_date" db:"start_date"`
	EndDate    *string `json:"end_date" db:"end_date"`
	Weekday    *int    `json:"weekday" db:"weekday"`
	Occasion   *string `json:"occasion" db:"occasion"`
	LocationID *string `json:"location_id,omitempty" db:"location_id"`
	ServiceID  *string `json:"service_id,omitempty" db:"service_id"`
}
