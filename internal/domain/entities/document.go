package entities

// RequiredDocument is a document a client has to bring to use a service.
type RequiredDocument struct {
	ID        string `json:"id" db:"id"`
	ServiceID string `json:"service_id" db:"service_id"`
	Document  string `json:"document" db:"document"`
}

// DocumentsInfo holds the free-form document policy of a service.
type DocumentsInfo struct {
	ID                  string  `json:"id" db:"id"`
	ServiceID           string  `json:"service_id" db:"service_id"`
	RecertificationTime *string `json:"recertification_time" db:"recertification_time"`
	GracePeriod         *string `json:"grace_period" db:"grace_period"`
	AdditionalInfo      *string `json:"additional_info" db:"additional_info"`
}
