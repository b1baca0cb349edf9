package events

// VisitRecorded is emitted after the gateway logs a new visit. Deduped
// repeat visits within the logging window do not produce events.
type VisitRecorded struct {
	EventID     string `json:"eventId"`
	Key         string `json:"key"`
	IP          string `json:"ip"`
	Device      string `json:"device"`
	CountryCode string `json:"countryCode"`
	Blocked     bool   `json:"blocked"`
	Reason      string `json:"reason"`
	OccurredAt  string `json:"occurredAt"`
}
