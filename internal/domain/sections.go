package domain

// Sections is the feed's optional pre-classification of listing ids.
// It is the weakest source of state: an action record for the same id
// always overrides it.
type Sections struct {
	Applied []string `json:"applied,omitempty"`
	Other   []string `json:"other,omitempty"`
}
