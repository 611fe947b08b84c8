package domain

// Listing is one job posting as delivered by the feed snapshot. The engine
// never mutates a listing; derived fields (days left, urgency) are computed
// at render time and attached to the board view, not to the listing itself.
type Listing struct {
	ID                 string `json:"id"`
	Title              string `json:"title,omitempty"`
	Organization       string `json:"organization,omitempty"`
	QualificationLevel string `json:"qualificationLevel,omitempty"`
	Domicile           string `json:"domicile,omitempty"`
	Source             string `json:"source,omitempty"`
	Deadline           string `json:"deadline,omitempty"`
	ApplyLink          string `json:"applyLink,omitempty"`
	DetailLink         string `json:"detailLink,omitempty"`
	NumberOfPosts      string `json:"numberOfPosts,omitempty"`
	Flags              Flags  `json:"flags,omitempty"`
}

// Flags carries curation booleans set upstream. Read-only here.
type Flags struct {
	Trusted      bool `json:"trusted,omitempty"`
	Corroborated bool `json:"corroborated,omitempty"`
	Hidden       bool `json:"hidden,omitempty"`
}
