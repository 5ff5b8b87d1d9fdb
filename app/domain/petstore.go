package domain

// PetstoreCategory is the upstream category object
type PetstoreCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PetstoreTag is the upstream tag object
type PetstoreTag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PetstorePet is a pet as returned by the upstream Petstore API
type PetstorePet struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Status    string            `json:"status,omitempty"`
	Category  *PetstoreCategory `json:"category,omitempty"`
	Tags      []PetstoreTag     `json:"tags,omitempty"`
	PhotoURLs []string          `json:"photoUrls,omitempty"`
}
