package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CategoryItem struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"is_active"`
}

type CategoriesResponse struct {
	Items []CategoryItem `json:"items"`
}

type ContestantItem struct {
	ContestantID string `json:"contestant_id"`
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	PhotoRef     string `json:"photo_ref,omitempty"`
	VoteCount    int64  `json:"vote_count"`
}

// ContestantsResponse is served from a short-lived cache; vote counts may lag
// committed votes by up to CacheTTLSeconds.
type ContestantsResponse struct {
	CategoryID      string           `json:"category_id"`
	CacheTTLSeconds int              `json:"cache_ttl_seconds"`
	Items           []ContestantItem `json:"items"`
}
