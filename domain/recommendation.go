package domain

// Signal names used for cache keys, scorer registration and explanations.
const (
	SignalCollaborative = "collaborative"
	SignalContentBased  = "content_based"
	SignalContextual    = "contextual"
	SignalTrending      = "trending"
)

const (
	MinRecommendations = 1
	MaxRecommendations = 50
)

// RequestContext carries the optional contextual fields of a
// recommendation request. Empty fields simply skip their scoring rules.
type RequestContext struct {
	Device   string `json:"device,omitempty"`
	Location string `json:"location,omitempty"`
	PageType string `json:"page_type,omitempty"`
	Referrer string `json:"referrer,omitempty"`
	Category string `json:"category,omitempty"`
	Hour     *int   `json:"hour,omitempty"`
}

type RecommendationRequest struct {
	UserID          string         `json:"user_id"`
	SessionID       string         `json:"session_id,omitempty"`
	Context         RequestContext `json:"context"`
	N               int            `json:"n"`
	ExcludeProducts []string       `json:"exclude_products,omitempty"`
}

// SignalScores holds the raw per-signal scores for one candidate,
// each in [0,1].
type SignalScores struct {
	Collaborative float64 `json:"collaborative"`
	ContentBased  float64 `json:"content_based"`
	Contextual    float64 `json:"contextual"`
	Trending      float64 `json:"trending"`
}

// ScoredCandidate is transient: produced and consumed within one request.
type ScoredCandidate struct {
	Product    Product      `json:"product"`
	Signals    SignalScores `json:"signals"`
	Blended    float64      `json:"blended"`
	Confidence float64      `json:"confidence"`
	Reason     string       `json:"reason"`
}
