package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ExperimentDraft     = "draft"
	ExperimentActive    = "active"
	ExperimentPaused    = "paused"
	ExperimentCompleted = "completed"
)

// ControlVariant is the designated baseline for significance comparisons
// when a variant with this name exists.
const ControlVariant = "control"

// WeightConfig holds the four signal weights of one variant. Weights need
// not sum to 1: blending normalizes by the sum.
type WeightConfig struct {
	CFWeight       float64 `json:"cf_weight" validate:"gte=0"`
	CBWeight       float64 `json:"cb_weight" validate:"gte=0"`
	ContextWeight  float64 `json:"context_weight" validate:"gte=0"`
	TrendingWeight float64 `json:"trending_weight" validate:"gte=0"`
}

func (w WeightConfig) Sum() float64 {
	return w.CFWeight + w.CBWeight + w.ContextWeight + w.TrendingWeight
}

type Variant struct {
	Name    string       `json:"name"`
	Weights WeightConfig `json:"weights"`
}

// Experiment configuration. Variant weights are immutable once the
// experiment is active; changing them requires a new experiment.
type Experiment struct {
	ExperimentID string             `json:"experiment_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Variants     map[string]Variant `json:"variants"`
	TrafficSplit map[string]float64 `json:"traffic_split"`
	State        string             `json:"state"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Assignment pins (experiment, user) to a variant for the lifetime of the
// experiment, surviving traffic-split changes.
type Assignment struct {
	ExperimentID string    `gorm:"column:experiment_id;primaryKey" json:"experiment_id"`
	UserID       string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	Variant      string    `gorm:"column:variant;not null" json:"variant"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Assignment) TableName() string {
	return "experiment_assignments"
}

// VariantCounters are monotonically incremented, never decremented.
type VariantCounters struct {
	ExperimentID string  `gorm:"column:experiment_id;primaryKey" json:"experiment_id"`
	Variant      string  `gorm:"column:variant;primaryKey" json:"variant"`
	Impressions  int64   `gorm:"column:impressions;default:0" json:"impressions"`
	Clicks       int64   `gorm:"column:clicks;default:0" json:"clicks"`
	Conversions  int64   `gorm:"column:conversions;default:0" json:"conversions"`
	Revenue      float64 `gorm:"column:revenue;type:numeric;default:0" json:"revenue"`
}

func (VariantCounters) TableName() string {
	return "experiment_counters"
}

// VariantResults are counters plus derived rates.
type VariantResults struct {
	VariantCounters
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
	AOV            float64 `json:"aov"`
}

type ExperimentResults struct {
	ExperimentID string                    `json:"experiment_id"`
	State        string                    `json:"state"`
	Variants     map[string]VariantResults `json:"variants"`
}

const (
	SignificanceOK           = "ok"
	SignificanceInsufficient = "insufficient_data"
)

// SignificanceResult compares one variant against the control. When Status
// is "insufficient_data" the numeric fields are meaningless and omitted.
type SignificanceResult struct {
	Variant        string  `json:"variant"`
	Status         string  `json:"status"`
	PValue         float64 `json:"p_value,omitempty"`
	ZScore         float64 `json:"z_score,omitempty"`
	Significant    bool    `json:"significant"`
	RateDifference float64 `json:"rate_difference,omitempty"`
	CILow          float64 `json:"ci_low,omitempty"`
	CIHigh         float64 `json:"ci_high,omitempty"`
	Lift           float64 `json:"lift,omitempty"`
}

// ExperimentRecord is the persisted shape of an Experiment: variant and
// split maps are stored as jsonb and decoded by the repository.
type ExperimentRecord struct {
	ExperimentID string         `gorm:"column:experiment_id;primaryKey"`
	Name         string         `gorm:"column:name;type:text"`
	Description  string         `gorm:"column:description;type:text"`
	VariantsRaw  datatypes.JSON `gorm:"column:variants;type:jsonb"`
	SplitRaw     datatypes.JSON `gorm:"column:traffic_split;type:jsonb"`
	State        string         `gorm:"column:state;not null"`
	StartedAt    *time.Time     `gorm:"column:started_at"`
	EndedAt      *time.Time     `gorm:"column:ended_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (ExperimentRecord) TableName() string {
	return "experiments"
}
