package models

import "time"

// Regime is the coarse market-behavior classification that selects the
// scoring weight vector. The set is closed; adding a regime requires a
// matching weight vector in the scoring engine.
type Regime int

const (
	RegimeNormal Regime = iota
	RegimeVolatile
	RegimeLowLiquidity
	RegimeStable
)

func (r Regime) String() string {
	switch r {
	case RegimeVolatile:
		return "volatile"
	case RegimeLowLiquidity:
		return "low_liquidity"
	case RegimeStable:
		return "stable"
	default:
		return "normal"
	}
}

// ComponentScores is the per-component breakdown of a composite score.
// Every field is clamped to [0,100] before aggregation.
type ComponentScores struct {
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	Market      float64 `json:"market"`
	Sentiment   float64 `json:"sentiment"`
	Whale       float64 `json:"whale"`
	Volatility  float64 `json:"volatility"`
	Correlation float64 `json:"correlation"`
	Macro       float64 `json:"macro"`
}

// Timeframe is the recommended holding period for a signal.
type Timeframe string

const (
	TimeframeScalping Timeframe = "SCALPING"
	TimeframeDayTrade Timeframe = "DAY_TRADING"
	TimeframeSwing    Timeframe = "SWING_TRADING"
	TimeframeLongTerm Timeframe = "LONG_TERM"
	TimeframeReject   Timeframe = "REJECT"
)

// Action is the directional recommendation derived from the raw score.
// It is deliberately orthogonal to Timeframe.
type Action string

const (
	ActionStrongBuy  Action = "STRONG_BUY"
	ActionBuy        Action = "BUY"
	ActionWeakBuy    Action = "WEAK_BUY"
	ActionHold       Action = "HOLD"
	ActionWeakSell   Action = "WEAK_SELL"
	ActionSell       Action = "SELL"
	ActionStrongSell Action = "STRONG_SELL"
)

// Confidence qualifies how far into its action bucket a score sits.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Recommendation pairs the action with its confidence.
type Recommendation struct {
	Action     Action     `json:"action"`
	Confidence Confidence `json:"confidence"`
}

// LiquidityGrade is the letter grade summarizing ease of entering and
// exiting a position. Seven tiers; GradeD is the floor.
type LiquidityGrade string

const (
	GradeAPlus LiquidityGrade = "A+"
	GradeA     LiquidityGrade = "A"
	GradeBPlus LiquidityGrade = "B+"
	GradeB     LiquidityGrade = "B"
	GradeCPlus LiquidityGrade = "C+"
	GradeC     LiquidityGrade = "C"
	GradeD     LiquidityGrade = "D"
)

var gradeOrder = map[LiquidityGrade]int{
	GradeAPlus: 7,
	GradeA:     6,
	GradeBPlus: 5,
	GradeB:     4,
	GradeCPlus: 3,
	GradeC:     2,
	GradeD:     1,
}

// AtLeast reports whether g is the same grade as min or better.
// Unknown grades compare as worst.
func (g LiquidityGrade) AtLeast(min LiquidityGrade) bool {
	return gradeOrder[g] >= gradeOrder[min]
}

// DataQuality flags how many scoring inputs had to be substituted with
// neutral defaults.
type DataQuality string

const (
	QualityGood DataQuality = "good"
	QualityFair DataQuality = "fair"
	QualityPoor DataQuality = "poor"
)

// Signal is the scored and classified output for one asset. One "current"
// signal exists per asset; history is the store's concern, the engine is
// stateless per invocation.
type Signal struct {
	AssetID        string          `json:"asset_id"`
	Symbol         string          `json:"symbol"`
	FinalScore     float64         `json:"final_score"`
	Breakdown      ComponentScores `json:"breakdown"`
	Regime         string          `json:"regime"`
	Recommendation Recommendation  `json:"recommendation"`
	Timeframe      Timeframe       `json:"timeframe"`
	Priority       string          `json:"priority"`
	RiskScore      float64         `json:"risk_score"`
	LiquidityGrade LiquidityGrade  `json:"liquidity_grade"`
	DataQuality    DataQuality     `json:"data_quality"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// Strong reports whether the signal crosses the alerting band
// (|score-50| >= 30, i.e. >=80 or <=20).
func (s *Signal) Strong() bool {
	d := s.FinalScore - 50
	if d < 0 {
		d = -d
	}
	return d >= 30
}

// AlertEvent is emitted to the alert sink for strong signals.
type AlertEvent struct {
	AssetID   string    `json:"asset_id"`
	Symbol    string    `json:"symbol"`
	Score     float64   `json:"score"`
	Action    Action    `json:"action"`
	Timeframe Timeframe `json:"timeframe"`
	Reason    string    `json:"reason"` // "strong_buy" or "strong_sell"
	At        time.Time `json:"at"`
}
