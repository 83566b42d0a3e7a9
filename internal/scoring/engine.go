package scoring

import (
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/util"
)

// Inputs carries the externally sourced sub-scores for one scoring run.
// nil means the provider had nothing for the symbol; invalid values are
// treated the same way.
type Inputs struct {
	News   *float64
	Social *float64
	Whale  *float64
}

// Result is a composite score with its full breakdown. The engine is
// stateless; identical (snapshot, inputs, context, at) tuples produce
// identical results.
type Result struct {
	Composite         float64
	Breakdown         models.ComponentScores
	Regime            models.Regime
	Quality           models.DataQuality
	SessionFactor     float64
	PersistenceFactor float64
}

// Engine computes composite scores. Construct once and share; Score is
// safe for concurrent use.
type Engine struct {
	weights map[models.Regime]Weights
}

// Option configures Engine.
type Option func(*Engine)

// WithWeights overrides the weight vector for a regime.
func WithWeights(regime models.Regime, w Weights) Option {
	return func(e *Engine) { e.weights[regime] = w }
}

// NewEngine creates a scoring engine with the default regime weights.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{weights: defaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score produces the composite score for a well-formed snapshot. It never
// fails: missing sub-scores and context degrade to neutral and lower the
// data-quality flag instead. `at` anchors the session factor; pass the
// compute time, not the fetch time, so a stale snapshot is still scored
// for the session it is acted on in.
func (e *Engine) Score(snap *models.AssetSnapshot, in Inputs, mctx *models.MarketContext, at time.Time) Result {
	missing := 0
	if mctx == nil {
		mctx = &models.MarketContext{}
		missing++
	}

	breakdown := models.ComponentScores{
		Price:       scorePriceMomentum(snap),
		Volume:      scoreVolume(snap),
		Market:      scoreMarketPosition(snap),
		Sentiment:   blendSentiment(in.News, in.Social),
		Whale:       subScoreOrNeutral(in.Whale),
		Volatility:  scoreVolatility(snap),
		Correlation: scoreCorrelation(snap, mctx),
		Macro:       scoreMacro(mctx),
	}

	if !validSubScore(in.News) {
		missing++
	}
	if !validSubScore(in.Social) {
		missing++
	}
	if !validSubScore(in.Whale) {
		missing++
	}
	if snap.MarketCap <= 0 {
		missing++
	}

	regime := DetectRegime(snap)
	session := sessionFactor(at)
	persistence := persistenceFactor(breakdown)

	composite := e.weights[regime].apply(breakdown) * session * persistence

	return Result{
		Composite:         util.ClampScore(composite),
		Breakdown:         breakdown,
		Regime:            regime,
		Quality:           quality(missing),
		SessionFactor:     session,
		PersistenceFactor: persistence,
	}
}

func quality(missing int) models.DataQuality {
	switch {
	case missing == 0:
		return models.QualityGood
	case missing <= 2:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}
