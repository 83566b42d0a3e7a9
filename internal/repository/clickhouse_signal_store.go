package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
)

// SignalsTable is the append-only signal history table. "Current" is the
// newest row per asset.
const SignalsTable = "signals"

// SignalsSchema is the idempotent DDL for the signals table.
var SignalsSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		asset_id        String,
		symbol          String,
		final_score     Float64,
		breakdown       String,
		regime          LowCardinality(String),
		action          LowCardinality(String),
		confidence      LowCardinality(String),
		timeframe       LowCardinality(String),
		priority        LowCardinality(String),
		risk_score      Float64,
		liquidity_grade LowCardinality(String),
		data_quality    LowCardinality(String),
		computed_at     DateTime64(3, 'UTC')
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(computed_at)
	ORDER BY (asset_id, computed_at)
	TTL toDateTime(computed_at) + INTERVAL 90 DAY`,
}

// ClickHouseSignalStore implements SignalStore on ClickHouse. Writes are
// appends; the current signal is the latest row for the asset.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalStore creates the store over an open connection pool.
func NewClickHouseSignalStore(db *sql.DB) repository.SignalStore {
	return &ClickHouseSignalStore{db: db, table: SignalsTable}
}

func (s *ClickHouseSignalStore) Upsert(ctx context.Context, sig *models.Signal) error {
	breakdown, err := json.Marshal(sig.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s
		(asset_id, symbol, final_score, breakdown, regime, action, confidence,
		 timeframe, priority, risk_score, liquidity_grade, data_quality, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	_, err = s.db.ExecContext(ctx, q,
		sig.AssetID,
		sig.Symbol,
		sig.FinalScore,
		string(breakdown),
		sig.Regime,
		string(sig.Recommendation.Action),
		string(sig.Recommendation.Confidence),
		string(sig.Timeframe),
		sig.Priority,
		sig.RiskScore,
		string(sig.LiquidityGrade),
		string(sig.DataQuality),
		sig.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signal %s: %w", sig.AssetID, err)
	}
	return nil
}

func (s *ClickHouseSignalStore) GetCurrent(ctx context.Context, assetID string) (*models.Signal, error) {
	q := fmt.Sprintf(`SELECT asset_id, symbol, final_score, breakdown, regime,
		action, confidence, timeframe, priority, risk_score, liquidity_grade,
		data_quality, computed_at
		FROM %s WHERE asset_id = ?
		ORDER BY computed_at DESC LIMIT 1`, s.table)

	row := s.db.QueryRowContext(ctx, q, assetID)
	sig, err := scanSignal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current %s: %w", assetID, err)
	}
	return sig, nil
}

func (s *ClickHouseSignalStore) History(ctx context.Context, assetID string, since time.Time, limit int) ([]*models.Signal, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT asset_id, symbol, final_score, breakdown, regime,
		action, confidence, timeframe, priority, risk_score, liquidity_grade,
		data_quality, computed_at
		FROM %s WHERE asset_id = ? AND computed_at >= ?
		ORDER BY computed_at DESC LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, assetID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", assetID, err)
	}
	defer rows.Close()

	var out []*models.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", assetID, err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", assetID, err)
	}
	return out, nil
}

func (s *ClickHouseSignalStore) Close() error {
	// The connection pool is shared and closed by its owner.
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(r rowScanner) (*models.Signal, error) {
	var (
		sig        models.Signal
		breakdown  string
		action     string
		confidence string
		timeframe  string
		grade      string
		quality    string
	)
	err := r.Scan(
		&sig.AssetID,
		&sig.Symbol,
		&sig.FinalScore,
		&breakdown,
		&sig.Regime,
		&action,
		&confidence,
		&timeframe,
		&sig.Priority,
		&sig.RiskScore,
		&grade,
		&quality,
		&sig.ComputedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(breakdown), &sig.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	sig.Recommendation = models.Recommendation{
		Action:     models.Action(action),
		Confidence: models.Confidence(confidence),
	}
	sig.Timeframe = models.Timeframe(timeframe)
	sig.LiquidityGrade = models.LiquidityGrade(grade)
	sig.DataQuality = models.DataQuality(quality)
	return &sig, nil
}
