package whalefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CoinPulse/internal/domain/models"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/pkg/logger"
)

// Config configures the whale transfer feed.
type Config struct {
	URL            string
	APIKey         string
	MinTransferUSD float64
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Stream implements a WhaleStream backed by a websocket transfer feed.
// Transfers below the USD floor are filtered before they reach the
// scheduler; everything above it promotes the asset to the critical tier.
type Stream struct {
	cfg Config
	log *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a whale feed stream.
func New(cfg Config, log *logger.Logger) domsvc.WhaleStream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Stream{cfg: cfg, log: log}
}

// Connect establishes the websocket connection and subscribes to transfers.
func (s *Stream) Connect(ctx context.Context) error {
	u := s.cfg.URL
	if s.cfg.APIKey != "" {
		u = fmt.Sprintf("%s?token=%s", u, s.cfg.APIKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("whale feed connect: %w", err)
	}

	sub := map[string]interface{}{
		"type":    "subscribe",
		"channel": "transfers",
		"min_usd": s.cfg.MinTransferUSD,
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("whale feed subscribe: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.log.Info("whale feed: connected", logger.Float64("min_usd", s.cfg.MinTransferUSD))
	return nil
}

type transferFrame struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	AmountUSD float64 `json:"amount_usd"`
	Direction string  `json:"direction"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}

// Read streams transfers and errors. The channels close when the read loop
// exits; a closed error channel with a pending error means the caller
// should Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.WhaleTransfer, <-chan error) {
	transfers := make(chan *models.WhaleTransfer, 256)
	errs := make(chan error, 1)

	// keepalive
	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(transfers)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("whale feed not connected")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("whale feed read: %w", err)
				return
			}

			var frame transferFrame
			if err := json.Unmarshal(b, &frame); err != nil {
				// ignore non-transfer frames
				continue
			}
			if frame.Type != "transfer" || frame.Symbol == "" {
				continue
			}
			if frame.AmountUSD < s.cfg.MinTransferUSD {
				continue
			}

			t := &models.WhaleTransfer{
				Symbol:    frame.Symbol,
				AmountUSD: frame.AmountUSD,
				Direction: frame.Direction,
				At:        time.Unix(frame.Timestamp, 0).UTC(),
			}
			select {
			case transfers <- t:
			default:
				// drop on backpressure; the periodic tiers will catch up
			}
		}
	}()

	return transfers, errs
}

// Reconnect closes the connection and dials again after the backoff delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()

	select {
	case <-time.After(s.cfg.ReconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.Connect(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Connected reports connection status.
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
