package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
)

// Snapshot freezes a container calculation together with the settings it
// used. Reading it back never recalculates.
type Snapshot struct {
	ID           string                   `json:"id"`
	ContainerID  string                   `json:"container_id"`
	CreatedAt    time.Time                `json:"created_at"`
	ExchangeRate float64                  `json:"exchange_rate"`
	FullCostUSD  float64                  `json:"full_cost_usd"`
	Settings     *settings.Settings       `json:"settings,omitempty"`
	Result       *costing.ContainerResult `json:"result,omitempty"`
}

// SaveSnapshot stores the settings and result of a container calculation.
func (s *Store) SaveSnapshot(ctx context.Context, containerID string, cfg settings.Settings, res *costing.ContainerResult) (Snapshot, error) {
	if res == nil {
		return Snapshot{}, fmt.Errorf("snapshot result: %w", ErrInvalidInput)
	}
	if _, err := s.GetContainer(ctx, containerID); err != nil {
		return Snapshot{}, err
	}

	settingsJSON, err := json.Marshal(cfg)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot settings: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot result: %w", err)
	}

	snap := Snapshot{
		ID:           s.newID(),
		ContainerID:  containerID,
		ExchangeRate: res.ExchangeRate,
		FullCostUSD:  res.Totals.FullCostUSD,
		Settings:     &cfg,
		Result:       res,
	}
	created := s.timestamp()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO calculation_snapshots (id, container_id, created_at, exchange_rate, full_cost_usd, settings_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, containerID, created, snap.ExchangeRate, snap.FullCostUSD, string(settingsJSON), string(resultJSON)); err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	snap.CreatedAt = parseTime(created)
	return snap, nil
}

// GetSnapshot loads a snapshot with its stored settings and result.
func (s *Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	if !validID(id) {
		return Snapshot{}, ErrNotFound
	}

	var (
		snap                     Snapshot
		created                  string
		settingsJSON, resultJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, container_id, created_at, exchange_rate, full_cost_usd, settings_json, result_json
		FROM calculation_snapshots
		WHERE id = ?
	`, id).Scan(&snap.ID, &snap.ContainerID, &created, &snap.ExchangeRate, &snap.FullCostUSD, &settingsJSON, &resultJSON)
	if err != nil {
		return Snapshot{}, notFound(err)
	}
	snap.CreatedAt = parseTime(created)

	var cfg settings.Settings
	if err := json.Unmarshal([]byte(settingsJSON), &cfg); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot settings: %w", err)
	}
	var res costing.ContainerResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot result: %w", err)
	}
	snap.Settings = &cfg
	snap.Result = &res
	return snap, nil
}

// ListSnapshots returns a container's snapshots, newest first, without their
// payloads.
func (s *Store) ListSnapshots(ctx context.Context, containerID string) ([]Snapshot, error) {
	if _, err := s.GetContainer(ctx, containerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, container_id, created_at, exchange_rate, full_cost_usd
		FROM calculation_snapshots
		WHERE container_id = ?
		ORDER BY created_at DESC
	`, containerID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := make([]Snapshot, 0)
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.ContainerID, &created, &snap.ExchangeRate, &snap.FullCostUSD); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt = parseTime(created)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}
