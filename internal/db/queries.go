package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/models"
)

// GetEndpointSettings returns the station's settings, falling back to the
// global row and then to the defaults. The result is always normalized.
func (db *DB) GetEndpointSettings(stationID string) (models.EndpointSettings, error) {
	for _, id := range []string{stationID, models.GlobalSettingsID} {
		if id == "" {
			continue
		}
		s, found, err := db.getEndpointSettingsRow(id)
		if err != nil {
			return models.EndpointSettings{}, err
		}
		if found {
			return s.Normalize(), nil
		}
	}
	return models.DefaultEndpointSettings(), nil
}

// HasEndpointSettings reports whether the station has its own override row.
func (db *DB) HasEndpointSettings(stationID string) (bool, error) {
	_, found, err := db.getEndpointSettingsRow(stationID)
	return found, err
}

func (db *DB) getEndpointSettingsRow(id string) (models.EndpointSettings, bool, error) {
	query := `
		SELECT subscription_path, usage_path, logs_path, logs_page_size
		FROM endpoint_settings
		WHERE station_id = ?
	`

	var s models.EndpointSettings
	err := db.QueryRowContext(context.Background(), query, id).Scan(
		&s.SubscriptionPath,
		&s.UsagePath,
		&s.LogsPath,
		&s.LogsPageSize,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EndpointSettings{}, false, nil
	}
	if err != nil {
		return models.EndpointSettings{}, false, fmt.Errorf("failed to get endpoint settings: %w", err)
	}
	return s, true, nil
}

// SaveEndpointSettings upserts the normalized settings for a station.
// Use models.GlobalSettingsID to change the shared defaults.
func (db *DB) SaveEndpointSettings(stationID string, s models.EndpointSettings) error {
	if stationID == "" {
		return errors.New("station id is required")
	}
	s = s.Normalize()

	query := `
		INSERT INTO endpoint_settings (
			station_id, subscription_path, usage_path, logs_path, logs_page_size, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			subscription_path = excluded.subscription_path,
			usage_path = excluded.usage_path,
			logs_path = excluded.logs_path,
			logs_page_size = excluded.logs_page_size,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(context.Background(), query,
		stationID,
		s.SubscriptionPath,
		s.UsagePath,
		s.LogsPath,
		s.LogsPageSize,
		time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("failed to save endpoint settings: %w", err)
	}
	return nil
}

// DeleteEndpointSettings removes the station's override row.
func (db *DB) DeleteEndpointSettings(stationID string) error {
	_, err := db.ExecContext(context.Background(),
		"DELETE FROM endpoint_settings WHERE station_id = ?", stationID)
	if err != nil {
		return fmt.Errorf("failed to delete endpoint settings: %w", err)
	}
	return nil
}

// ResetEndpointSettings restores the defaults for a station and returns the
// settings now in effect. For the global row this means the stock endpoints.
func (db *DB) ResetEndpointSettings(stationID string) (models.EndpointSettings, error) {
	if err := db.DeleteEndpointSettings(stationID); err != nil {
		return models.EndpointSettings{}, err
	}
	return db.GetEndpointSettings(stationID)
}

// ListConfiguredStations returns the IDs of stations with an override row,
// excluding the global row.
func (db *DB) ListConfiguredStations() ([]string, error) {
	rows, err := db.QueryContext(context.Background(),
		"SELECT station_id FROM endpoint_settings WHERE station_id != ? ORDER BY station_id",
		models.GlobalSettingsID)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoint settings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan station id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
