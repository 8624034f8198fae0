package seed

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/costeo/internal/settings"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Defaults populate the settings singletons when they are missing.
	Defaults settings.Settings
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return Stats{}, fmt.Errorf("seed defaults: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureRateConfig(ctx, tx, cfg.Defaults, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureContainerConfig(ctx, tx, cfg.Defaults, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureRateConfig(ctx context.Context, tx *sql.Tx, s settings.Settings, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rate_config WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check rate config existence: %w", err)
	}
	if exists {
		return nil
	}

	r := s.Rates
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rate_config (
			id,
			duty_percent,
			statistical_tax_percent,
			vat_percent,
			additional_vat_percent,
			income_tax_percent,
			gross_receipts_percent,
			insurance_percent,
			agent_percent,
			broker_percent
		)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.DutyPercent, r.StatisticalTaxPercent, r.VATPercent, r.AdditionalVATPercent,
		r.IncomeTaxPercent, r.GrossReceiptsPercent, r.InsurancePercent, r.AgentPercent, r.BrokerPercent); err != nil {
		return fmt.Errorf("insert rate config singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureContainerConfig(ctx context.Context, tx *sql.Tx, s settings.Settings, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM container_config WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check container config existence: %w", err)
	}
	if exists {
		return nil
	}

	e := s.Expenses
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO container_config (
			id,
			freight_per_cbm_usd,
			port_handling_usd,
			shipping_agency_usd,
			warehousing_usd,
			trucking_usd,
			exchange_rate
		)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`, e.FreightPerCBMUSD, e.PortHandlingUSD, e.ShippingAgencyUSD, e.WarehousingUSD, e.TruckingUSD, s.ExchangeRate); err != nil {
		return fmt.Errorf("insert container config singleton: %w", err)
	}
	stats.Inserts++
	return nil
}
