package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/settings"
)

// GetSettings reads the rate and container singletons.
func (s *Store) GetSettings(ctx context.Context) (settings.Settings, error) {
	var out settings.Settings
	r := &out.Rates
	err := s.db.QueryRowContext(ctx, `
		SELECT duty_percent, statistical_tax_percent, vat_percent, additional_vat_percent,
		       income_tax_percent, gross_receipts_percent, insurance_percent, agent_percent, broker_percent
		FROM rate_config
		WHERE id = 1
	`).Scan(&r.DutyPercent, &r.StatisticalTaxPercent, &r.VATPercent, &r.AdditionalVATPercent,
		&r.IncomeTaxPercent, &r.GrossReceiptsPercent, &r.InsurancePercent, &r.AgentPercent, &r.BrokerPercent)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("read rate config: %w", notFound(err))
	}

	e := &out.Expenses
	err = s.db.QueryRowContext(ctx, `
		SELECT freight_per_cbm_usd, port_handling_usd, shipping_agency_usd, warehousing_usd, trucking_usd, exchange_rate
		FROM container_config
		WHERE id = 1
	`).Scan(&e.FreightPerCBMUSD, &e.PortHandlingUSD, &e.ShippingAgencyUSD, &e.WarehousingUSD, &e.TruckingUSD, &out.ExchangeRate)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("read container config: %w", notFound(err))
	}
	return out, nil
}

// UpdateRates replaces the percentage rates.
func (s *Store) UpdateRates(ctx context.Context, r costing.RateConfig) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return s.updateRates(ctx, s.db, r)
}

// UpdateExpenses replaces freight and the fixed container fees.
func (s *Store) UpdateExpenses(ctx context.Context, e costing.ContainerExpenses) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.updateExpenses(ctx, s.db, e)
}

// SetExchangeRate stores the ARS per USD rate.
func (s *Store) SetExchangeRate(ctx context.Context, rate float64) error {
	if _, err := costing.NewConverter(rate); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE container_config SET exchange_rate = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1`, rate)
	if err != nil {
		return fmt.Errorf("update exchange rate: %w", err)
	}
	return requireOneRow(res, "container config")
}

// ReplaceSettings writes every setting in one transaction.
func (s *Store) ReplaceSettings(ctx context.Context, next settings.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	if err := s.updateRates(ctx, tx, next.Rates); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := s.updateExpenses(ctx, tx, next.Expenses); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE container_config SET exchange_rate = ? WHERE id = 1`, next.ExchangeRate); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update exchange rate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) updateRates(ctx context.Context, db execer, r costing.RateConfig) error {
	res, err := db.ExecContext(ctx, `
		UPDATE rate_config
		SET duty_percent = ?,
		    statistical_tax_percent = ?,
		    vat_percent = ?,
		    additional_vat_percent = ?,
		    income_tax_percent = ?,
		    gross_receipts_percent = ?,
		    insurance_percent = ?,
		    agent_percent = ?,
		    broker_percent = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, r.DutyPercent, r.StatisticalTaxPercent, r.VATPercent, r.AdditionalVATPercent,
		r.IncomeTaxPercent, r.GrossReceiptsPercent, r.InsurancePercent, r.AgentPercent, r.BrokerPercent)
	if err != nil {
		return fmt.Errorf("update rate config: %w", err)
	}
	return requireOneRow(res, "rate config")
}

func (s *Store) updateExpenses(ctx context.Context, db execer, e costing.ContainerExpenses) error {
	res, err := db.ExecContext(ctx, `
		UPDATE container_config
		SET freight_per_cbm_usd = ?,
		    port_handling_usd = ?,
		    shipping_agency_usd = ?,
		    warehousing_usd = ?,
		    trucking_usd = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, e.FreightPerCBMUSD, e.PortHandlingUSD, e.ShippingAgencyUSD, e.WarehousingUSD, e.TruckingUSD)
	if err != nil {
		return fmt.Errorf("update container config: %w", err)
	}
	return requireOneRow(res, "container config")
}

func requireOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
