// Package settings holds the container-scoped configuration (rates, shared
// container expenses and exchange rate) and its flat key/value document form.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Simplici0/costeo/internal/costing"
)

// LegacyPesoRate is the exchange rate at which old configuration files
// recorded container fees in pesos.
const LegacyPesoRate = 1100.0

// Settings is everything a costing run needs besides the product roster.
type Settings struct {
	Rates        costing.RateConfig        `json:"rates"`
	Expenses     costing.ContainerExpenses `json:"expenses"`
	ExchangeRate float64                   `json:"exchange_rate"`
}

// Defaults returns the rates used when nothing has been configured yet.
func Defaults() Settings {
	return Settings{
		Rates: costing.RateConfig{
			DutyPercent:           18,
			StatisticalTaxPercent: 3,
			VATPercent:            21,
			AdditionalVATPercent:  20,
			IncomeTaxPercent:      6,
			GrossReceiptsPercent:  2,
			InsurancePercent:      0.5,
			AgentPercent:          4,
			BrokerPercent:         1,
		},
		Expenses: costing.ContainerExpenses{
			FreightPerCBMUSD: 93,
		},
		ExchangeRate: 1000,
	}
}

// Validate checks every value of the settings.
func (s Settings) Validate() error {
	if err := s.Rates.Validate(); err != nil {
		return err
	}
	if err := s.Expenses.Validate(); err != nil {
		return err
	}
	if _, err := costing.NewConverter(s.ExchangeRate); err != nil {
		return err
	}
	return nil
}

// Inputs converts the settings into costing inputs for a standard container.
func (s Settings) Inputs() costing.Inputs {
	return costing.Inputs{
		Rates:        s.Rates,
		Expenses:     s.Expenses,
		ExchangeRate: s.ExchangeRate,
		CapacityCBM:  costing.ContainerCapacityCBM,
	}
}

// Flat document keys.
const (
	KeyExchangeRate   = "precio_dolar"
	KeyDuty           = "ddi_pct"
	KeyStatisticalTax = "tasas_pct"
	KeyVAT            = "iva_pct"
	KeyAdditionalVAT  = "iva_adic_pct"
	KeyIncomeTax      = "ganancias_pct"
	KeyGrossReceipts  = "iibb_pct"
	KeyInsurance      = "seguro_pct"
	KeyAgent          = "agente_pct"
	KeyBroker         = "despachante_pct"
	KeyFreightPerCBM  = "flete_cbm"
	KeyPortHandling   = "exolgan_puerto_usd"
	KeyShippingAgency = "agencia_maritima_usd"
	KeyWarehousing    = "almacenaje_usd"
	KeyTrucking       = "acarreo_usd"
)

// legacyPesoKeys maps a USD fee key to the peso keys older files used.
var legacyPesoKeys = map[string][]string{
	KeyPortHandling:   {"exolgan_puerto", "exlogan_puerto"},
	KeyShippingAgency: {"agencia_maritima"},
	KeyWarehousing:    {"almacenaje"},
	KeyTrucking:       {"acarreo"},
}

func (s *Settings) fields() map[string]*float64 {
	return map[string]*float64{
		KeyExchangeRate:   &s.ExchangeRate,
		KeyDuty:           &s.Rates.DutyPercent,
		KeyStatisticalTax: &s.Rates.StatisticalTaxPercent,
		KeyVAT:            &s.Rates.VATPercent,
		KeyAdditionalVAT:  &s.Rates.AdditionalVATPercent,
		KeyIncomeTax:      &s.Rates.IncomeTaxPercent,
		KeyGrossReceipts:  &s.Rates.GrossReceiptsPercent,
		KeyInsurance:      &s.Rates.InsurancePercent,
		KeyAgent:          &s.Rates.AgentPercent,
		KeyBroker:         &s.Rates.BrokerPercent,
		KeyFreightPerCBM:  &s.Expenses.FreightPerCBMUSD,
		KeyPortHandling:   &s.Expenses.PortHandlingUSD,
		KeyShippingAgency: &s.Expenses.ShippingAgencyUSD,
		KeyWarehousing:    &s.Expenses.WarehousingUSD,
		KeyTrucking:       &s.Expenses.TruckingUSD,
	}
}

// ToFlat returns the settings as a flat key/value document.
func (s Settings) ToFlat() map[string]float64 {
	out := make(map[string]float64, 15)
	for k, v := range s.fields() {
		out[k] = *v
	}
	return out
}

// ApplyFlat overlays the keys present in doc on top of base. Fee amounts that
// only exist under a legacy peso key are converted at LegacyPesoRate. The
// result is validated.
func ApplyFlat(base Settings, doc map[string]float64) (Settings, error) {
	out := base
	fields := out.fields()
	for k, v := range doc {
		if ptr, ok := fields[k]; ok {
			*ptr = v
		}
	}

	for usdKey, pesoKeys := range legacyPesoKeys {
		if doc[usdKey] != 0 {
			continue
		}
		for _, pk := range pesoKeys {
			if pesos, ok := doc[pk]; ok && pesos > 0 {
				*fields[usdKey] = pesos / LegacyPesoRate
				break
			}
		}
	}

	if err := out.Validate(); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// ErrInvalidDocument reports a settings document that is not a JSON object or
// whose known keys do not hold numbers.
var ErrInvalidDocument = errors.New("invalid settings document")

// KeyAntidumping holds per-product antidumping amounts, in USD per unit,
// keyed by product name.
const KeyAntidumping = "antidumping"

// Document is a decoded settings file.
type Document struct {
	Settings    Settings
	Antidumping map[string]float64
}

// DecodeDocument reads a JSON settings file and applies it over base. Keys it
// does not know are ignored.
func DecodeDocument(r io.Reader, base Settings) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("decode settings document: %w: %w", ErrInvalidDocument, err)
	}

	known := base.fields()
	flat := make(map[string]float64, len(raw))
	for k, v := range raw {
		if _, ok := known[k]; !ok && !isLegacyKey(k) {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return Document{}, fmt.Errorf("decode settings key %s: %w: %w", k, ErrInvalidDocument, err)
		}
		flat[k] = f
	}

	var antidumping map[string]float64
	if v, ok := raw[KeyAntidumping]; ok {
		if err := json.Unmarshal(v, &antidumping); err != nil {
			return Document{}, fmt.Errorf("decode settings key %s: %w: %w", KeyAntidumping, ErrInvalidDocument, err)
		}
		for name, usd := range antidumping {
			if usd < 0 {
				return Document{}, fmt.Errorf("%w: antidumping negativo para %q", ErrInvalidDocument, name)
			}
		}
	}

	s, err := ApplyFlat(base, flat)
	if err != nil {
		return Document{}, err
	}
	return Document{Settings: s, Antidumping: antidumping}, nil
}

// DecodeFlat reads a JSON settings file and applies it over base.
func DecodeFlat(r io.Reader, base Settings) (Settings, error) {
	doc, err := DecodeDocument(r, base)
	if err != nil {
		return Settings{}, err
	}
	return doc.Settings, nil
}

func isLegacyKey(k string) bool {
	for _, keys := range legacyPesoKeys {
		for _, lk := range keys {
			if lk == k {
				return true
			}
		}
	}
	return false
}

// EncodeFlat writes the settings as an indented JSON flat document.
func EncodeFlat(w io.Writer, s Settings) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.ToFlat()); err != nil {
		return fmt.Errorf("encode settings document: %w", err)
	}
	return nil
}
