package costing

import (
	"fmt"
	"math"
)

// ShareTolerance is the allowed deviation, in percentage points, for the
// proportionality checks.
const ShareTolerance = 0.01

// Names of the proportionality checks.
const (
	CheckUtilizedCBM       = "cbm_utilizado"
	CheckWeight            = "peso"
	CheckFixedExpenses     = "gastos_fijos"
	CheckFreight           = "flete"
	CheckFixedProportional = "gastos_fijos_proporcionales"
	CheckContainerUsage    = "utilizacion_contenedor"
)

// Check is one named verdict. A skipped check had nothing to distribute and
// counts as passed.
type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Verification is the diagnostic outcome of VerifyProportionality. It never
// blocks output.
type Verification struct {
	Checks []Check `json:"checks"`
}

// OK reports whether every check passed.
func (v Verification) OK() bool {
	for _, c := range v.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (v Verification) Failed() []Check {
	var failed []Check
	for _, c := range v.Checks {
		if !c.OK {
			failed = append(failed, c)
		}
	}
	return failed
}

// Lookup returns the check with the given name.
func (v Verification) Lookup(name string) (Check, bool) {
	for _, c := range v.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// VerifyProportionality checks that the allocated shares of a batch add up
// and that fixed expenses follow the utilized volume.
func VerifyProportionality(lines []Line, capacityCBM float64) Verification {
	var totalCBM, totalWeight, totalFixed, totalFreight float64
	for _, l := range lines {
		totalCBM += l.Capacity.CBMTotal
		totalWeight += l.Capacity.WeightTotalKG
		totalFixed += l.Allocation.FixedUSD
		totalFreight += l.Allocation.FreightUSD
	}

	sumCheck := func(name string, total float64, share func(Line) float64) Check {
		if total <= 0 {
			return Check{Name: name, OK: true, Skipped: true, Detail: "sin valores para distribuir"}
		}
		var sum float64
		for _, l := range lines {
			sum += share(l)
		}
		return Check{
			Name:   name,
			OK:     math.Abs(sum-100) < ShareTolerance,
			Detail: fmt.Sprintf("suma %.4f%%", sum),
		}
	}

	checks := []Check{
		sumCheck(CheckUtilizedCBM, totalCBM, func(l Line) float64 { return l.Shares.UtilizedCBMPercent }),
		sumCheck(CheckWeight, totalWeight, func(l Line) float64 { return l.Shares.WeightPercent }),
		sumCheck(CheckFixedExpenses, totalFixed, func(l Line) float64 { return l.Shares.FixedPercent }),
		sumCheck(CheckFreight, totalFreight, func(l Line) float64 { return l.Shares.FreightPercent }),
	}

	proportional := Check{Name: CheckFixedProportional, OK: true}
	if totalFixed <= 0 || totalCBM <= 0 {
		proportional.Skipped = true
		proportional.Detail = "sin gastos fijos"
	} else {
		for _, l := range lines {
			if diff := math.Abs(l.Shares.UtilizedCBMPercent - l.Shares.FixedPercent); diff > ShareTolerance {
				proportional.OK = false
				proportional.Detail = fmt.Sprintf("%s: CBM %.4f%% vs gastos fijos %.4f%%",
					l.Product.Name, l.Shares.UtilizedCBMPercent, l.Shares.FixedPercent)
				break
			}
		}
	}
	checks = append(checks, proportional)

	usage := totalCBM / capacityCBM * 100
	checks = append(checks, Check{
		Name:   CheckContainerUsage,
		OK:     totalCBM <= capacityCBM,
		Detail: fmt.Sprintf("%.2f%% de %.1f m³", usage, capacityCBM),
	})

	return Verification{Checks: checks}
}
