package costing

import (
	"errors"

	"github.com/Simplici0/costeo/internal/pricing"
)

// Inputs are the container-scoped settings every product of a run shares.
// They are passed explicitly on each call; nothing is read from ambient state.
type Inputs struct {
	Rates        RateConfig        `json:"rates"`
	Expenses     ContainerExpenses `json:"expenses"`
	ExchangeRate float64           `json:"exchange_rate"`
	// CapacityCBM defaults to ContainerCapacityCBM when zero.
	CapacityCBM float64 `json:"capacity_cbm,omitempty"`
}

func (in Inputs) capacity() float64 {
	if in.CapacityCBM > 0 {
		return in.CapacityCBM
	}
	return ContainerCapacityCBM
}

func (in Inputs) validate() (Converter, error) {
	if err := in.Rates.Validate(); err != nil {
		return Converter{}, err
	}
	if err := in.Expenses.Validate(); err != nil {
		return Converter{}, err
	}
	if !finite(in.CapacityCBM) || in.CapacityCBM < 0 {
		return Converter{}, &ValidationError{Field: "capacity_cbm", Message: "la capacidad no puede ser negativa", Err: ErrInvalidGeometry}
	}
	return NewConverter(in.ExchangeRate)
}

// ProductResult is the outcome of the individual-product flow.
type ProductResult struct {
	Product      Product                 `json:"product"`
	Geometry     Geometry                `json:"geometry"`
	Capacity     CapacityPlan            `json:"capacity"`
	Cost         CostBreakdown           `json:"cost"`
	Listing      pricing.ListingEstimate `json:"listing"`
	Overcapacity *OvercapacityWarning    `json:"overcapacity,omitempty"`
}

// CalculateProduct costs a single product without shared container
// expenses. Exceeding one container's capacity yields a warning, not an error.
func CalculateProduct(p Product, in Inputs) (*ProductResult, error) {
	fx, err := in.validate()
	if err != nil {
		return nil, err
	}
	geom, err := p.resolve()
	if err != nil {
		return nil, err
	}
	plan := PlanCapacity(geom, p.Quantity, in.capacity())
	cost := Calculate(p, in.Rates, Allocation{}, fx)

	return &ProductResult{
		Product:      p,
		Geometry:     geom,
		Capacity:     plan,
		Cost:         cost,
		Listing:      pricing.EstimateListingPrice(cost.UnitCostLocal),
		Overcapacity: plan.Overcapacity(),
	}, nil
}

// Shares are a line's percentage of each batch-level total.
type Shares struct {
	ContainerCBMPercent float64 `json:"container_cbm_percent"`
	UtilizedCBMPercent  float64 `json:"utilized_cbm_percent"`
	WeightPercent       float64 `json:"weight_percent"`
	CostPercent         float64 `json:"cost_percent"`
	FixedPercent        float64 `json:"fixed_percent"`
	FreightPercent      float64 `json:"freight_percent"`
}

// Line is one costed product of a container batch.
type Line struct {
	Product    Product                 `json:"product"`
	Geometry   Geometry                `json:"geometry"`
	Capacity   CapacityPlan            `json:"capacity"`
	Allocation Allocation              `json:"allocation"`
	Cost       CostBreakdown           `json:"cost"`
	Shares     Shares                  `json:"shares"`
	Listing    pricing.ListingEstimate `json:"listing"`
}

// Rejection is a product whose pipeline was stopped by invalid input.
type Rejection struct {
	Index   int     `json:"index"`
	Product Product `json:"product"`
	Field   string  `json:"field,omitempty"`
	Reason  string  `json:"reason"`
}

// ContainerTotals aggregates a batch.
type ContainerTotals struct {
	Units               int     `json:"units"`
	CBM                 float64 `json:"cbm"`
	WeightKG            float64 `json:"weight_kg"`
	UtilizationPercent  float64 `json:"utilization_percent"`
	ContainersNeeded    float64 `json:"containers_needed"`
	FOBUSD              float64 `json:"fob_usd"`
	FreightUSD          float64 `json:"freight_usd"`
	ContainerFixedUSD   float64 `json:"container_fixed_usd"`
	ContainerFixedLocal float64 `json:"container_fixed_local"`
	FixedRateLocalCBM   float64 `json:"fixed_rate_local_per_cbm"`
	AllocatedFixedUSD   float64 `json:"allocated_fixed_usd"`
	UnallocatedFixedUSD float64 `json:"unallocated_fixed_usd"`
	RecoverableUSD      float64 `json:"recoverable_usd"`
	NonRecoverableUSD   float64 `json:"non_recoverable_usd"`
	NonRecoverableLocal float64 `json:"non_recoverable_local"`
	FullCostUSD         float64 `json:"full_cost_usd"`
	FullCostLocal       float64 `json:"full_cost_local"`
}

// ContainerResult is the outcome of the full-container flow.
type ContainerResult struct {
	CapacityCBM  float64              `json:"capacity_cbm"`
	ExchangeRate float64              `json:"exchange_rate"`
	Lines        []Line               `json:"lines"`
	Rejected     []Rejection          `json:"rejected,omitempty"`
	Totals       ContainerTotals      `json:"totals"`
	Verification Verification         `json:"verification"`
	Overcapacity *OvercapacityWarning `json:"overcapacity,omitempty"`
}

// CalculateContainer costs every product of a container batch. Products with
// invalid input are reported in Rejected and excluded from allocation; the
// remaining products share freight and fixed fees by volume. The returned
// error is reserved for invalid container-level inputs.
func CalculateContainer(products []Product, in Inputs) (*ContainerResult, error) {
	fx, err := in.validate()
	if err != nil {
		return nil, err
	}
	capacity := in.capacity()

	res := &ContainerResult{
		CapacityCBM:  capacity,
		ExchangeRate: fx.Rate(),
		Lines:        make([]Line, 0, len(products)),
	}

	for i, p := range products {
		geom, err := p.resolve()
		if err != nil {
			res.Rejected = append(res.Rejected, rejection(i, p, err))
			continue
		}
		res.Lines = append(res.Lines, Line{
			Product:  p,
			Geometry: geom,
			Capacity: PlanCapacity(geom, p.Quantity, capacity),
		})
	}

	cbmTotals := make([]float64, len(res.Lines))
	for i, l := range res.Lines {
		cbmTotals[i] = l.Capacity.CBMTotal
	}
	allocations := AllocateShared(cbmTotals, in.Expenses, fx, capacity)

	t := &res.Totals
	t.ContainerFixedUSD = in.Expenses.FixedTotalUSD()
	t.ContainerFixedLocal = fx.ToLocal(t.ContainerFixedUSD)
	t.FixedRateLocalCBM = FixedRateLocalPerCBM(in.Expenses, fx, capacity)

	for i := range res.Lines {
		l := &res.Lines[i]
		l.Allocation = allocations[i]
		l.Cost = Calculate(l.Product, in.Rates, l.Allocation, fx)
		l.Listing = pricing.EstimateListingPrice(l.Cost.UnitCostLocal)

		t.Units += l.Product.Quantity
		t.CBM += l.Capacity.CBMTotal
		t.WeightKG += l.Capacity.WeightTotalKG
		t.FOBUSD += l.Cost.FOBUSD
		t.FreightUSD += l.Allocation.FreightUSD
		t.AllocatedFixedUSD += l.Allocation.FixedUSD
		t.RecoverableUSD += l.Cost.RecoverableTaxesUSD()
		t.NonRecoverableUSD += l.Cost.NonRecoverableUSD
		t.FullCostUSD += l.Cost.FullCostUSD
	}
	t.UnallocatedFixedUSD = t.ContainerFixedUSD - t.AllocatedFixedUSD
	t.NonRecoverableLocal = fx.ToLocal(t.NonRecoverableUSD)
	t.FullCostLocal = fx.ToLocal(t.FullCostUSD)
	t.UtilizationPercent = t.CBM / capacity * 100
	t.ContainersNeeded = t.CBM / capacity

	for i := range res.Lines {
		l := &res.Lines[i]
		l.Shares = Shares{
			ContainerCBMPercent: share(l.Capacity.CBMTotal, capacity),
			UtilizedCBMPercent:  share(l.Capacity.CBMTotal, t.CBM),
			WeightPercent:       share(l.Capacity.WeightTotalKG, t.WeightKG),
			CostPercent:         share(l.Cost.NonRecoverableUSD, t.NonRecoverableUSD),
			FixedPercent:        share(l.Allocation.FixedUSD, t.AllocatedFixedUSD),
			FreightPercent:      share(l.Allocation.FreightUSD, t.FreightUSD),
		}
	}

	res.Verification = VerifyProportionality(res.Lines, capacity)
	if t.CBM > capacity {
		res.Overcapacity = &OvercapacityWarning{CBMTotal: t.CBM, CapacityCBM: capacity, ExcessCBM: t.CBM - capacity}
	}
	return res, nil
}

func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

func rejection(i int, p Product, err error) Rejection {
	r := Rejection{Index: i, Product: p, Reason: err.Error()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		r.Field = verr.Field
		r.Reason = verr.Message
	}
	return r
}
