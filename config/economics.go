package config

import (
	"errors"
	"fmt"

	"github.com/kilianp07/solarswarm/core/metrics/community"
)

// EconomicsConfig holds the tariffs used for community KPIs.
type EconomicsConfig struct {
	GridPrice         float64 `json:"grid_price"`
	BaselineGridShare float64 `json:"baseline_grid_share"`
	CO2PerKWh         float64 `json:"co2_per_kwh"`
	TreeKgPerYear     float64 `json:"tree_kg_per_year"`
}

func (c *EconomicsConfig) SetDefaults() {
	d := community.DefaultParams()
	if c.GridPrice == 0 {
		c.GridPrice = d.GridPrice
	}
	if c.BaselineGridShare == 0 {
		c.BaselineGridShare = d.BaselineGridShare
	}
	if c.CO2PerKWh == 0 {
		c.CO2PerKWh = d.CO2PerKWh
	}
	if c.TreeKgPerYear == 0 {
		c.TreeKgPerYear = d.TreeKgPerYear
	}
}

func (c EconomicsConfig) Validate() error {
	var errs []error
	if c.GridPrice < 0 {
		errs = append(errs, fmt.Errorf("economics.grid_price must not be negative"))
	}
	if c.BaselineGridShare < 0 || c.BaselineGridShare > 1 {
		errs = append(errs, fmt.Errorf("economics.baseline_grid_share must be within [0,1], got %.3f", c.BaselineGridShare))
	}
	if c.CO2PerKWh < 0 || c.TreeKgPerYear < 0 {
		errs = append(errs, fmt.Errorf("economics emission figures must not be negative"))
	}
	return errors.Join(errs...)
}

// Params converts the section into KPI parameters.
func (c EconomicsConfig) Params() community.Params {
	return community.Params{
		GridPrice:         c.GridPrice,
		BaselineGridShare: c.BaselineGridShare,
		CO2PerKWh:         c.CO2PerKWh,
		TreeKgPerYear:     c.TreeKgPerYear,
	}
}
