// Package cost holds the tunable prices of graph edit operations.
//
// Callers describe costs with a [Partial], where any field may be left unset,
// and turn it into a fully populated [Config] with [Resolve] before a search
// starts. A Config is read-only after construction and is shared by every
// search node of a transformer run, so the hot path never re-applies defaults.
//
// # Cost semantics
//
//   - change_pin_color: ColorChangeCostMap["from->to"] if present, otherwise
//     BaseOperationCost
//   - change_pin_network, add/remove box, add/remove pin: BaseOperationCost
//   - move_pin: CostPerUnitDistanceMovingPin times the Euclidean distance
//     between the old and new offset
//
// All costs are non-negative; [Config.Validate] rejects anything else.
package cost

import (
	"maps"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// Default values applied by [Resolve] for unset fields.
const (
	DefaultBaseOperationCost            = 1.0
	DefaultCostPerUnitDistanceMovingPin = 0.0
)

// Config is a fully resolved cost configuration.
//
// Treat a Config as immutable: [Resolve] hands out a private copy of the color
// map and nothing in this module writes to it afterwards.
type Config struct {
	BaseOperationCost            float64            `json:"baseOperationCost" toml:"base_operation_cost" yaml:"baseOperationCost" validate:"gte=0"`
	ColorChangeCostMap           map[string]float64 `json:"colorChangeCostMap,omitempty" toml:"color_change_cost_map" yaml:"colorChangeCostMap" validate:"dive,gte=0"`
	CostPerUnitDistanceMovingPin float64            `json:"costPerUnitDistanceMovingPin" toml:"cost_per_unit_distance_moving_pin" yaml:"costPerUnitDistanceMovingPin" validate:"gte=0"`
}

// Partial is a cost configuration where every field is optional.
// A nil pointer or nil map means "use the default".
type Partial struct {
	BaseOperationCost            *float64           `json:"baseOperationCost,omitempty" toml:"base_operation_cost" yaml:"baseOperationCost,omitempty"`
	ColorChangeCostMap           map[string]float64 `json:"colorChangeCostMap,omitempty" toml:"color_change_cost_map" yaml:"colorChangeCostMap,omitempty"`
	CostPerUnitDistanceMovingPin *float64           `json:"costPerUnitDistanceMovingPin,omitempty" toml:"cost_per_unit_distance_moving_pin" yaml:"costPerUnitDistanceMovingPin,omitempty"`
}

// Float returns a pointer to v. It keeps Partial literals short.
func Float(v float64) *float64 { return &v }

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		BaseOperationCost:            DefaultBaseOperationCost,
		ColorChangeCostMap:           map[string]float64{},
		CostPerUnitDistanceMovingPin: DefaultCostPerUnitDistanceMovingPin,
	}
}

// Resolve merges p over the defaults and validates the result.
func Resolve(p Partial) (Config, error) {
	cfg := Default()
	if p.BaseOperationCost != nil {
		cfg.BaseOperationCost = *p.BaseOperationCost
	}
	if p.ColorChangeCostMap != nil {
		cfg.ColorChangeCostMap = maps.Clone(p.ColorChangeCostMap)
	}
	if p.CostPerUnitDistanceMovingPin != nil {
		cfg.CostPerUnitDistanceMovingPin = *p.CostPerUnitDistanceMovingPin
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustResolve is like Resolve but panics on invalid input. Intended for tests
// and package-level defaults.
func MustResolve(p Partial) Config {
	cfg, err := Resolve(p)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Partial converts the configuration back into a fully specified Partial.
func (c Config) Partial() Partial {
	return Partial{
		BaseOperationCost:            Float(c.BaseOperationCost),
		ColorChangeCostMap:           maps.Clone(c.ColorChangeCostMap),
		CostPerUnitDistanceMovingPin: Float(c.CostPerUnitDistanceMovingPin),
	}
}

// ColorKey returns the ColorChangeCostMap key for a from→to color change.
func ColorKey(from, to string) string { return from + apperr.ColorSeparator + to }

// ColorChangeCost prices recoloring a pin. Recoloring to the same color is free.
func (c Config) ColorChangeCost(from, to string) float64 {
	if from == to {
		return 0
	}
	if v, ok := c.ColorChangeCostMap[ColorKey(from, to)]; ok {
		return v
	}
	return c.BaseOperationCost
}

// MovePinCost prices moving a pin offset from one position to another.
func (c Config) MovePinCost(from, to bpc.Point) float64 {
	return c.CostPerUnitDistanceMovingPin * from.Dist(to)
}

// NetworkChangeCost prices reassigning a pin to another network.
func (c Config) NetworkChangeCost() float64 { return c.BaseOperationCost }

// StructuralCost prices adding or removing a single box or pin.
func (c Config) StructuralCost() float64 { return c.BaseOperationCost }
