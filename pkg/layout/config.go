package layout

import (
	"github.com/go-playground/validator/v10"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// Default values applied by [Config.SetDefaults] to zero fields.
const (
	DefaultIterations           = 500
	DefaultSpringStiffness      = 0.1
	DefaultTargetLength         = 2.0
	DefaultRepulsion            = 1.0
	DefaultDamping              = 0.9
	DefaultStepSize             = 0.1
	DefaultConvergenceThreshold = 1e-3
	DefaultMinDistance          = 0.1
	DefaultMaxStep              = 1.0
)

// Config tunes the force simulation. Zero fields take the defaults above.
type Config struct {
	// Iterations is the maximum number of simulation steps.
	Iterations int `json:"iterations,omitempty" toml:"iterations" yaml:"iterations,omitempty" validate:"gte=0"`
	// SpringStiffness scales the pull between pins sharing a network.
	SpringStiffness float64 `json:"springStiffness,omitempty" toml:"spring_stiffness" yaml:"springStiffness,omitempty" validate:"gte=0"`
	// TargetLength is the rest length of those springs.
	TargetLength float64 `json:"targetLength,omitempty" toml:"target_length" yaml:"targetLength,omitempty" validate:"gte=0"`
	// Repulsion scales the inverse-square push between boxes.
	Repulsion float64 `json:"repulsion,omitempty" toml:"repulsion" yaml:"repulsion,omitempty" validate:"gte=0"`
	// Damping multiplies velocities every step.
	Damping float64 `json:"damping,omitempty" toml:"damping" yaml:"damping,omitempty" validate:"gte=0,lte=1"`
	// StepSize converts force into velocity.
	StepSize float64 `json:"stepSize,omitempty" toml:"step_size" yaml:"stepSize,omitempty" validate:"gte=0"`
	// ConvergenceThreshold stops the run once the summed displacement of a
	// step falls below it.
	ConvergenceThreshold float64 `json:"convergenceThreshold,omitempty" toml:"convergence_threshold" yaml:"convergenceThreshold,omitempty" validate:"gte=0"`
	// MinDistance clamps box distances in the repulsion term.
	MinDistance float64 `json:"minDistance,omitempty" toml:"min_distance" yaml:"minDistance,omitempty" validate:"gte=0"`
	// MaxStep caps how far a box moves in one step.
	MaxStep float64 `json:"maxStep,omitempty" toml:"max_step" yaml:"maxStep,omitempty" validate:"gte=0"`
}

// DefaultConfig returns a fully populated configuration.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with defaults.
// This method is idempotent.
func (c *Config) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.SpringStiffness == 0 {
		c.SpringStiffness = DefaultSpringStiffness
	}
	if c.TargetLength == 0 {
		c.TargetLength = DefaultTargetLength
	}
	if c.Repulsion == 0 {
		c.Repulsion = DefaultRepulsion
	}
	if c.Damping == 0 {
		c.Damping = DefaultDamping
	}
	if c.StepSize == 0 {
		c.StepSize = DefaultStepSize
	}
	if c.ConvergenceThreshold == 0 {
		c.ConvergenceThreshold = DefaultConvergenceThreshold
	}
	if c.MinDistance == 0 {
		c.MinDistance = DefaultMinDistance
	}
	if c.MaxStep == 0 {
		c.MaxStep = DefaultMaxStep
	}
}

var validate = validator.New()

// Validate reports an INVALID_CONFIG error for negative values or a damping
// factor above one.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		e := verrs[0]
		return apperr.New(apperr.ErrCodeInvalidConfig, "layout %s: must satisfy %s=%s, got %v", e.Field(), e.Tag(), e.Param(), e.Value())
	}
	return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "layout config")
}
