package dro

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Density selects how many latent draws a synthetic document receives
// relative to the number of distinct features of its source document.
type Density int

const (
	Prop Density = iota
	High
	VeryHigh
)

func (d Density) String() string {
	switch d {
	case Prop:
		return "prop"
	case High:
		return "high"
	case VeryHigh:
		return "veryhigh"
	}
	return fmt.Sprintf("density(%d)", int(d))
}

func ParseDensity(s string) (Density, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prop", "":
		return Prop, nil
	case "high":
		return High, nil
	case "veryhigh", "very-high", "very_high":
		return VeryHigh, nil
	}
	return 0, apperrors.Configf("unknown density %q", s)
}

// DefaultDensityScale maps each density to its draw multiplier.
var DefaultDensityScale = map[Density]float64{
	Prop:     1,
	High:     2,
	VeryHigh: 4,
}

// Customizer is the engine's runtime configuration. The zero value is not
// usable; start from DefaultCustomizer.
type Customizer struct {
	TrainReplicants    int
	TestReplicants     int
	Density            Density
	DensityScale       map[Density]float64
	UseSoftmax         bool
	SoftmaxTemperature float64
	MaxWorkers         int
	Seed               uint64
	Supervised         weighting.Supervised
}

func DefaultCustomizer() Customizer {
	return Customizer{
		TrainReplicants:    1000,
		TestReplicants:     5,
		Density:            Prop,
		SoftmaxTemperature: 1,
		MaxWorkers:         4,
		Seed:               1,
		Supervised:         weighting.InformationGain,
	}
}

func (c Customizer) validate() error {
	if c.TrainReplicants < 1 {
		return apperrors.Configf("train replicants must be positive, got %d", c.TrainReplicants)
	}
	if c.TestReplicants < 1 {
		return apperrors.Configf("test replicants must be positive, got %d", c.TestReplicants)
	}
	if c.MaxWorkers < 1 {
		return apperrors.Configf("max workers must be positive, got %d", c.MaxWorkers)
	}
	if c.UseSoftmax && c.SoftmaxTemperature <= 0 {
		return apperrors.Configf("softmax temperature must be positive, got %v", c.SoftmaxTemperature)
	}
	if c.scale() <= 0 {
		return apperrors.Configf("density %s has no positive scale", c.Density)
	}
	return nil
}

func (c Customizer) scale() float64 {
	if s, ok := c.DensityScale[c.Density]; ok {
		return s
	}
	return DefaultDensityScale[c.Density]
}
