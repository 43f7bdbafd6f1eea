package forecast

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/tempcast/tempcast/internal/analytics"
)

// FittedModel is what the bootstrap needs from a fitted forecaster.
type FittedModel interface {
	// FittedValues returns in-sample one-step-ahead predictions aligned to the
	// training series, or ErrNoResiduals.
	FittedValues() ([]float64, error)
	// Forecast returns the point forecast for h = 1..horizon.
	Forecast(horizon int) []float64
	// LastYear is the final training year.
	LastYear() int
}

// OneStepPredictor is implemented by models that can replay their recursion over
// observations beyond the training window.
type OneStepPredictor interface {
	OneStepAhead(values []float64) []float64
}

// ResidualScope selects which observations contribute residuals.
type ResidualScope string

const (
	// ResidualScopeTraining uses the training series only.
	ResidualScopeTraining ResidualScope = "training"
	// ResidualScopeObserved also uses observations after the training cutoff.
	ResidualScopeObserved ResidualScope = "observed"
)

// ParseResidualScope maps a config value to a ResidualScope. Empty means training.
func ParseResidualScope(s string) (ResidualScope, error) {
	switch ResidualScope(s) {
	case "", ResidualScopeTraining:
		return ResidualScopeTraining, nil
	case ResidualScopeObserved:
		return ResidualScopeObserved, nil
	default:
		return "", invalidConfig("unknown residual scope %q", s)
	}
}

// EnsembleConfig holds bootstrap ensemble parameters
type EnsembleConfig struct {
	Horizon     int
	Simulations int
	BlockSize   int
	Seed        uint64
	Scope       ResidualScope
}

// Validate checks the ensemble parameters
func (c EnsembleConfig) Validate() error {
	if c.Horizon <= 0 {
		return invalidConfig("ensemble horizon must be positive, got %d", c.Horizon)
	}
	if c.Simulations <= 0 {
		return invalidConfig("simulations must be positive, got %d", c.Simulations)
	}
	if c.BlockSize <= 0 {
		return invalidConfig("block size must be positive, got %d", c.BlockSize)
	}
	if _, err := ParseResidualScope(string(c.Scope)); err != nil {
		return err
	}
	return nil
}

// EnsembleMatrix holds simulated trajectories: one row per forecast year, one column
// per simulation.
type EnsembleMatrix struct {
	Years []int
	Data  *mat.Dense
}

// Rows returns the number of forecast years
func (m *EnsembleMatrix) Rows() int {
	return len(m.Years)
}

// Cols returns the number of simulations
func (m *EnsembleMatrix) Cols() int {
	if m.Data == nil {
		return 0
	}
	_, c := m.Data.Dims()
	return c
}

// Row returns a copy of the simulated values for forecast row i.
func (m *EnsembleMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.Data)
}

// Path returns a copy of simulation j.
func (m *EnsembleMatrix) Path(j int) []float64 {
	return mat.Col(nil, j, m.Data)
}

// Residuals returns actual[i] - fitted[i] over the indices both slices cover.
func Residuals(actual, fitted []float64) []float64 {
	n := len(actual)
	if len(fitted) < n {
		n = len(fitted)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = actual[i] - fitted[i]
	}
	return out
}

// BootstrapEnsemble builds an ensemble of trajectories around model's point forecast
// by adding block-bootstrapped in-sample residuals. series must start at the model's
// first training year; with the training scope only years up to model.LastYear() are used.
func BootstrapEnsemble(series analytics.AnnualSeries, model FittedModel, cfg EnsembleConfig) (*EnsembleMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, ErrNoResiduals
	}

	residuals, err := ensembleResiduals(series, model, cfg.Scope)
	if err != nil {
		return nil, err
	}
	if len(residuals) == 0 {
		return nil, ErrNoResiduals
	}

	base := model.Forecast(cfg.Horizon)
	if len(base) != cfg.Horizon {
		return nil, fmt.Errorf("bootstrap: model returned %d forecast values, want %d", len(base), cfg.Horizon)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xda3e39cb94b95bdb))
	data := mat.NewDense(cfg.Horizon, cfg.Simulations, nil)
	path := make([]float64, 0, cfg.Horizon+cfg.BlockSize)

	for j := 0; j < cfg.Simulations; j++ {
		path = drawResidualPath(rng, residuals, cfg.BlockSize, cfg.Horizon, path[:0])
		for i := 0; i < cfg.Horizon; i++ {
			data.Set(i, j, base[i]+path[i])
		}
	}

	years := make([]int, cfg.Horizon)
	for i := range years {
		years[i] = model.LastYear() + 1 + i
	}
	return &EnsembleMatrix{Years: years, Data: data}, nil
}

func ensembleResiduals(series analytics.AnnualSeries, model FittedModel, scope ResidualScope) ([]float64, error) {
	if scope == ResidualScopeObserved {
		if p, ok := model.(OneStepPredictor); ok {
			actual := series.Values()
			return Residuals(actual, p.OneStepAhead(actual)), nil
		}
	}

	fitted, err := model.FittedValues()
	if err != nil {
		return nil, err
	}
	return Residuals(series.Until(model.LastYear()).Values(), fitted), nil
}

// drawResidualPath appends contiguous blocks of residuals drawn from uniform offsets
// until dst holds at least length values, and returns dst truncated to length. With
// no room for a block it draws single residuals.
func drawResidualPath(rng *rand.Rand, residuals []float64, blockSize, length int, dst []float64) []float64 {
	n := len(residuals)
	for len(dst) < length {
		if n <= blockSize {
			dst = append(dst, residuals[rng.IntN(n)])
			continue
		}
		start := rng.IntN(n - blockSize + 1)
		dst = append(dst, residuals[start:start+blockSize]...)
	}
	return dst[:length]
}
