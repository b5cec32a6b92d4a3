// Package mosaic estimates the relative planar transforms of an ordered image
// sequence and composes them into absolute transforms and a global bounding box.
package mosaic

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/Ashwinning/libmv/estimation"
)

// ModelType selects the geometric constraint fitted between adjacent images.
type ModelType string

// The supported geometric constraints.
const (
	ModelAffine     = ModelType("affine")
	ModelHomography = ModelType("homography")
	ModelPanoramic  = ModelType("panoramic")
)

// Config contains the parameters of the per-pair robust estimation.
type Config struct {
	Model              ModelType `json:"model"`
	OutlierProbability float64   `json:"outlier_probability"`
	MaxError2D         float64   `json:"max_error_2d"`
	MaxIterations      int       `json:"max_iterations"`
	SymmetricError     bool      `json:"symmetric_error"`
	Normalize          bool      `json:"normalize"`
	Seed               int64     `json:"seed"`
}

// NewDefaultConfig mirrors the defaults of the estimation package for the given
// model.
func NewDefaultConfig(model ModelType) *Config {
	return &Config{
		Model:              model,
		OutlierProbability: 1e-2,
		MaxError2D:         1.0,
		Normalize:          model != ModelPanoramic,
	}
}

// LoadConfig loads an estimation configuration from a json file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	configFile, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(configFile.Close)
	jsonParser := json.NewDecoder(configFile)
	if err := jsonParser.Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// estimator builds the robust estimator described by the config.
func (c *Config) estimator() (*estimation.Estimator, error) {
	var solver estimation.ModelSolver
	switch c.Model {
	case ModelAffine:
		solver = estimation.AffineSolver{}
	case ModelHomography:
		solver = estimation.HomographySolver{}
	case ModelPanoramic:
		if c.Normalize {
			return nil, errors.New("panoramic model requires normalize to be off")
		}
		solver = estimation.PanoramicSolver{}
	default:
		return nil, errors.Errorf("unknown model type %q", c.Model)
	}
	var metric estimation.ErrorMetric = estimation.AsymmetricError{}
	if c.SymmetricError {
		metric = estimation.SymmetricError{}
	}
	est := estimation.NewEstimator(solver, metric)
	est.Normalize = c.Normalize
	if c.OutlierProbability > 0 {
		est.OutlierProbability = c.OutlierProbability
	}
	if c.MaxError2D > 0 {
		est.MaxError = c.MaxError2D
	}
	if c.MaxIterations > 0 {
		est.MaxIterations = c.MaxIterations
	}
	return est, nil
}
