// Package config loads diagnostic queries from YAML files.
//
// A query names a diagnostic kind, the results directories to read, the
// operation to evaluate and the axis directives to apply. Load validates
// the file and Options turns it into diagnostic options.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/scigolib/happi"
	"github.com/scigolib/happi/internal/axis"
	"github.com/scigolib/happi/internal/utils"
)

// MaxFileSize bounds the size of a query file.
const MaxFileSize = 1 << 20

// Diagnostic kinds accepted in a query.
const (
	KindFields          = "fields"
	KindParticleBinning = "particle-binning"
)

var validate = validator.New()

// Directive is an axis directive read from YAML: "all", a number, or a
// two-element range.
type Directive struct {
	axis.Directive
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Directive) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	dir, err := axis.ParseDirective(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Directive = dir
	return nil
}

// Grid describes the simulation grid used to normalise particle binning.
type Grid struct {
	CellLength []float64 `yaml:"cell_length" validate:"max=3,dive,gt=0"`
	CellCount  []int     `yaml:"cell_count" validate:"max=3,dive,gt=0"`
}

// QueryConfig is one diagnostic query.
type QueryConfig struct {
	Kind       string   `yaml:"kind" validate:"required,oneof=fields particle-binning"`
	Results    []string `yaml:"results" validate:"required,min=1,dive,required"`
	Diagnostic int      `yaml:"diagnostic" validate:"gte=0"`
	Operation  string   `yaml:"operation" validate:"required"`

	// Timesteps holds one time (nearest match) or a [lo, hi] range.
	Timesteps []float64 `yaml:"timesteps" validate:"omitempty,min=1,max=2"`

	Subset  map[string]Directive `yaml:"subset" validate:"dive,keys,required,endkeys"`
	Average map[string]Directive `yaml:"average" validate:"dive,keys,required,endkeys"`
	Stride  int                  `yaml:"stride" validate:"gte=1"`
	DataLog bool                 `yaml:"data_log"`

	Theta   *float64    `yaml:"theta" validate:"excluded_with=Build3D"`
	Build3D [][]float64 `yaml:"build3d" validate:"omitempty,len=3,dive,len=3"`
	Modes   []int       `yaml:"modes" validate:"dive,gte=0"`

	Grid          Grid `yaml:"grid"`
	MaxDimensions int  `yaml:"max_dimensions" validate:"gte=1,lte=3"`
	MovingWindow  bool `yaml:"moving_window"`
}

// DefaultQueryConfig returns a query over field diagnostic 0 in the
// current directory, with the defaults of a diagnostic built without
// options.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		Kind:          KindFields,
		Results:       []string{"."},
		Stride:        1,
		MaxDimensions: happi.DefaultMaxDimensions,
	}
}

// Load reads and validates the query file at path. Fields absent from the
// file keep their DefaultQueryConfig value.
func Load(path string) (QueryConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return QueryConfig{}, utils.WrapError("query file", err)
	}
	if info.Size() > MaxFileSize {
		return QueryConfig{}, utils.Errorf(utils.ErrConfiguration,
			"query file %s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return QueryConfig{}, utils.WrapError("query file", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return QueryConfig{}, utils.WrapError(path, err)
	}
	slog.Debug("query loaded", "path", path, "kind", cfg.Kind, "operation", cfg.Operation)
	return cfg, nil
}

// Parse decodes and validates a YAML query.
func Parse(data []byte) (QueryConfig, error) {
	cfg := DefaultQueryConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return QueryConfig{}, utils.Errorf(utils.ErrConfiguration, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return QueryConfig{}, err
	}
	return cfg, nil
}

// Validate checks the query fields.
func (c QueryConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return utils.Errorf(utils.ErrConfiguration, "%v", err)
	}
	if c.Kind == KindParticleBinning && len(c.Results) > 1 {
		return utils.Errorf(utils.ErrConfiguration, "particle binning reads a single results directory, got %d", len(c.Results))
	}
	return nil
}

// Options converts the query into diagnostic options. extra options are
// appended last and override the query.
func (c QueryConfig) Options(extra ...happi.Option) []happi.Option {
	var opts []happi.Option
	switch len(c.Timesteps) {
	case 1:
		opts = append(opts, happi.WithTimestep(c.Timesteps[0]))
	case 2:
		opts = append(opts, happi.WithTimesteps(c.Timesteps[0], c.Timesteps[1]))
	}
	for label, d := range c.Subset {
		opts = append(opts, happi.WithSubset(label, d.Directive))
	}
	for label, d := range c.Average {
		opts = append(opts, happi.WithAverage(label, d.Directive))
	}
	if c.Stride > 1 {
		opts = append(opts, happi.WithStride(c.Stride))
	}
	if c.DataLog {
		opts = append(opts, happi.WithDataLog(true))
	}
	if c.Theta != nil {
		opts = append(opts, happi.WithTheta(*c.Theta))
	}
	if len(c.Build3D) == 3 {
		var xyz [3][3]float64
		for i, row := range c.Build3D {
			copy(xyz[i][:], row)
		}
		opts = append(opts, happi.WithBuild3D(xyz[0], xyz[1], xyz[2]))
	}
	if len(c.Modes) > 0 {
		opts = append(opts, happi.WithModes(c.Modes...))
	}
	if len(c.Grid.CellLength) > 0 || len(c.Grid.CellCount) > 0 {
		opts = append(opts, happi.WithGrid(c.Grid.CellLength, c.Grid.CellCount))
	}
	if c.MaxDimensions > 0 {
		opts = append(opts, happi.WithMaxDimensions(c.MaxDimensions))
	}
	if c.MovingWindow {
		opts = append(opts, happi.WithMovingWindow(true))
	}
	return append(opts, extra...)
}

// Open builds the diagnostic the query describes from the files in its
// results directories.
func (c QueryConfig) Open(extra ...happi.Option) (*happi.Diagnostic, error) {
	opts := c.Options(extra...)
	switch c.Kind {
	case KindParticleBinning:
		dir := "."
		if len(c.Results) > 0 {
			dir = c.Results[0]
		}
		return happi.OpenParticleBinning(dir, c.Operation, opts...)
	default:
		return happi.OpenFields(c.Results, c.Diagnostic, c.Operation, opts...)
	}
}
