// Package config resolves run options from defaults, an optional YAML file
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ja7ad/tamtrack/pkg/fit"
	"github.com/ja7ad/tamtrack/pkg/grid"
	"github.com/ja7ad/tamtrack/pkg/tam"
)

// ErrInvalid indicates a configuration that cannot run.
var ErrInvalid = errors.New("config: invalid")

// Keys as they appear in the YAML file.
const (
	KeyFilePath       = "file_path"
	KeyMinEnergy      = "min_energy_for_fitting"
	KeyEnergyOffset   = "energy_offset"
	KeyEnergyGrid     = "energy_grid"
	KeyOutputFile     = "output_file"
	KeyEnablePlotting = "enable_plotting"
	KeyPlotFile       = "plot_file"
	KeySolver         = "solver"
	KeyMaxIterations  = "max_iterations"
)

// flag names bound to each key
var flagKeys = map[string]string{
	KeyFilePath:       "file-path",
	KeyMinEnergy:      "min-energy",
	KeyEnergyOffset:   "offset",
	KeyOutputFile:     "output",
	KeyEnablePlotting: "plot",
	KeyPlotFile:       "plot-file",
	KeySolver:         "solver",
	KeyMaxIterations:  "max-iter",
}

// Config holds one run's options.
type Config struct {
	FilePath            string         `mapstructure:"file_path"`
	MinEnergyForFitting float64        `mapstructure:"min_energy_for_fitting"`
	EnergyOffset        float64        `mapstructure:"energy_offset"`
	EnergyGrid          []grid.Segment `mapstructure:"energy_grid"`
	OutputFile          string         `mapstructure:"output_file"`
	EnablePlotting      bool           `mapstructure:"enable_plotting"`
	PlotFile            string         `mapstructure:"plot_file"`
	Solver              string         `mapstructure:"solver"`
	MaxIterations       int            `mapstructure:"max_iterations"`
}

// _defaultConfig returns the parameters of the CO–N2 production run.
func _defaultConfig() *Config {
	return &Config{
		FilePath:            "TAM_max.dat",
		MinEnergyForFitting: 60,       // fit E > 60 cm⁻¹
		EnergyOffset:        221.9215, // internal energy of CO(j=8) + N2(j=6), cm⁻¹
		EnergyGrid:          grid.Default(),
		OutputFile:          tam.DefaultOutputFile,
		EnablePlotting:      true,
		PlotFile:            tam.DefaultPlotFile,
		Solver:              fit.SolverLM,
	}
}

// Default returns a copy of the default configuration.
func Default() *Config { return _defaultConfig() }

// RegisterFlags declares every run option on fs and returns the energy grid
// flag, which is handled outside viper.
func RegisterFlags(fs *pflag.FlagSet) *grid.Flag {
	d := _defaultConfig()

	fs.String("config", "", "YAML file with run options (keys: file_path, min_energy_for_fitting, ...)")
	fs.StringP("file-path", "f", d.FilePath, "two-column (energy, TAM_max) data file")
	fs.Float64P("min-energy", "m", d.MinEnergyForFitting, "fit only points with energy above this value (cm⁻¹)")
	fs.Float64P("offset", "o", d.EnergyOffset, "energy added to every grid point before prediction (cm⁻¹)")
	fs.String("output", d.OutputFile, "prediction output file")
	fs.Bool("plot", d.EnablePlotting, "render the diagnostic log-log plot")
	fs.String("plot-file", d.PlotFile, "plot output file; format follows the extension (.png, .svg, .pdf)")
	fs.String("solver", d.Solver, "least-squares solver: lm, bfgs or loglog")
	fs.Int("max-iter", d.MaxIterations, "solver iteration limit (0 = solver default)")

	g := grid.NewFlag(d.EnergyGrid)
	fs.VarP(g, "energy-grid", "g", "energy grid as start:stop[:step] ranges and values, comma separated (repeatable)")
	return g
}

// Load resolves options: defaults < YAML file at path < changed flags.
// fs and g may be nil.
func Load(path string, fs *pflag.FlagSet, g *grid.Flag) (*Config, error) {
	v := viper.New()
	d := _defaultConfig()
	v.SetDefault(KeyFilePath, d.FilePath)
	v.SetDefault(KeyMinEnergy, d.MinEnergyForFitting)
	v.SetDefault(KeyEnergyOffset, d.EnergyOffset)
	v.SetDefault(KeyOutputFile, d.OutputFile)
	v.SetDefault(KeyEnablePlotting, d.EnablePlotting)
	v.SetDefault(KeyPlotFile, d.PlotFile)
	v.SetDefault(KeySolver, d.Solver)
	v.SetDefault(KeyMaxIterations, d.MaxIterations)

	if fs != nil {
		for key, name := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("config: bind --%s: %w", name, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	switch {
	case g != nil && fs != nil && fs.Changed("energy-grid"):
		c.EnergyGrid = g.Segments
	case len(c.EnergyGrid) == 0:
		c.EnergyGrid = d.EnergyGrid
	}
	return &c, nil
}

// Grid expands the configured energy grid.
func (c *Config) Grid() ([]float64, error) {
	return grid.Build(c.EnergyGrid)
}

// Validate reports the first problem that would stop a run.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("%w: file_path is empty", ErrInvalid)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("%w: output_file is empty", ErrInvalid)
	}
	if c.EnablePlotting && c.PlotFile == "" {
		return fmt.Errorf("%w: plot_file is empty", ErrInvalid)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must be >= 0", ErrInvalid)
	}
	if _, err := fit.NewSolver(c.Solver, c.MaxIterations); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Grid(); err != nil {
		return fmt.Errorf("%w: energy_grid: %w", ErrInvalid, err)
	}
	return nil
}
