package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/tamtrack/internal/config"
	"github.com/ja7ad/tamtrack/pkg/chart"
	"github.com/ja7ad/tamtrack/pkg/fit"
	"github.com/ja7ad/tamtrack/pkg/grid"
	"github.com/ja7ad/tamtrack/pkg/report"
	"github.com/ja7ad/tamtrack/pkg/tam"
	"github.com/ja7ad/tamtrack/pkg/types"
)

type opts struct {
	pretty  bool
	verbose bool

	// outputs
	csvPath  string
	jsonPath string
	htmlPath string
}

func main() {
	var (
		o        opts
		gridFlag *grid.Flag
	)

	root := &cobra.Command{
		Use:   "tamtrack [DATAFILE]",
		Short: "Power-law TAM_max predictor",
		Long: `tamtrack fits TAM_max(E) = a*E^b to reference (energy, TAM_max) points
computed in preliminary scattering runs, then predicts the maximum total
angular momentum needed at every point of a kinetic energy grid shifted by
the internal energy of the initial state. Predictions are rounded up.

Options may come from a YAML file (--config) using the keys file_path,
min_energy_for_fitting, energy_offset, energy_grid, output_file,
enable_plotting, plot_file, solver and max_iterations. Flags win over the file.

Examples:
  tamtrack TAM_max.dat
  tamtrack -f TAM_max.dat -m 60 -o 221.9215 -g 1:51,50:101:2,1500,2000
  tamtrack --config run.yaml --plot-file fit.svg --json report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, o, gridFlag, args)
		},
		SilenceUsage: true,
	}

	fs := root.Flags()
	gridFlag = config.RegisterFlags(fs)
	fs.BoolVar(&o.pretty, "pretty", true, "print the prediction table")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	fs.StringVar(&o.csvPath, "csv", "", "write predictions to CSV file")
	fs.StringVar(&o.jsonPath, "json", "", "write fit summary and predictions to JSON file")
	fs.StringVar(&o.htmlPath, "html", "", "write fit summary and predictions to HTML file")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(_ context.Context, cmd *cobra.Command, o opts, gridFlag *grid.Flag, args []string) error {
	if o.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath, cmd.Flags(), gridFlag)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.FilePath = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	energies, err := cfg.Grid()
	if err != nil {
		return err
	}
	solver, err := fit.NewSolver(cfg.Solver, cfg.MaxIterations)
	if err != nil {
		return err
	}

	fmt.Printf(_console,
		cfg.FilePath,
		types.Wavenumber(cfg.MinEnergyForFitting).Humanized(),
		types.Wavenumber(cfg.EnergyOffset).Describe(),
		len(energies),
		solver.Name(),
		time.Now().Format("2006-01-02 15:04:05"),
	)

	res, err := tam.Predict(tam.Config{
		FilePath:            cfg.FilePath,
		MinEnergyForFitting: cfg.MinEnergyForFitting,
		EnergyOffset:        cfg.EnergyOffset,
		EnergyGrid:          energies,
		OutputFile:          cfg.OutputFile,
		EnablePlotting:      cfg.EnablePlotting,
		Solver:              solver,
		Renderer:            chart.NewFile(cfg.PlotFile),
		Logger:              slog.Default(),
	})
	if err != nil {
		return err
	}

	if o.pretty {
		tw := newTable()
		printTableHeader(tw)
		for _, p := range res.Predictions {
			printTableRow(tw, p)
		}
		tw.Flush()
	}

	rep := report.New(cfg.FilePath, cfg.MinEnergyForFitting, cfg.EnergyOffset, res)
	for _, out := range []struct {
		path string
		fn   report.Writer
	}{
		{o.csvPath, report.CSV},
		{o.jsonPath, report.JSON},
		{o.htmlPath, report.HTML},
	} {
		if out.path == "" {
			continue
		}
		if err := report.Save(out.path, rep, out.fn); err != nil {
			slog.Error("write report", "file", out.path, "err", err)
		}
	}

	fmt.Println()
	fmt.Printf("power-law fit over %d of %d points (%s, %d iterations):\n",
		len(res.Fitted), len(res.Observations), res.Fit.Solver, res.Fit.Iterations)
	fmt.Printf("- a:    %s\n", withErr(res.A, res.Fit.StdErr, 0))
	fmt.Printf("- b:    %s\n", withErr(res.B, res.Fit.StdErr, 1))
	fmt.Printf("- R²:   %.6f\n", res.Fit.RSquared)
	fmt.Printf("- RMSE: %.4f\n", res.Fit.RMSE)
	fmt.Printf("predictions: %s (%d rows)\n", cfg.OutputFile, len(res.Predictions))
	if cfg.EnablePlotting && res.PlotErr == nil {
		fmt.Printf("plot:        %s\n", cfg.PlotFile)
	}
	fmt.Println()

	return nil
}

func withErr(v float64, stderr []float64, i int) string {
	if i < len(stderr) {
		return fmt.Sprintf("%.6f ± %.6f", v, stderr[i])
	}
	return fmt.Sprintf("%.6f", v)
}

func newTable() *tabwriter.Writer {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	return tw
}

func printTableHeader(tw *tabwriter.Writer) {
	fmt.Fprintln(tw, "E (cm-1)\tE+offset\ta(E+offset)^b\tTAM_max")
	fmt.Fprintln(tw, "--------\t--------\t-------------\t-------")
}

func printTableRow(tw *tabwriter.Writer, p tam.Prediction) {
	fmt.Fprintf(tw, "%.4f\t%.4f\t%.4f\t%d\n", p.Energy, p.HighEnergy, p.Raw, p.TAMMax)
}

const _console = `tamtrack - TAM_max power-law predictor

       Data:      %s
       Fit above: %s
       Offset:    %s
       Grid:      %d points
       Solver:    %s

Prediction run as of %s:

`
