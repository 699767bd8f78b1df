package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/scigolib/hdf5"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scigolib/happi"
	"github.com/scigolib/happi/internal/config"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	logLevel        string
	metricsTextfile string

	registry *prometheus.Registry
	metrics  *happi.Metrics
	logger   *slog.Logger
}

// queryFlags builds a query from a YAML file and command line overrides.
type queryFlags struct {
	path       string
	kind       string
	results    []string
	diagnostic int
	operation  string
	subset     []string
	average    []string
	theta      string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "happi",
		Short:         "Inspect and extract Smilei diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return g.flush()
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.metricsTextfile, "metrics-textfile", "", "write query metrics to this file on exit")

	root.AddCommand(newListCmd(), newTreeCmd())
	root.AddCommand(newInfoCmd(g), newTimestepsCmd(g), newExtractCmd(g))
	return root
}

func (g *globals) setup(stderr io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	g.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.logger)

	g.registry = prometheus.NewRegistry()
	g.metrics = happi.NewMetrics(g.registry)
	return nil
}

func (g *globals) flush() error {
	if g.metricsTextfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(g.metricsTextfile, g.registry)
}

func (q *queryFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&q.path, "query", "q", "", "YAML query file")
	f.StringVar(&q.kind, "kind", "", "diagnostic kind (fields, particle-binning)")
	f.StringSliceVarP(&q.results, "results", "r", nil, "results directories, oldest restart first")
	f.IntVarP(&q.diagnostic, "diagnostic", "n", 0, "field diagnostic number")
	f.StringVarP(&q.operation, "operation", "o", "", "quantity or operation to evaluate")
	f.StringArrayVar(&q.subset, "subset", nil, "axis subset as label=directive, e.g. x=[2,8]")
	f.StringArrayVar(&q.average, "average", nil, "axis average as label=directive, e.g. y=all")
	f.StringVar(&q.theta, "theta", "", "reconstruction angle for cylindrical fields")
}

// load merges the query file and the flags set on cmd.
func (q *queryFlags) load(cmd *cobra.Command) (config.QueryConfig, error) {
	cfg := config.DefaultQueryConfig()
	if q.path != "" {
		var err error
		if cfg, err = config.Load(q.path); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("kind") {
		cfg.Kind = q.kind
	}
	if f.Changed("results") {
		cfg.Results = q.results
	}
	if f.Changed("diagnostic") {
		cfg.Diagnostic = q.diagnostic
	}
	if f.Changed("operation") {
		cfg.Operation = q.operation
	}
	if f.Changed("theta") {
		theta, err := strconv.ParseFloat(q.theta, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid --theta %q", q.theta)
		}
		cfg.Theta = &theta
	}
	var err error
	if cfg.Subset, err = mergeDirectives(cfg.Subset, q.subset); err != nil {
		return cfg, err
	}
	if cfg.Average, err = mergeDirectives(cfg.Average, q.average); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// mergeDirectives parses label=directive pairs into m.
func mergeDirectives(m map[string]config.Directive, pairs []string) (map[string]config.Directive, error) {
	if len(pairs) == 0 {
		return m, nil
	}
	if m == nil {
		m = make(map[string]config.Directive, len(pairs))
	}
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		if !ok || label == "" {
			return nil, fmt.Errorf("directive %q is not label=value", pair)
		}
		var d config.Directive
		if err := yamlDirective(&d, value); err != nil {
			return nil, fmt.Errorf("directive %q: %w", pair, err)
		}
		m[strings.TrimSpace(label)] = d
	}
	return m, nil
}

func (q *queryFlags) open(cmd *cobra.Command, g *globals) (*happi.Diagnostic, error) {
	cfg, err := q.load(cmd)
	if err != nil {
		return nil, err
	}
	return cfg.Open(happi.WithLogger(g.logger), happi.WithMetrics(g.metrics))
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list results...",
		Short: "List the diagnostics found in results directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fields, err := happi.FieldDiagnostics(args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Fields: %s\n", joinInts(fields))
			for _, dir := range args {
				binning, err := happi.ParticleBinningDiagnostics(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "ParticleBinning in %s: %s\n", dir, joinInts(binning))
			}
			return nil
		},
	}
}

func newInfoCmd(g *globals) *cobra.Command {
	q := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe a diagnostic and its axes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := q.open(cmd, g)
			if d != nil {
				defer d.Close()
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, d.Info())
			fmt.Fprintf(out, "Units: %s\n", d.Units())
			fmt.Fprintf(out, "Shape: %v\n", d.Shape())
			for _, a := range d.Axes() {
				printAxis(out, a)
			}
			return nil
		},
	}
	q.register(cmd)
	return cmd
}

func newTimestepsCmd(g *globals) *cobra.Command {
	q := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "timesteps",
		Short: "List the timesteps available to a diagnostic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := q.open(cmd, g)
			if d != nil {
				defer d.Close()
			}
			if err != nil {
				return err
			}
			for _, t := range d.Timesteps() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	q.register(cmd)
	return cmd
}

func newExtractCmd(g *globals) *cobra.Command {
	q := &queryFlags{}
	var timesteps []int64
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print diagnostic data, one block per timestep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := q.open(cmd, g)
			if d != nil {
				defer d.Close()
			}
			if err != nil {
				return err
			}
			if len(timesteps) == 0 {
				timesteps = d.Timesteps()
			}
			out := cmd.OutOrStdout()
			for _, t := range timesteps {
				data, err := d.DataAtTime(t)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# timestep %d, %s [%s]\n", t, d.Title(), d.Units())
				writeArray(out, data)
			}
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().Int64SliceVarP(&timesteps, "timestep", "t", nil, "timesteps to extract (default all)")
	return cmd
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree file.h5",
		Short: "Print the groups and datasets of an HDF5 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := hdf5.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return printTree(cmd.OutOrStdout(), f)
		},
	}
}

func printTree(out io.Writer, f *hdf5.File) error {
	var walkErr error
	f.Walk(func(path string, obj hdf5.Object) {
		depth := strings.Count(strings.TrimSuffix(path, "/"), "/")
		indent := strings.Repeat("  ", depth)
		switch o := obj.(type) {
		case *hdf5.Group:
			fmt.Fprintf(out, "%s%s\n", indent, path)
		case *hdf5.Dataset:
			info, err := o.Info()
			if err != nil && walkErr == nil {
				walkErr = fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(out, "%s%s  %s\n", indent, path, info)
		}
	})
	return walkErr
}

func printAxis(out io.Writer, a happi.Axis) {
	scale := ""
	if a.Log {
		scale = " log"
	}
	lo, hi := a.Centers[0], a.Centers[len(a.Centers)-1]
	fmt.Fprintf(out, "Axis %s: %d points from %g to %g [%s]%s\n", a.Label, len(a.Centers), lo, hi, a.Units, scale)
}

// writeArray prints data with the last axis along a row and a blank line
// between 2D blocks.
func writeArray(out io.Writer, data *happi.Array) {
	if len(data.Shape) == 0 {
		fmt.Fprintf(out, "%g\n", data.Data[0])
		return
	}
	row := data.Shape[len(data.Shape)-1]
	block := row
	if len(data.Shape) > 1 {
		block *= data.Shape[len(data.Shape)-2]
	}
	for start := 0; start < len(data.Data); start += row {
		if start > 0 && start%block == 0 {
			fmt.Fprintln(out)
		}
		cells := make([]string, row)
		for i, v := range data.Data[start : start+row] {
			cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
}

func joinInts(v []int) string {
	if len(v) == 0 {
		return "none"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

// yamlDirective parses a directive written on the command line with the
// same syntax as a query file.
func yamlDirective(d *config.Directive, value string) error {
	var wrapper struct {
		D config.Directive `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: "+value), &wrapper); err != nil {
		return err
	}
	*d = wrapper.D
	return nil
}
