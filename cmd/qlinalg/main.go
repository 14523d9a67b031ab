package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/qlinalg"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile string
	shots   int
	qubits  string
	dump    bool
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qlinalg",
		Short:         "State-vector quantum circuit simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	root.PersistentFlags().Int("workers", 4, "number of pool workers")
	root.PersistentFlags().Float64("threshold", 1e-12, "probability cutoff of full distributions")
	root.PersistentFlags().Uint64("seed", 0, "random seed, the clock when omitted")
	root.PersistentFlags().Int("max-qubits", qlinalg.DefaultMaxQubits, "largest circuit to simulate")
	root.PersistentFlags().String("evaluator", "prefix", "formula evaluator: prefix or expr")
	root.PersistentFlags().String("log-level", "info", "log level")
	root.PersistentFlags().IntVar(&shots, "shots", 0, "number of samples, 0 for the full distribution")
	root.PersistentFlags().StringVar(&qubits, "qubits", "", "comma separated qubits to report, default all")
	root.PersistentFlags().BoolVar(&dump, "dump", false, "dump intermediate measurements")

	root.AddCommand(runCmd(), batchCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*qlinalg.Config, error) {
	v := viper.New()
	qlinalg.BindDefaults(v)

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"workers":    "workers",
		"threshold":  "threshold",
		"seed":       "seed",
		"max_qubits": "max-qubits",
		"evaluator":  "evaluator",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return qlinalg.DecodeConfig(v)
}

func jobOptions() ([]qlinalg.JobOption, error) {
	opts := []qlinalg.JobOption{qlinalg.WithShots(shots)}
	if qubits == "" {
		return opts, nil
	}

	var list []int
	for _, field := range strings.Split(qubits, ",") {
		q, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("qubit %q: %w", field, err)
		}
		list = append(list, q)
	}
	return append(opts, qlinalg.WithQubits(list...)), nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <circuit>",
		Short: "Simulate one circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			circuit, err := qlinalg.LoadCircuit(args[0])
			if err != nil {
				return err
			}
			opts, err := jobOptions()
			if err != nil {
				return err
			}

			simOpts, err := cfg.SimulatorOptions()
			if err != nil {
				return err
			}
			simOpts = append(simOpts, qlinalg.WithLogger(qlinalg.NewLogger(os.Stderr, cfg.LogLevel)))

			svc := qlinalg.NewService(qlinalg.NewSimulator(simOpts...), cfg)
			result, err := svc.Submit(qlinalg.NewJob(circuit, opts...))
			if err != nil {
				return err
			}

			render(cmd.OutOrStdout(), args[0], result)
			return nil
		},
	}
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <circuit>...",
		Short: "Simulate several circuits concurrently on the worker pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := jobOptions()
			if err != nil {
				return err
			}

			pool, err := qlinalg.NewPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := qlinalg.NewLogger(os.Stderr, cfg.LogLevel)
			go func(progress <-chan qlinalg.JobResult) {
				for jr := range progress {
					if jr.Error != nil {
						logger.Warn("job failed", "job", jr.JobID, "err", jr.Error)
						continue
					}
					logger.Info("job done", "job", jr.JobID, "samples", len(jr.Result.RawData))
				}
			}(pool.Subscribe("cli", len(args), nil))

			results := make([]*qlinalg.Result, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())

			for i, path := range args {
				g.Go(func() error {
					circuit, err := qlinalg.LoadCircuit(path)
					if err != nil {
						return err
					}

					_, ch := pool.Submit(qlinalg.NewJob(circuit, opts...))
					select {
					case <-ctx.Done():
						return ctx.Err()
					case jr := <-ch:
						if jr.Error != nil {
							return fmt.Errorf("%s: %w", path, jr.Error)
						}
						results[i] = jr.Result
						return nil
					}
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}

			for i, path := range args {
				render(cmd.OutOrStdout(), path, results[i])
			}
			return nil
		},
	}
}

func render(w io.Writer, title string, result *qlinalg.Result) {
	fmt.Fprintf(w, "%s\n", title)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"state", "probability", "amplitude"})
	for _, sample := range result.RawData {
		amp := ""
		if sample.Amplitude != nil {
			amp = fmt.Sprintf("%.6f", *sample.Amplitude)
		}
		table.Append([]string{
			strconv.Itoa(sample.State),
			strconv.FormatFloat(sample.Probability, 'f', 6, 64),
			amp,
		})
	}
	table.Render()

	if !dump {
		return
	}
	if len(result.Measurements) > 0 {
		spew.Fdump(w, result.Measurements)
	}
	for _, sample := range result.RawData {
		if len(sample.IntermediateMeasurements) > 0 {
			spew.Fdump(w, sample.IntermediateMeasurements)
		}
	}
}
