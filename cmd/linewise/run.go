package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ygrebnov/linewise"
	"github.com/ygrebnov/linewise/internal/config"
	"github.com/ygrebnov/linewise/metrics"
	"github.com/ygrebnov/linewise/transforms"
)

type runFlags struct {
	configPath string
	transform  string
	workers    int
	dictionary string
	lowercase  bool
	logLevel   string
	logFormat  string
	stats      bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run SRC DST",
		Short: "Transform SRC line by line into DST",
		Example: `  linewise run corpus.txt corpus.clean --transform clean --lowercase
  linewise run corpus.clean corpus.lemma --transform lemma --dict lemmas.tsv --workers 8`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, f, args[0], args[1])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVarP(&f.transform, "transform", "t", "", "line transform: "+strings.Join(transforms.Names(), ", "))
	fl.IntVarP(&f.workers, "workers", "w", 0, "number of workers (default: number of CPUs)")
	fl.StringVar(&f.dictionary, "dict", "", "lemma dictionary for the lemma transform")
	fl.BoolVar(&f.lowercase, "lowercase", false, "lowercase output of the clean transform (Turkish rules)")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fl.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	fl.BoolVar(&f.stats, "stats", false, "print metrics after the run")
	return cmd
}

// applyFlags overrides file settings with flags that were set explicitly.
func applyFlags(cmd *cobra.Command, f runFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("transform") {
		cfg.Transform.Name = f.transform
	}
	if changed("workers") {
		cfg.Engine.Workers = f.workers
	}
	if changed("dict") {
		cfg.Transform.Dictionary = f.dictionary
	}
	if changed("lowercase") {
		cfg.Transform.Lowercase = f.lowercase
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

func runRun(cmd *cobra.Command, f runFlags, src, dst string) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)
	if err = cfg.Validate(); err != nil {
		return err
	}

	log, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	factory, err := transforms.Lookup(cfg.Transform.Name, cfg.TransformSettings())
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	mp := metrics.NewMemoryProvider()
	opts = append(opts, linewise.WithLogger(log.With("transform", cfg.Transform.Name)), linewise.WithMetrics(mp))
	p, err := linewise.New(factory, opts...)
	if err != nil {
		return err
	}

	stats, err := p.ProcessFile(cmd.Context(), src, dst)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s lines read, %s written, %s dropped in %s using %d workers\n",
		dst,
		humanize.Comma(int64(stats.Lines)),
		humanize.Comma(int64(stats.Written)),
		humanize.Comma(int64(stats.Dropped)),
		stats.Elapsed.Round(time.Millisecond),
		stats.Workers,
	)
	if f.stats {
		printMetrics(cmd, mp)
	}
	return nil
}

func printMetrics(cmd *cobra.Command, mp *metrics.MemoryProvider) {
	out := cmd.OutOrStdout()
	s := mp.Snapshot()
	for _, name := range s.Names() {
		var unit string
		if d, ok := mp.Describe(name); ok && d.Unit != "" && d.Unit != "1" {
			unit = " " + d.Unit
		}
		if v, ok := s.Counters[name]; ok {
			fmt.Fprintf(out, "  %-18s %s%s\n", name, humanize.Comma(v), unit)
			continue
		}
		h := s.Histograms[name]
		fmt.Fprintf(out, "  %-18s count=%s mean=%.6f min=%.6f max=%.6f%s\n",
			name, humanize.Comma(h.Count), h.Mean, h.Min, h.Max, unit)
	}
}
