package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/abyssdigger/log4g"
	"github.com/abyssdigger/log4g/internal/config"
)

const (
	optionNameConfig      = "config"
	optionNameLevel       = "level"
	optionNameLayout      = "layout"
	optionNameName        = "name"
	optionNameOutput      = "output"
	optionNameColor       = "color"
	optionNameQueue       = "queue"
	optionNameInputLevel  = "input-level"
	optionNameWatch       = "watch"
	optionNameMetricsAddr = "metrics-addr"

	metricsNamespace = "log4g"
	maxLineSize      = 1 << 20
)

type command struct {
	root        *cobra.Command
	cfgFile     string
	inputLevel  string
	watch       bool
	metricsAddr string
}

type option func(*command)

func withArgs(a ...string) option {
	return func(c *command) { c.root.SetArgs(a) }
}

func withInput(r io.Reader) option {
	return func(c *command) { c.root.SetIn(r) }
}

func withOutput(w io.Writer) option {
	return func(c *command) { c.root.SetOut(w) }
}

func withErrorOutput(w io.Writer) option {
	return func(c *command) { c.root.SetErr(w) }
}

func newCommand(opts ...option) (*command, error) {
	c := &command{}
	c.root = &cobra.Command{
		Use:   "log4g",
		Short: "Log standard input lines through a configured log4g logger",
		Long: `Reads standard input line by line and logs every line at --input-level
through a logger configured from --config, LOG4G_* environment variables and
flags (flags win).`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          c.run,
	}

	flags := c.root.PersistentFlags()
	flags.StringVar(&c.cfgFile, optionNameConfig, "", "config file (yaml, json or toml)")
	flags.String(optionNameLevel, "", "threshold level (default info)")
	flags.String(optionNameLayout, "", "layout pattern (default \""+log4g.DEFAULT_LAYOUT+"\")")
	flags.String(optionNameName, "", "logger name (default "+log4g.DEFAULT_LOGGER_NAME+")")
	flags.String(optionNameOutput, "", "stdout, stderr or a file path (default stderr)")
	flags.String(optionNameColor, "", "auto, always or never (default auto)")
	flags.Int(optionNameQueue, 0, "write through a queue with this buffer size")

	c.root.Flags().StringVar(&c.inputLevel, optionNameInputLevel, "info", "level of the logged input lines")
	c.root.Flags().BoolVar(&c.watch, optionNameWatch, false, "re-apply level and layout when the config file changes")
	c.root.Flags().StringVar(&c.metricsAddr, optionNameMetricsAddr, "", "serve prometheus metrics on this address")

	c.initLevelsCmd()
	c.initCheckLayoutCmd()
	c.initConfigCmd()

	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *command) Execute() error {
	return c.root.Execute()
}

// loadConfig reads the config file, environment and the flags of cmd.
func (c *command) loadConfig(cmd *cobra.Command) (config.Manager, error) {
	m := config.NewManager(c.cfgFile)
	if err := m.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *command) run(cmd *cobra.Command, args []string) (err error) {
	inputLevel, err := log4g.ParseLevel(c.inputLevel)
	if err != nil {
		return errors.Wrap(err, optionNameInputLevel)
	}
	m, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := m.Get()

	// diagnostics of the tool itself
	diag := log4g.InitWithParams("log4g", log4g.LVL_INFO, log4g.MustCompile("log4g: %level{lower}: %msg"),
		log4g.NewWriterSink(cmd.ErrOrStderr()), cmd.ErrOrStderr())

	sink, closer, err := config.BuildSink(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close output")
		}
	}()

	logger := log4g.InitWithParams(cfg.Name, log4g.DEFAULT_LOG_LEVEL, nil, sink, cmd.ErrOrStderr())
	if err := config.Apply(cfg, logger); err != nil {
		return err
	}

	if c.metricsAddr != "" {
		stop, err := serveMetrics(c.metricsAddr, logger)
		if err != nil {
			return err
		}
		defer stop()
		diag.Infof("serving metrics on %s", c.metricsAddr)
	}

	if c.watch {
		if c.cfgFile == "" {
			diag.Warn("--watch has no effect without --config")
		}
		m.Watch(func(newCfg *config.Config) {
			if err := config.Apply(newCfg, logger); err != nil {
				diag.LogErr(err)
				return
			}
			diag.Infof("configuration reloaded: level %s, layout %q", newCfg.Level, newCfg.Layout)
		})
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for scanner.Scan() {
		logger.Log(inputLevel, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}
	return logger.Sync()
}

// serveMetrics exposes the line counters of logger on addr until stop is called.
func serveMetrics(addr string, logger *log4g.Logger) (stop func(), err error) {
	metrics := log4g.NewMetrics(metricsNamespace)
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.Collectors()...)
	logger.AddHooks(metrics)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "metrics listener")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func (c *command) initLevelsCmd() {
	c.root.AddCommand(&cobra.Command{
		Use:   "levels",
		Short: "List log levels in ascending severity",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, level := range log4g.Levels() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", int(level), log4g.LevelFullNames[level], log4g.LevelShortNames[level])
			}
		},
	})
}

func (c *command) initCheckLayoutCmd() {
	c.root.AddCommand(&cobra.Command{
		Use:   "check-layout PATTERN",
		Short: "Compile a layout pattern and print its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := log4g.Compile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range layout.Tokens() {
				if t.IsLiteral() {
					fmt.Fprintf(out, "literal %q\n", t.Text())
					continue
				}
				minw, maxw := t.Width()
				fmt.Fprintf(out, "%s min=%d max=%d arg=%q\n", t.Placeholder(), minw, maxw, t.Arg())
			}
			fmt.Fprintln(out, layout.Render(log4g.Event{
				Time:       time.Now(),
				Message:    "sample message",
				LoggerName: log4g.DEFAULT_LOGGER_NAME,
				Level:      log4g.LVL_INFO,
			}))
			return nil
		},
	})
}

func (c *command) initConfigCmd() {
	c.root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := m.Get().Marshal()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
			return err
		},
	})
}
