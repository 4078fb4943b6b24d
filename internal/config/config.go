package config

import (
	"io"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/abyssdigger/log4g"
)

const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Keys that can be set from a file, LOG4G_* environment variables or bound flags.
var keys = []string{"name", "level", "layout", "output", "color", "queue"}

// Config holds the logger configuration
type Config struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Level  string `mapstructure:"level" yaml:"level"`
	Layout string `mapstructure:"layout" yaml:"layout"`
	Output string `mapstructure:"output" yaml:"output"` // "stdout", "stderr" or a file path
	Color  string `mapstructure:"color" yaml:"color"`   // "auto", "always" or "never"
	Queue  int    `mapstructure:"queue" yaml:"queue"`   // queued sink buffer, 0 writes synchronously
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Name:   log4g.DEFAULT_LOGGER_NAME,
		Level:  strings.ToLower(log4g.DEFAULT_LOG_LEVEL.String()),
		Layout: log4g.DEFAULT_LAYOUT,
		Output: OutputStderr,
		Color:  ColorAuto,
	}
}

// Validate checks every field without applying anything.
func (c *Config) Validate() error {
	_, _, err := c.parse()
	return err
}

func (c *Config) parse() (log4g.LogLevel, *log4g.Layout, error) {
	level, err := log4g.ParseLevel(c.Level)
	if err != nil {
		return level, nil, errors.Wrap(err, "level")
	}
	layout, err := log4g.Compile(c.Layout)
	if err != nil {
		return level, nil, errors.Wrap(err, "layout")
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return level, nil, errors.Errorf("color: unknown mode %q", c.Color)
	}
	if c.Output == "" {
		return level, nil, errors.New("output: empty")
	}
	if c.Queue < 0 {
		return level, nil, errors.Errorf("queue: negative buffer size %d", c.Queue)
	}
	return level, layout, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	return out, errors.Wrap(err, "marshal config")
}

// Manager defines the configuration manager interface
type Manager interface {
	Load() error
	Get() *Config
	BindFlags(flags *pflag.FlagSet) error
	Watch(onChange func(newConfig *Config))
}

type viperManager struct {
	v      *viper.Viper
	path   string
	config *Config
	mu     sync.RWMutex
}

// NewManager creates a new configuration manager. An empty path means
// defaults, environment and bound flags only.
func NewManager(configPath string) Manager {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	}
	v.SetEnvPrefix("LOG4G")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("name", def.Name)
	v.SetDefault("level", def.Level)
	v.SetDefault("layout", def.Layout)
	v.SetDefault("output", def.Output)
	v.SetDefault("color", def.Color)
	v.SetDefault("queue", def.Queue)

	return &viperManager{
		v:      v,
		path:   configPath,
		config: def,
	}
}

// BindFlags makes explicitly set flags named like configuration keys take
// precedence over the file and environment.
func (m *viperManager) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range keys {
		if f := flags.Lookup(key); f != nil {
			if err := m.v.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "bind flag %s", key)
			}
		}
	}
	return nil
}

// Load reads the configuration. On any error the previously loaded
// configuration stays.
func (m *viperManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path != "" {
		if err := m.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", m.path)
		}
	}
	cfg, err := m.decode()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

func (m *viperManager) decode() (*Config, error) {
	cfg := &Config{}
	if err := m.v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func (m *viperManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Watch calls onChange with every valid configuration read after the file
// changes. Invalid edits are skipped. Does nothing without a config file.
func (m *viperManager) Watch(onChange func(newConfig *Config)) {
	if m.path == "" {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		m.mu.Lock()
		cfg, err := m.decode()
		if err == nil {
			m.config = cfg
		}
		m.mu.Unlock()
		if err == nil && onChange != nil {
			onChange(cfg)
		}
	})
	m.v.WatchConfig()
}

/////////////////////////////////////////////////////////////////////////////////////////

// Apply sets level and layout of l. Nothing is changed if cfg is invalid.
// Color sequences are stripped from the layout when colors are off, or in
// auto mode when the logger sink is not a terminal.
func Apply(cfg *Config, l *log4g.Logger) error {
	level, layout, err := cfg.parse()
	if err != nil {
		return err
	}
	if !wantColors(cfg.Color, l.Sink()) {
		layout = layout.WithoutColors()
	}
	if err := l.SetLevel(level); err != nil {
		return errors.Wrap(err, "level")
	}
	l.SetLayout(layout)
	return nil
}

func wantColors(mode string, sink log4g.Sink) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return log4g.IsTerminal(sink)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// BuildSink creates the sink named by cfg.Output. With a positive cfg.Queue
// the sink is wrapped into a started log4g.Queue reporting failures to
// stderr. The returned closer stops the queue (waiting for queued lines) and
// closes the file, if any.
func BuildSink(cfg *Config, stdout, stderr io.Writer) (log4g.Sink, io.Closer, error) {
	var (
		sink    log4g.Sink
		closers []io.Closer
	)
	switch cfg.Output {
	case OutputStdout:
		sink = log4g.NewWriterSink(stdout)
	case OutputStderr, "":
		sink = log4g.NewWriterSink(stderr)
	default:
		file, err := log4g.NewFileSink(cfg.Output)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open output %s", cfg.Output)
		}
		sink = file
		closers = append(closers, file)
	}
	if cfg.Queue > 0 {
		q := log4g.StartQueue(sink, cfg.Queue, stderr)
		sink = q
		// stop the queue before the file is closed
		closers = append([]io.Closer{closerFunc(func() error { q.StopAndWait(); return nil })}, closers...)
	}
	return sink, closerFunc(func() error {
		var merr *multierror.Error
		for _, c := range closers {
			if err := c.Close(); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
		return merr.ErrorOrNil()
	}), nil
}
