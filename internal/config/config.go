package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/limaJavier/ilpenum/pkg/enumerate"
	"github.com/limaJavier/ilpenum/pkg/results"
	"github.com/limaJavier/ilpenum/pkg/solver"
)

const FileName = "config.json"

var LogBackends = []string{"console", "glog"}

type Config struct {
	Solver           string            `mapstructure:"solver"`
	GurobiPath       string            `mapstructure:"gurobiPath"`
	GurobiParameters map[string]string `mapstructure:"gurobiParameters"`
	Workspace        string            `mapstructure:"workspace"`
	Force            bool              `mapstructure:"force"`
	Minimum          int64             `mapstructure:"minimum"`
	Quiet            bool              `mapstructure:"quiet"`
	ResultFile       string            `mapstructure:"resultFile"`
	ResultFormat     string            `mapstructure:"resultFormat"`
	MaxSolutions     int               `mapstructure:"maxSolutions"`
	Strategy         string            `mapstructure:"strategy"`
	PoolSize         int               `mapstructure:"poolSize"`
	Timeout          time.Duration     `mapstructure:"timeout"`
	LogBackend       string            `mapstructure:"logBackend"`
	Color            bool              `mapstructure:"color"`
}

func Default() Config {
	return Config{
		Solver:       "gurobi",
		GurobiPath:   "gurobi_cl",
		ResultFormat: string(results.Summary),
		Strategy:     string(enumerate.Single),
		PoolSize:     enumerate.DefaultPoolSize,
		LogBackend:   "console",
		Color:        true,
	}
}

// Load reads a JSON config file over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	config := Default()
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read config file %q", path)
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Config{}, errors.Wrapf(err, "cannot parse config file %q", path)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true, // Allows numeric gurobi parameters such as "Threads": 4
		ErrorUnused:      true,
		Result:           &config,
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "cannot build config decoder")
	}
	if err := decoder.Decode(inputJson); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config file %q", path)
	}
	return config, nil
}

// Locate returns the config file next to the executable, if there is one
func Locate() (string, bool) {
	executable, err := os.Executable()
	if err != nil {
		return "", false
	}
	path := filepath.Join(filepath.Dir(executable), FileName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (config Config) Validate() error {
	if !slices.Contains(solver.Names(), config.Solver) {
		return errors.Errorf("%v is not a valid solver, available solvers are %v", config.Solver, solver.Names())
	} else if !slices.Contains(enumerate.Strategies, enumerate.Strategy(config.Strategy)) {
		return errors.Errorf("%v is not a valid strategy, available strategies are %v", config.Strategy, enumerate.Strategies)
	} else if !slices.Contains(results.Formats, results.Format(config.ResultFormat)) {
		return errors.Errorf("%v is not a valid result format, available formats are %v", config.ResultFormat, results.Formats)
	} else if !slices.Contains(LogBackends, config.LogBackend) {
		return errors.Errorf("%v is not a valid log backend, available backends are %v", config.LogBackend, LogBackends)
	} else if config.PoolSize <= 0 {
		return errors.Errorf("pool size must be positive: %v", config.PoolSize)
	} else if config.MaxSolutions < 0 {
		return errors.Errorf("the number of solutions cannot be negative: %v", config.MaxSolutions)
	} else if config.Timeout < 0 {
		return errors.Errorf("timeout cannot be negative: %v", config.Timeout)
	} else if config.Solver == "gurobi" && config.GurobiPath == "" {
		return errors.New("gurobiPath cannot be empty when using gurobi")
	}
	return nil
}
