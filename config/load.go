package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"backtest-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string             `yaml:"env"`
	Log         logger.Config      `yaml:"log"`
	Metrics     MetricsConfig      `yaml:"metrics"`
	Data        DataConfig         `yaml:"data"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	Strategies  []StrategyConfig   `yaml:"strategies"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 为空时不启动 /metrics
}

// DataConfig 历史行情来源。InputMinutes/OutputMinutes 都大于 0 时在加载后合并 bar。
type DataConfig struct {
	Path          string `yaml:"path"`
	Format        string `yaml:"format"` // tradestation | ticks
	InputMinutes  int    `yaml:"inputMinutes"`
	OutputMinutes int    `yaml:"outputMinutes"`
}

// Consolidate 是否需要合并 bar
func (d DataConfig) Consolidate() bool {
	return d.InputMinutes > 0 && d.OutputMinutes > 0 && d.InputMinutes != d.OutputMinutes
}

type InstrumentConfig struct {
	Symbol        string  `yaml:"symbol"`
	Exchange      string  `yaml:"exchange"`
	Type          string  `yaml:"type"` // stock | futures
	Expiry        string  `yaml:"expiry"`
	BigPointValue float64 `yaml:"bigPointValue"`
}

// StrategyConfig 单个策略实例；Instrument 引用 instruments 中的 symbol。
type StrategyConfig struct {
	Name       string  `yaml:"name"`
	Kind       string  `yaml:"kind"`
	Instrument string  `yaml:"instrument"`
	FastPeriod int     `yaml:"fastPeriod"`
	SlowPeriod int     `yaml:"slowPeriod"`
	Size       float64 `yaml:"size"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from env vars.
// 优先级：进程环境变量 > 配置文件同目录下的 .env > YAML。
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	// .env 可选，不存在时忽略
	dotenv, _ := godotenv.Read(filepath.Join(filepath.Dir(path), ".env"))
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if v := lookup("BT_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := lookup("BT_DATA_FORMAT"); v != "" {
		cfg.Data.Format = v
	}
	if v := lookup("BT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := lookup("BT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := lookup("BT_OUTPUT_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("BT_OUTPUT_MINUTES: %w", err)
		}
		cfg.Data.OutputMinutes = n
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	if cfg.Data.Path == "" {
		return ErrInvalid("data.path is required")
	}
	switch strings.ToLower(cfg.Data.Format) {
	case "", "tradestation", "ticks", "tick":
	default:
		return ErrInvalid(fmt.Sprintf("data.format %q not supported", cfg.Data.Format))
	}
	if cfg.Data.InputMinutes < 0 || cfg.Data.OutputMinutes < 0 {
		return ErrInvalid("data.inputMinutes/outputMinutes must be >= 0")
	}
	if cfg.Data.Consolidate() && cfg.Data.OutputMinutes%cfg.Data.InputMinutes != 0 {
		return ErrInvalid(fmt.Sprintf("data.outputMinutes (%d) must be a multiple of inputMinutes (%d)",
			cfg.Data.OutputMinutes, cfg.Data.InputMinutes))
	}
	if len(cfg.Instruments) == 0 {
		return ErrInvalid("instruments config is required")
	}
	// 只有一个 data.path 行情源，所有挂单都按这一条价格序列撮合
	if len(cfg.Instruments) > 1 {
		return ErrInvalid(fmt.Sprintf("one data feed supports exactly one instrument, got %d", len(cfg.Instruments)))
	}
	symbols := make(map[string]bool, len(cfg.Instruments))
	for _, ic := range cfg.Instruments {
		if ic.Symbol == "" {
			return ErrInvalid("instrument symbol is required")
		}
		if symbols[ic.Symbol] {
			return ErrInvalid(fmt.Sprintf("instrument %s declared twice", ic.Symbol))
		}
		symbols[ic.Symbol] = true
		switch strings.ToLower(ic.Type) {
		case "", "stock":
		case "futures":
			if ic.BigPointValue <= 0 {
				return ErrInvalid(fmt.Sprintf("instrument %s bigPointValue must be > 0", ic.Symbol))
			}
		default:
			return ErrInvalid(fmt.Sprintf("instrument %s type %q not supported", ic.Symbol, ic.Type))
		}
	}
	if len(cfg.Strategies) == 0 {
		return ErrInvalid("strategies config is required")
	}
	for i, sc := range cfg.Strategies {
		if sc.Kind == "" {
			return ErrInvalid(fmt.Sprintf("strategies[%d].kind is required", i))
		}
		if !symbols[sc.Instrument] {
			return ErrInvalid(fmt.Sprintf("strategies[%d] references unknown instrument %q", i, sc.Instrument))
		}
		if sc.Size <= 0 {
			return ErrInvalid(fmt.Sprintf("strategies[%d].size must be > 0", i))
		}
	}
	return nil
}

// ErrInvalid 配置校验失败。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }
