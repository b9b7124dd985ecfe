package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	World  WorldConfig  `yaml:"world" mapstructure:"world"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig sets the default column names of the input table.
type DataConfig struct {
	CodeCol  string `yaml:"code_col" mapstructure:"code_col"`
	ValueCol string `yaml:"value_col" mapstructure:"value_col"`
	LabelCol string `yaml:"label_col" mapstructure:"label_col"`
}

// RenderConfig holds the map styling defaults. CLI flags override them.
type RenderConfig struct {
	Projection   string  `yaml:"projection" mapstructure:"projection"`
	Colormap     string  `yaml:"cmap" mapstructure:"cmap"`
	Scheme       string  `yaml:"scheme" mapstructure:"scheme"`
	Classes      int     `yaml:"k" mapstructure:"k"`
	MissingColor string  `yaml:"missing_color" mapstructure:"missing_color"`
	EdgeColor    string  `yaml:"edge_color" mapstructure:"edge_color"`
	EdgeWidth    float64 `yaml:"edge_width" mapstructure:"edge_width"`
	Background   string  `yaml:"background" mapstructure:"background"`
	DPI          int     `yaml:"dpi" mapstructure:"dpi"`
	Width        float64 `yaml:"width" mapstructure:"width"`
	Height       float64 `yaml:"height" mapstructure:"height"`
	FormatValues string  `yaml:"format_values" mapstructure:"format_values"`
}

// WorldConfig selects the country geometry source. An empty path means the
// bundled low-resolution dataset.
type WorldConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	CodeField string `yaml:"code_field" mapstructure:"code_field"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHOROPLETH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("data.code_col", "iso_a3")
	v.SetDefault("data.value_col", "value")
	v.SetDefault("data.label_col", "label")
	v.SetDefault("render.projection", "Robinson")
	v.SetDefault("render.cmap", "viridis")
	v.SetDefault("render.scheme", "")
	v.SetDefault("render.k", 5)
	v.SetDefault("render.missing_color", "#EEEEEE")
	v.SetDefault("render.edge_color", "#FFFFFF")
	v.SetDefault("render.edge_width", 0.25)
	v.SetDefault("render.background", "#FFFFFF")
	v.SetDefault("render.dpi", 300)
	v.SetDefault("render.width", 12.0)
	v.SetDefault("render.height", 6.5)
	v.SetDefault("render.format_values", ".2f")
	v.SetDefault("world.path", "")
	v.SetDefault("world.code_field", "")
	v.SetDefault("world.name_field", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a render.
func (c *Config) Validate() error {
	var errs []string

	if c.Render.Classes < 1 {
		errs = append(errs, "render.k must be >= 1")
	}
	if c.Render.DPI <= 0 {
		errs = append(errs, "render.dpi must be > 0")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, "render.width and render.height must be > 0")
	}
	if c.Render.EdgeWidth < 0 {
		errs = append(errs, "render.edge_width must be >= 0")
	}
	if c.Data.CodeCol == "" || c.Data.ValueCol == "" {
		errs = append(errs, "data.code_col and data.value_col are required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
