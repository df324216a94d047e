package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Quality  QualityConfig  `yaml:"quality" mapstructure:"quality"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy" mapstructure:"taxonomy"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the snapshot store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NotionConfig holds Notion API credentials and query tuning.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	PageSize  int     `yaml:"page_size" mapstructure:"page_size"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// QualityConfig holds the source quality filter knobs. All of them are
// deployment-specific and stay injectable, never hard-coded.
type QualityConfig struct {
	// MinContactPct is the contact-completeness floor (percent) below which
	// a source is rejected outright.
	MinContactPct float64 `yaml:"min_contact_pct" mapstructure:"min_contact_pct"`
	// SmallBatchSize and SmallBatchContactPct raise the bar for small
	// sources: fewer leads than SmallBatchSize AND completeness below
	// SmallBatchContactPct rejects the source.
	SmallBatchSize       int     `yaml:"small_batch_size" mapstructure:"small_batch_size"`
	SmallBatchContactPct float64 `yaml:"small_batch_contact_pct" mapstructure:"small_batch_contact_pct"`
	// ExcludedOwners are exact-match (accent-insensitive) owner labels to
	// drop, typically upstream-generated duplicate pages.
	ExcludedOwners []string `yaml:"excluded_owners" mapstructure:"excluded_owners"`
	// ProblematicOwners are substring-matched labels known to carry junk.
	ProblematicOwners []string `yaml:"problematic_owners" mapstructure:"problematic_owners"`
}

// TaxonomyConfig holds the status taxonomy plus an optional standalone file
// that overrides it (see LoadTaxonomyFile).
type TaxonomyConfig struct {
	Statuses   []string `yaml:"statuses" mapstructure:"statuses"`
	Conversion []string `yaml:"conversion" mapstructure:"conversion"`
	Lost       []string `yaml:"lost" mapstructure:"lost"`
	InProgress []string `yaml:"in_progress" mapstructure:"in_progress"`
	File       string   `yaml:"file" mapstructure:"file"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "crm-funnel.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	// Registering a default (even empty) makes the key visible to Unmarshal,
	// which is what lets FUNNEL_NOTION_TOKEN come in from the environment.
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.page_size", 100)
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("taxonomy.file", "")
	v.SetDefault("quality.min_contact_pct", 30.0)
	v.SetDefault("quality.small_batch_size", 50)
	v.SetDefault("quality.small_batch_contact_pct", 50.0)
	v.SetDefault("quality.excluded_owners", []string{
		"CRM ANA LUÍSA NEVES (1)",
		"CRM ANA LUISA NEVES (1)",
	})
	v.SetDefault("quality.problematic_owners", []string{
		"ANA LUÍSA NEVES (1)",
		"ANA LUISA NEVES (1)",
	})
	v.SetDefault("taxonomy.statuses", []string{
		"CONVERSANDO",
		"ABORDAGEM 1",
		"ABORDAGEM 2",
		"ABORDAGEM 3",
		"NÃO TEM INTERESSE",
		"NÃO RESPONDE +",
		"AGUARDANDO PAGAMENTO",
		"VENDA",
		"NÃO OFERTAMOS O CURSO",
	})
	v.SetDefault("taxonomy.conversion", []string{"VENDA", "AGUARDANDO PAGAMENTO"})
	v.SetDefault("taxonomy.lost", []string{"NÃO TEM INTERESSE", "NÃO RESPONDE +", "NÃO OFERTAMOS O CURSO"})
	v.SetDefault("taxonomy.in_progress", []string{"CONVERSANDO", "ABORDAGEM 1", "ABORDAGEM 2", "ABORDAGEM 3"})

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

// Validate checks that the named command's required settings are present.
func (c *Config) Validate(command string) error {
	switch command {
	case "sync", "sources":
		if c.Notion.Token == "" {
			return eris.New("config: notion.token is required (set FUNNEL_NOTION_TOKEN)")
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
		}
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required")
		}
	}
	return nil
}

// ResolveTaxonomy builds the taxonomy injected into the pipeline: the
// inline configuration, or the standalone file when taxonomy.file is set.
func (c *Config) ResolveTaxonomy() (model.Taxonomy, error) {
	if c.Taxonomy.File != "" {
		return LoadTaxonomyFile(c.Taxonomy.File)
	}
	return model.Taxonomy{
		Statuses:   c.Taxonomy.Statuses,
		Conversion: c.Taxonomy.Conversion,
		Lost:       c.Taxonomy.Lost,
		InProgress: c.Taxonomy.InProgress,
	}, nil
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
