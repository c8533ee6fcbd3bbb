package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/cadastro/internal/cep"
	"github.com/lepinkainen/cadastro/internal/cnpj"
	"github.com/lepinkainen/cadastro/internal/config"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

// Manager constructors, swapped out for stubs in tests.
var (
	newCEPManager  = cep.NewManager
	newCNPJManager = cnpj.NewManager
)

// CLI represents the complete command structure for the cadastro application
type CLI struct {
	// Cache flags
	CacheBackend string `help:"Cache backend for lookup results: none, memory, sqlite or redis (default: cache.backend from config)"`
	CacheDBFile  string `help:"Path to the cache SQLite database file (default: cache.dbfile from config)"`
	CacheTTL     string `help:"Cache time-to-live duration, e.g. 720h for 30 days (default: cache.ttl from config)"`
	RedisAddr    string `help:"Redis server address for the redis cache backend (default: cache.redis.addr from config)"`

	// Lookup flags
	PoolSize int `help:"Maximum concurrent provider requests per lookup (default: lookup.pool_size from config)"`

	Cep     CepCmd     `cmd:"" help:"Look up Brazilian postal codes (CEP)"`
	Cnpj    CnpjCmd    `cmd:"" help:"Look up companies in the Brazilian CNPJ registry"`
	Drivers DriversCmd `cmd:"" help:"List the registered lookup drivers"`
	Cache   CacheCmd   `cmd:"" help:"Inspect or clear the lookup result cache"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	// Create CLI instance
	var cli CLI

	// Parse command line with Kong
	ctx := kong.Parse(&cli,
		kong.Name("cadastro"),
		kong.Description("Query Brazilian postal codes (CEP) and company registrations (CNPJ) across public providers."),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	// Execute the selected command
	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Cache defaults
	viper.SetDefault("cache.backend", "none")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days
	viper.SetDefault("cache.redis.addr", "localhost:6379")

	// Lookup defaults
	viper.SetDefault("lookup.timeout", "10s")
	viper.SetDefault("lookup.pool_size", 5)
	viper.SetDefault("lookup.bulk_concurrency", 4)
	viper.SetDefault("http.user_agent", "cadastro/1.0")

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind specific environment variables to config keys
	if err := viper.BindEnv("cache.redis.addr", "CADASTRO_REDIS_ADDR"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No settings are mandatory, so a fresh install keeps going
			// with defaults after materializing the config file.
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	// Flags override the config file only when actually provided
	if cli.CacheBackend != "" {
		viper.Set("cache.backend", cli.CacheBackend)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
	if cli.RedisAddr != "" {
		viper.Set("cache.redis.addr", cli.RedisAddr)
	}

	config.SetPoolSize(cli.PoolSize)
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("CADASTRO_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	// Create a human-readable handler for logging. Logs go to stderr so
	// rendered lookup results stay parseable on stdout.
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
