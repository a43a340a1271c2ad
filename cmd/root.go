package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "matchengine"
)

// Config is the full engine configuration, read from matchengine.yaml or the
// file passed via --config.
type Config struct {
	Server *ServerConfig `mapstructure:"server"`
	Store  *StoreConfig  `mapstructure:"store"`
	Cache  *CacheConfig  `mapstructure:"cache"`
	Auth   *AuthConfig   `mapstructure:"auth"`
	AI     *AIConfig     `mapstructure:"ai"`
	Bulk   *BulkConfig   `mapstructure:"bulk"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StoreConfig struct {
	// Backend selects "memory" or "postgres".
	Backend     string `mapstructure:"backend"`
	DatabaseURL string `mapstructure:"database-url"`
}

type CacheConfig struct {
	// Backend selects "memory" or "redis".
	Backend    string `mapstructure:"backend"`
	RedisURL   string `mapstructure:"redis-url"`
	TTLMinutes int    `mapstructure:"ttl-minutes"`
}

type AuthConfig struct {
	JWTSecretFile string `mapstructure:"jwt-secret-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	TimeoutSeconds int    `mapstructure:"timeout-seconds"`
}

type BulkConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval-minutes"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "matchengine scores candidates against jobs and serves discovery for the recruiting platform",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("auth.jwt-secret-file", "JWT_SECRET_FILE"); err != nil {
		log.Fatalf("binding JWT_SECRET_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchengine.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the serve command.
	if serveCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, nil
}
