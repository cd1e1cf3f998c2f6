package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type RPCConfig struct {
	URL              string `mapstructure:"url"`
	ChainID          string `mapstructure:"chainId"`
	MaxRetries       int    `mapstructure:"maxRetries"`
	RetryBaseDelayMs int    `mapstructure:"retryBaseDelayMs"`
	CallTimeoutMs    int    `mapstructure:"callTimeoutMs"`
	CallDelayMs      int    `mapstructure:"callDelayMs"`
}

type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	Redis  *RedisConfig  `mapstructure:"redis"`
	Memory *MemoryConfig `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"poolSize"`
}

type MemoryConfig struct {
	MaxItems int `mapstructure:"maxItems"`
}

type FreshnessConfig struct {
	// TTLSeconds overrides the default per-window staleness TTLs,
	// keyed by window name ("5min" ... "24h").
	TTLSeconds map[string]int `mapstructure:"ttlSeconds"`
}

type BurnConfig struct {
	// SinkAddresses holds every recipient address treated as a burn sink.
	SinkAddresses []string `mapstructure:"sinkAddresses"`
}

type RunnerConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queueSize"`
	// RefreshIntervalSeconds drives the registry scan loop in runner-only
	// mode. Ignored when jobs come from the request path.
	RefreshIntervalSeconds int `mapstructure:"refreshIntervalSeconds"`
}

type TokenConfig struct {
	Symbol  string `mapstructure:"symbol"`
	Address string `mapstructure:"address"`
	ChainID uint64 `mapstructure:"chainId"`
}

type Config struct {
	RPC       RPCConfig       `mapstructure:"rpc"`
	Log       LogConfig       `mapstructure:"log"`
	API       APIConfig       `mapstructure:"api"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Freshness FreshnessConfig `mapstructure:"freshness"`
	Burn      BurnConfig      `mapstructure:"burn"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Tokens    []TokenConfig   `mapstructure:"tokens"`
}

var Cfg Config

func LoadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	}

	// sets e.g. RPC_URL to rpc.url
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}
