package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	configs "github.com/tokenlens/burnwatch/configs"
	customLogger "github.com/tokenlens/burnwatch/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "burnwatch",
		Short: "Burn-metrics aggregation engine",
		Long:  "Serves per-token burn volumes over trailing time windows, computed from on-chain transfer logs",
		Run: func(cmd *cobra.Command, args []string) {
			RunAll(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC URL to read chain data from")
	rootCmd.PersistentFlags().Int("rpc-max-retries", 0, "Max attempts per RPC call before giving up")
	rootCmd.PersistentFlags().Int("rpc-retry-base-delay", 0, "Base backoff delay in milliseconds, doubled per attempt")
	rootCmd.PersistentFlags().Int("rpc-call-timeout", 0, "Per-call timeout in milliseconds")
	rootCmd.PersistentFlags().Int("rpc-call-delay", 0, "Fixed delay in milliseconds after every RPC call")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().Int("api-port", 3000, "Port for the HTTP API")
	rootCmd.PersistentFlags().Int("runner-workers", 0, "Number of background recomputation workers")
	rootCmd.PersistentFlags().Int("runner-queue-size", 0, "Capacity of the recomputation job queue")
	rootCmd.PersistentFlags().Int("runner-refresh-interval", 0, "Seconds between registry refresh scans in runner-only mode")
	rootCmd.PersistentFlags().String("storage-redis-addr", "", "Redis address for the burn metrics store")
	rootCmd.PersistentFlags().String("storage-redis-password", "", "Redis password for the burn metrics store")
	rootCmd.PersistentFlags().Int("storage-redis-db", 0, "Redis database for the burn metrics store")
	viper.BindPFlag("rpc.url", rootCmd.PersistentFlags().Lookup("rpc-url"))
	viper.BindPFlag("rpc.maxRetries", rootCmd.PersistentFlags().Lookup("rpc-max-retries"))
	viper.BindPFlag("rpc.retryBaseDelayMs", rootCmd.PersistentFlags().Lookup("rpc-retry-base-delay"))
	viper.BindPFlag("rpc.callTimeoutMs", rootCmd.PersistentFlags().Lookup("rpc-call-timeout"))
	viper.BindPFlag("rpc.callDelayMs", rootCmd.PersistentFlags().Lookup("rpc-call-delay"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("api.port", rootCmd.PersistentFlags().Lookup("api-port"))
	viper.BindPFlag("runner.workers", rootCmd.PersistentFlags().Lookup("runner-workers"))
	viper.BindPFlag("runner.queueSize", rootCmd.PersistentFlags().Lookup("runner-queue-size"))
	viper.BindPFlag("runner.refreshIntervalSeconds", rootCmd.PersistentFlags().Lookup("runner-refresh-interval"))
	viper.BindPFlag("storage.redis.addr", rootCmd.PersistentFlags().Lookup("storage-redis-addr"))
	viper.BindPFlag("storage.redis.password", rootCmd.PersistentFlags().Lookup("storage-redis-password"))
	viper.BindPFlag("storage.redis.db", rootCmd.PersistentFlags().Lookup("storage-redis-db"))
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(runnerCmd)
}

func initConfig() {
	configs.LoadConfig(cfgFile)
	customLogger.InitLogger()
}
