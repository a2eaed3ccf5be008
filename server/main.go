package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sreenadh34/biznavigate-backend-sub002/action"
	"github.com/sreenadh34/biznavigate-backend-sub002/analytics"
	"github.com/sreenadh34/biznavigate-backend-sub002/config"
	"github.com/sreenadh34/biznavigate-backend-sub002/server/agent"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "biznavigate", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for operator endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().String("analytics-file", "activity.log", "file for activity records")
	cmd.Flags().Int("max-retry-attempts", 3, "retry attempts before dead letter")
	cmd.Flags().IntSlice("retry-delays", []int{1, 5, 15}, "retry backoff table in seconds")
	cmd.Flags().Int("dedup-ttl", 86400, "idempotency ledger ttl in seconds")
	cmd.Flags().Int("max-iterations", 50, "workflow iteration ceiling")
	cmd.Flags().Int("breaker-failure-threshold", 5, "failures before a circuit opens")
	cmd.Flags().Int("breaker-success-threshold", 2, "half open successes before a circuit closes")
	cmd.Flags().Int("breaker-open-timeout", 30, "open circuit timeout in seconds")
	cmd.Flags().Int("breaker-window", 60, "failure monitoring window in seconds")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.LogLevel = viper.GetString("log-level")
	c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{
		FileName:      viper.GetString("analytics-file"),
		CollectorType: analytics.LOG_FILE_DATA_COLLECTOR,
	}
	c.cfg.MaxRetryAttempts = viper.GetInt("max-retry-attempts")
	c.cfg.RetryDelaySeconds = viper.GetIntSlice("retry-delays")
	c.cfg.DedupTTLSeconds = viper.GetInt("dedup-ttl")
	c.cfg.MaxIterations = viper.GetInt("max-iterations")
	c.cfg.BreakerFailureThreshold = viper.GetInt("breaker-failure-threshold")
	c.cfg.BreakerSuccessThreshold = viper.GetInt("breaker-success-threshold")
	c.cfg.BreakerOpenTimeoutSeconds = viper.GetInt("breaker-open-timeout")
	c.cfg.BreakerWindowSeconds = viper.GetInt("breaker-window")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	// collaborators default to no-ops; real channel, persistence and
	// notification clients are injected by the hosting deployment
	agent, err := agent.New(c.cfg.Config, action.Collaborators{}, nil, nil)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "biznavigate-core",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
