package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sentinelops/autopilot/agent"
	"github.com/sentinelops/autopilot/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cli struct {
	cfg config.Config
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "memory", "implementation of underline storage")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "autopilot", "namespace used in storage")
	cmd.Flags().Int("executor-capacity", 512, "action executor capacity")
	cmd.Flags().Duration("avg-step-duration", 30*time.Second, "average step duration used for estimates")
	cmd.Flags().Duration("poll-interval", time.Second, "scheduler poll interval")
	cmd.Flags().Int("schedule-max-retries", 3, "max retries for failed schedule triggers")
	cmd.Flags().Float64("scale-up-threshold", 80, "cpu/memory percent above which to scale up")
	cmd.Flags().Float64("scale-down-threshold", 30, "cpu/memory percent below which to scale down")
	cmd.Flags().Duration("scale-cooldown", 5*time.Minute, "cooldown between scale actions per resource")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
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

	c.cfg = config.Default()
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.ExecutorCapacity = viper.GetInt("executor-capacity")
	c.cfg.AvgStepDuration = viper.GetDuration("avg-step-duration")
	c.cfg.Scheduler.PollInterval = viper.GetDuration("poll-interval")
	c.cfg.Scheduler.MaxRetries = viper.GetInt("schedule-max-retries")
	c.cfg.Scaling.ScaleUpThreshold = viper.GetFloat64("scale-up-threshold")
	c.cfg.Scaling.ScaleDownThreshold = viper.GetFloat64("scale-down-threshold")
	c.cfg.Scaling.Cooldown = viper.GetDuration("scale-cooldown")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	agent, err := agent.New(c.cfg)
	if err != nil {
		return err
	}
	if err := agent.Start(); err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "autopilot",
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
