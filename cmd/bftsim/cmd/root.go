package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagLogLevel string
	log          zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bftsim",
	Short: "Simulate a permissioned BFT network in a single process",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log = log.Level(level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cobra.OnInitialize(initConfig)
}

// flags can be overridden with BFTSIM_ environment variables, for example
// BFTSIM_VIEWS_PER_EPOCH=50
func initConfig() {
	viper.SetEnvPrefix("bftsim")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
