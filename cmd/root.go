package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pitstop-ai/pitsim/sim"
)

const envPrefix = "PITSIM"

var (
	cfgFile       string // viper config file for CLI settings
	simConfigPath string // simulation model YAML
	logLevel      string // Log verbosity level
	seed          int64  // Top-level seed of every simulation
	lapsPath      string // Lap table: CSV file or SQLite database
	race          string // Race key inside a SQLite lap database
	parallelism   int    // Candidates simulated concurrently
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pitsim",
	Short: "Monte Carlo pit-strategy simulator",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pitsim.yml)")
	rootCmd.PersistentFlags().StringVar(&simConfigPath, "sim-config", "", "Simulation model YAML (pit loss, degradation, noise, target model)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", sim.DefaultSeed, "Seed for all Monte Carlo trials")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBurstCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
}

// addLapFlags registers the lap-table flags shared by several commands.
func addLapFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lapsPath, "laps", "data/synth_race.csv", "Lap table: CSV (lap, base_pace_s) or SQLite database")
	cmd.Flags().StringVar(&race, "race", "default", "Race key when --laps is a SQLite database")
	cmd.Flags().IntVar(&parallelism, "parallel", 1, "Number of candidates simulated concurrently")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pitsim")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.Infof("Using config file: %s", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --cache-ttl to PITSIM_CACHE_TTL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				logrus.Warnf("Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				logrus.Warnf("Could not set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
