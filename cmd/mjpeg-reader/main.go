package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MJPEG"

var rootCmd = &cobra.Command{
	Use:           "mjpeg-reader",
	Short:         "Pull JPEG frames out of an MJPEG camera stream",
	Version:       GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `mjpeg-reader connects to an IP camera serving multipart/x-mixed-replace,
extracts every JPEG frame and records or re-serves them. The connection is
re-established whenever the stream breaks.

Every flag can also be set in a YAML config file (--config) or through an
environment variable, e.g. MJPEG_URL or MJPEG_SERVE_LISTEN.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		if viper.GetBool("verbose") {
			log.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file path")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	addCameraFlags(flags)
}

// initConfig reads the optional config file and enables env overrides.
func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if configFile == "" {
		return nil
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	log.Debugf("Using config file %s", viper.ConfigFileUsed())
	return nil
}

func setupVersion() {
	rootCmd.SetVersionTemplate(GetVersionInfo() + "\n")
}

func main() {
	setupVersion()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
