// Package cmd holds the cwkeyer command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwkeyer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "cwkeyer",
	Short: "Straight-key Morse keyer with a serial peer link",
	Long: `Reads a straight key, classifies each press as a dot or dash at the
configured speed and streams the growing transcript over a serial line.
The peer can take over in remote mode to clear the buffer or have
characters played back on the sidetone.`,
	SilenceUsage: true,
	RunE:         runKeyer,
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"port":  "serial_port",
	"baud":  "baud_rate",
	"wpm":   "wpm",
	"key":   "key_source",
	"debug": "debug",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().StringP("port", "p", "", "serial device for the peer link")
	rootCmd.PersistentFlags().IntP("baud", "b", 9600, "serial baud rate")
	rootCmd.PersistentFlags().IntP("wpm", "w", 10, "keying speed in words per minute")
	rootCmd.PersistentFlags().StringP("key", "k", config.KeySourceSerial, "key source: serial or audio")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	rootCmd.AddCommand(historyCmd, devicesCmd)
}

// bindFlags binds flags to viper. Only flags set on the command line
// override the config file.
func bindFlags() {
	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
