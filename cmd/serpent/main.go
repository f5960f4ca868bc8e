// Command serpent executes and inspects compiled code objects (.sbc files,
// the CBOR form produced by bytecode.Marshal).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:          "serpent",
		Short:        "Run and inspect compiled serpent bytecode",
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			processGlobalFlags()
		},
	}

	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
	root.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	viper.BindPFlag("no-color", root.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("serpent")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newRunCommand())
	root.AddCommand(newDisCommand())
	root.AddCommand(newDumpCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// processGlobalFlags applies flag and environment settings that affect all
// commands.
func processGlobalFlags() {
	if viper.GetBool("no-color") || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: color.NoColor,
	}).Level(level).With().Timestamp().Logger()
}
