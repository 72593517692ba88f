package cmd

import (
	"fmt"
	"strings"

	"github.com/ostafen/volmap/internal/env"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const AppName = env.AppName

func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Every flag can also be set through
// a VOLMAP_<FLAG> environment variable or the file given with --config.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - partition layout analysis of disk images",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cmd)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("log-level", "WARN", "minimum log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("config", "", "configuration file (yaml, toml or json)")

	rootCmd.AddCommand(
		DefineListCommand(v),
		DefineReportCommand(v),
		DefineVerifyCommand(v),
		DefineTypesCommand(),
		DefineMountCommand(v),
	)
	return rootCmd
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}
	return nil
}
