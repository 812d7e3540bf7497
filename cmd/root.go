// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/observability"
	"github.com/xkilldash9x/reachout-cli/internal/service"
)

// envPrefix scopes the environment variables read by viper.
const envPrefix = "REACHOUT"

// rootOptions carries the state shared by every subcommand of one tree.
type rootOptions struct {
	cfgFile  string
	logLevel string
	v        *viper.Viper
}

// NewRootCommand builds a fresh command tree. Each tree owns its own viper
// instance so flags never leak between executions.
func NewRootCommand(factory service.ComponentFactory) *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:     "reachout",
		Short:   "Reachout finds a site's contact form, fills it and submits it.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(opts); err != nil {
				return err
			}

			var lc config.LoggerConfig
			if err := opts.v.UnmarshalKey("logger", &lc); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "reachout"})
				return fmt.Errorf("failed to unmarshal logger config: %w", err)
			}
			if opts.logLevel != "" {
				lc.Level = opts.logLevel
			}
			observability.InitializeLogger(lc)

			observability.GetLogger().Debug("Starting reachout", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.reachout/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logger.level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newRunCmd(opts, factory))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the production command tree.
func Execute(ctx context.Context) error {
	return NewRootCommand(service.NewComponentFactory()).ExecuteContext(ctx)
}

// initializeConfig loads .env, the optional config file and the environment
// into the tree's viper instance.
func initializeConfig(opts *rootOptions) error {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	v := opts.v
	config.SetDefaults(v)

	if opts.cfgFile != "" {
		path, err := homedir.Expand(opts.cfgFile)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".reachout"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}
