// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/observability"
	"github.com/xkilldash9x/reachout-cli/internal/orchestrator"
	"github.com/xkilldash9x/reachout-cli/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRunFailed is returned after a failed status has been emitted, so the
// process exits non-zero.
var ErrRunFailed = errors.New("run failed")

type runOptions struct {
	input string
	url   string
}

func newRunCmd(root *rootOptions, factory service.ComponentFactory) *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Find, fill and submit the contact form of one site",
		Long: `Reads one JSON target from stdin (or --input) and prints one JSON status
line on stdout: {"status":"success"|"not_found"|"failed","url":...,"submitted":...}.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := root.v.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return root.v.BindPFlag("browser.driver", cmd.Flags().Lookup("driver"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReachout(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), root, opts, factory)
		},
	}

	runCmd.Flags().StringVarP(&opts.input, "input", "i", "", "read the target JSON from this file instead of stdin")
	runCmd.Flags().StringVar(&opts.url, "url", "", "override the target's startUrl")
	runCmd.Flags().Bool("headless", true, "run the browser without a window")
	runCmd.Flags().String("driver", config.DriverChromedp, "browser backend: chromedp or rod")
	return runCmd
}

// runReachout executes one run. Whatever happens, exactly one status line is
// written to out.
func runReachout(ctx context.Context, in io.Reader, out io.Writer, root *rootOptions, opts *runOptions, factory service.ComponentFactory) error {
	logger := observability.GetLogger()

	target, err := readTarget(in, opts.input)
	if opts.url != "" {
		target.StartURL = strings.TrimSpace(opts.url)
	}
	if err != nil {
		return emit(out, orchestrator.FailedResult(target.StartURL, err))
	}

	cfg, err := config.NewConfigFromViper(root.v)
	if err != nil {
		logger.Error("Invalid configuration.", zap.Error(err))
		return emit(out, orchestrator.FailedResult(target.StartURL, err))
	}

	components, err := factory.Create(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize components.", zap.Error(err))
		return emit(out, orchestrator.FailedResult(target.StartURL, err))
	}
	defer components.Shutdown()

	return emit(out, components.Pipeline.Run(ctx, target))
}

// readTarget decodes the target from path, or from in when path is empty.
func readTarget(in io.Reader, path string) (schemas.Target, error) {
	var target schemas.Target

	if path == "" && isTerminal(in) {
		// Nothing is piped in; --url alone describes the target.
		return target, nil
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return target, fmt.Errorf("%w: cannot open input: %w", schemas.ErrInvalidConfig, err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return target, fmt.Errorf("%w: cannot read input: %w", schemas.ErrInvalidConfig, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		// An empty input is allowed when --url supplies the start page.
		return target, nil
	}
	if err := json.Unmarshal(data, &target); err != nil {
		return target, fmt.Errorf("%w: input is not a valid target object: %w", schemas.ErrInvalidConfig, err)
	}
	target.StartURL = strings.TrimSpace(target.StartURL)
	return target, nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// emit writes the status line and maps a failed status onto ErrRunFailed.
func emit(out io.Writer, result schemas.RunResult) error {
	if err := json.NewEncoder(out).Encode(result); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	if result.Status == schemas.StatusFailed {
		return ErrRunFailed
	}
	return nil
}
