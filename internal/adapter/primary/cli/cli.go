package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eclipse-sequencer/internal/adapter/secondary/repository"
	"eclipse-sequencer/internal/config"
	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/logging"
	"eclipse-sequencer/internal/version"
)

// ErrUsage marks bad flags or arguments.
var ErrUsage = errors.New("usage")

var (
	envFile   string
	verbosity int
	settings  config.Settings

	sequences domain.SequenceSource = repository.SequenceFile{}
)

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eclipse-sequencer",
		Short: "Run a solar eclipse photography sequence on a tethered camera",
		Long: `eclipse-sequencer reads a sequence file (SOLARECL.TXT), resolves every action
against the eclipse contact times C1, C2, Max, C3 and C4, and fires the camera
at the resolved times of day.`,
		Version:       version.FullVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path of an optional .env file")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase logging (-v, -vv, ... up to 4)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.SetVerbosity(verbosity)
		settings = config.Load(envFile)
		return nil
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newPlanCmd(),
		newResolveCmd(),
		newStatusCmd(),
		newShellCmd(),
		newVersionCmd(),
	)

	return cmd
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrInterrupted):
		return 130
	case errors.Is(err, ErrUsage):
		return 2
	case errors.Is(err, domain.ErrPreflightRejected):
		return 3
	case errors.Is(err, domain.ErrSequenceNotFound):
		return 4
	default:
		return 1
	}
}

// usageArgs tags positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

// loadSequence reads and decodes the sequence file named by args[0] or the
// configured default.
func loadSequence(args []string) (domain.Sequence, string, error) {
	path := settings.SequencePath
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}
	rows, err := sequences.ReadRows(path)
	if err != nil {
		return domain.Sequence{}, path, err
	}
	logging.Debugf("%s: %d rows", path, len(rows))
	return domain.DecodeRows(rows), path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print eclipse-sequencer version",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "eclipse-sequencer %s\n", version.FullVersion())
		},
	}
}
