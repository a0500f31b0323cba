package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eclipse-sequencer/internal/adapter/secondary/clock"
	"eclipse-sequencer/internal/adapter/secondary/notify"
	"eclipse-sequencer/internal/adapter/secondary/repository"
	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/usecase"
)

// newInspector builds a use case for commands that never wait or shoot.
func newInspector(cmd *cobra.Command) (usecase.SequencerUseCase, error) {
	cam, err := newCamera(settings)
	if err != nil {
		return nil, err
	}
	return usecase.NewSequencerUseCase(cam, notify.NewConsole(cmd.ErrOrStderr()), clock.NewSystem(), nil, usecase.DefaultOptions()), nil
}

func newCheckCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Compare the camera status with the Verif line",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, &settings)
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			seq, _, err := loadSequence(args)
			if err != nil {
				return err
			}
			uc, err := newInspector(cmd)
			if err != nil {
				return err
			}

			verdict, status, err := uc.Check(seq)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Camera: %s\n", status.Model)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tEXPECTED\tACTUAL\tRESULT")
			for _, c := range verdict.Checks {
				result := "-"
				if c.Checked {
					result = "ok"
					if !c.Passed {
						result = "FAIL"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Field, c.Expected, c.Actual, result)
			}
			tw.Flush()

			if seq.VerifErr != nil {
				return fmt.Errorf("%w: %w", domain.ErrPreflightRejected, seq.VerifErr)
			}
			if seq.Verification == nil {
				fmt.Fprintln(out, "No Verif line: the sequence runs without pre-flight checks.")
				return nil
			}
			if !verdict.Go {
				return fmt.Errorf("%w: %s", domain.ErrPreflightRejected, verdict.Reason)
			}
			fmt.Fprintln(out, "Configuration accepted.")
			return nil
		},
	}
	flags.registerCamera(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plan [file]",
		Short: "Print the resolved schedule without waiting",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, _, err := loadSequence(args)
			if err != nil {
				return err
			}
			uc, err := newInspector(cmd)
			if err != nil {
				return err
			}
			entries, err := uc.Plan(seq)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, w := range seq.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			printPlan(out, entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

func printPlan(w io.Writer, entries []domain.PlanEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tACTION\tTRIGGER\tWAKE\tEND\tINTERVAL\tSHOTS\tEXPOSURE")
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(tw, "%d\t%s\terror: %s\t\t\t\t\t\n", e.Line, e.Kind, e.Error)
			continue
		}
		end, interval := "-", "-"
		if e.HasEnd {
			end = e.End.String()
			interval = strconv.Itoa(e.Interval) + "s"
			if e.Clamped {
				interval += " (adjusted)"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.Line, e.Kind, e.Trigger, e.Wake, end, interval, e.Estimated, e.Exposure)
	}
	tw.Flush()
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <ref> <op> <HH:MM:SS> [file]",
		Short: "Resolve one reference and offset to a time of day",
		Example: `  eclipse-sequencer resolve C2 - 00:00:10
  eclipse-sequencer resolve - - 16:03:43`,
		Args: usageArgs(cobra.RangeArgs(3, 4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseClock(args[2])
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			ref := domain.Reference(args[0])
			var timings domain.EclipseTimings
			if ref != domain.RefAbsolute {
				seq, _, err := loadSequence(args[3:])
				if err != nil {
					return err
				}
				if seq.Timings == nil {
					return domain.ErrMissingTimings
				}
				timings = *seq.Timings
			}

			spec := domain.TimeSpec{Op: domain.Operator(args[1]), Offset: offset}
			t, err := domain.NewSequenceService().Resolve(ref, spec, timings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d s)\n", t, int(t))
			return nil
		},
	}
}

// parseClock reads HH:MM:SS, H:M:S or plain seconds.
func parseClock(s string) (domain.SecondOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 1 && len(parts) != 3 {
		return 0, fmt.Errorf("time %q: want HH:MM:SS", s)
	}
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("time %q: want HH:MM:SS", s)
		}
		values[i] = v
	}
	if len(values) == 1 {
		return domain.SecondOfDay(values[0]), nil
	}
	return domain.HMS(values[0], values[1], values[2]), nil
}

func newStatusCmd() *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the report of the last run",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settings.ReportPath
			if reportPath != "" {
				path = reportPath
			}
			rf, err := repository.NewReportFile(path)
			if err != nil {
				return err
			}
			report, err := rf.Load()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "run report to read")
	return cmd
}
