package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"eclipse-sequencer/internal/adapter/primary/web"
	"eclipse-sequencer/internal/adapter/secondary/camera"
	"eclipse-sequencer/internal/adapter/secondary/clock"
	"eclipse-sequencer/internal/adapter/secondary/notify"
	"eclipse-sequencer/internal/adapter/secondary/repository"
	"eclipse-sequencer/internal/config"
	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/logging"
	"eclipse-sequencer/internal/usecase"
)

// runFlags are the per-run overrides of the environment settings.
type runFlags struct {
	camera     string
	gphoto2Bin string
	port       string
	profile    string
	testMode   bool
	strict     bool
	logFile    string
	report     string
	statusAddr string
	mqttBroker string
	mqttTopic  string
}

// registerCamera adds the flags that pick and configure the camera backend.
func (f *runFlags) registerCamera(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.camera, "camera", config.CameraSimulated, "camera backend (simulated|gphoto2)")
	fs.StringVar(&f.gphoto2Bin, "gphoto2-bin", "gphoto2", "gphoto2 binary")
	fs.StringVar(&f.port, "port", "", "gphoto2 port, e.g. usb:001,004")
	fs.StringVar(&f.profile, "profile", "", "YAML profile of the simulated camera")
}

func (f *runFlags) register(cmd *cobra.Command) {
	f.registerCamera(cmd)
	fs := cmd.Flags()
	fs.BoolVar(&f.testMode, "test-mode", false, "never trigger the shutter, whatever the Config line says")
	fs.BoolVar(&f.strict, "strict", false, "stop at the first failed action")
	fs.StringVar(&f.logFile, "log-file", "", "append a JSON log of the run to this file")
	fs.StringVar(&f.report, "report", "", "where to write the run report")
	fs.StringVar(&f.statusAddr, "status-addr", "", "serve the status page and /metrics on host:port")
	fs.StringVar(&f.mqttBroker, "mqtt-broker", "", "mirror notifications to this MQTT broker (tcp://host:1883)")
	fs.StringVar(&f.mqttTopic, "mqtt-topic", "", "MQTT topic for notifications")
}

// apply copies the flags the user set onto s. Unregistered flags are never
// reported as changed.
func (f *runFlags) apply(cmd *cobra.Command, s *config.Settings) {
	changed := cmd.Flags().Changed
	if changed("camera") {
		s.Camera = f.camera
	}
	if changed("gphoto2-bin") {
		s.GPhoto2Bin = f.gphoto2Bin
	}
	if changed("port") {
		s.GPhoto2Port = f.port
	}
	if changed("profile") {
		s.CameraProfile = f.profile
	}
	if changed("test-mode") {
		s.TestMode = f.testMode
	}
	if changed("strict") {
		s.Strict = f.strict
	}
	if changed("log-file") {
		s.LogFile = f.logFile
	}
	if changed("report") {
		s.ReportPath = f.report
	}
	if changed("status-addr") {
		s.StatusAddr = f.statusAddr
	}
	if changed("mqtt-broker") {
		s.MQTTBroker = f.mqttBroker
	}
	if changed("mqtt-topic") {
		s.MQTTTopic = f.mqttTopic
	}
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a sequence file",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, &settings)
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			logging.AtLeast(1)

			if settings.LogFile != "" {
				f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logging.SetFile(f)
				defer logging.SetFile(nil)
			}

			seq, path, err := loadSequence(args)
			if err != nil {
				return err
			}

			cam, err := newCamera(settings)
			if err != nil {
				return err
			}
			notifier, closeNotifier := newNotifier(settings, cmd.OutOrStdout())
			defer closeNotifier()

			var reports domain.ReportRepository
			if settings.ReportPath != "" {
				rf, err := repository.NewReportFile(settings.ReportPath)
				if err != nil {
					logging.Warnf("Run report disabled: %v", err)
				} else {
					reports = rf
				}
			}

			opts := usecase.DefaultOptions()
			opts.ForceTestMode = settings.TestMode
			opts.Strict = settings.Strict
			opts.Source = path
			uc := usecase.NewSequencerUseCase(cam, notifier, clock.NewSystem(), reports, opts)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if settings.StatusAddr != "" {
				srv := web.NewServer(uc, settings.StatusAddr)
				go func() {
					if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logging.Errorf("Status server: %v", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				logging.Infof("Status page: http://%s", settings.StatusAddr)
			}

			logging.Infof("Sequence %s: %d actions", path, len(seq.Steps))
			report, err := uc.Run(ctx, seq)
			printSummary(cmd.OutOrStdout(), report, settings.ReportPath)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newCamera(s config.Settings) (domain.Camera, error) {
	switch s.Camera {
	case config.CameraGPhoto2:
		opts := camera.DefaultGPhoto2Options()
		opts.Binary = s.GPhoto2Bin
		opts.Port = s.GPhoto2Port
		return camera.NewGPhoto2Camera(opts, nil), nil
	default:
		profile := camera.DefaultProfile()
		if s.CameraProfile != "" {
			p, err := camera.LoadProfile(s.CameraProfile)
			if err != nil {
				return nil, err
			}
			profile = p
		}
		logging.Infof("Simulated camera %s", profile.Model)
		return camera.NewSimulatedCamera(profile), nil
	}
}

// newNotifier always prints to w and mirrors to MQTT when a broker is set.
// An unreachable broker only costs the mirror.
func newNotifier(s config.Settings, w io.Writer) (domain.Notifier, func()) {
	console := notify.NewConsole(w)
	if s.MQTTBroker == "" {
		return console, func() {}
	}
	m, err := notify.NewMQTT(notify.MQTTConfig{
		Broker:   s.MQTTBroker,
		ClientID: s.MQTTClientID,
		Username: s.MQTTUsername,
		Password: s.MQTTPassword,
		Topic:    s.MQTTTopic,
		Source:   s.MQTTClientID,
	})
	if err != nil {
		logging.Warnf("MQTT notifications disabled: %v", err)
		return console, func() {}
	}
	return notify.Multi{console, m}, m.Close
}

func printSummary(w io.Writer, r domain.RunReport, reportPath string) {
	if r.RunID == "" {
		return
	}
	st := r.Stats
	mode := ""
	if r.TestMode {
		mode = " (test mode)"
	}
	fmt.Fprintf(w, "Run %s%s: %d completed, %d skipped, %d failed\n",
		r.RunID, mode, st.ActionsCompleted, st.ActionsSkipped, st.ActionsFailed)
	fmt.Fprintf(w, "Captures: %d fired, %d simulated, %d failed\n",
		st.CapturesFired, st.CapturesSimulated, st.CapturesFailed)
	if r.Aborted != "" {
		fmt.Fprintf(w, "Aborted: %s\n", r.Aborted)
	}
	if reportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", reportPath)
	}
}
