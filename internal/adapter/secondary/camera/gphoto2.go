package camera

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/logging"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// GPhoto2Options names the binary and the camera widgets to drive.
type GPhoto2Options struct {
	Binary        string
	Port          string
	Timeout       time.Duration
	ReleaseWidget string
	BatteryWidget string
	ModeWidget    string
	FocusWidget   string
	ModelWidget   string
}

// DefaultGPhoto2Options targets a Canon EOS body on the first detected port.
func DefaultGPhoto2Options() GPhoto2Options {
	return GPhoto2Options{
		Binary:        "gphoto2",
		Timeout:       30 * time.Second,
		ReleaseWidget: "eosremoterelease",
		BatteryWidget: "batterylevel",
		ModeWidget:    "autoexposuremode",
		FocusWidget:   "focusmode",
		ModelWidget:   "cameramodel",
	}
}

// GPhoto2Camera implements domain.Camera by shelling out to the gphoto2 CLI.
// This is a secondary adapter.
type GPhoto2Camera struct {
	opts   GPhoto2Options
	run    Runner
	dryRun atomic.Bool
}

var (
	_ domain.Camera       = (*GPhoto2Camera)(nil)
	_ domain.DryRunCamera = (*GPhoto2Camera)(nil)
)

// NewGPhoto2Camera creates a gphoto2 backed camera. A nil runner uses os/exec.
func NewGPhoto2Camera(opts GPhoto2Options, run Runner) *GPhoto2Camera {
	def := DefaultGPhoto2Options()
	if opts.Binary == "" {
		opts.Binary = def.Binary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.ReleaseWidget == "" {
		opts.ReleaseWidget = def.ReleaseWidget
	}
	if opts.BatteryWidget == "" {
		opts.BatteryWidget = def.BatteryWidget
	}
	if opts.ModeWidget == "" {
		opts.ModeWidget = def.ModeWidget
	}
	if opts.FocusWidget == "" {
		opts.FocusWidget = def.FocusWidget
	}
	if opts.ModelWidget == "" {
		opts.ModelWidget = def.ModelWidget
	}
	if run == nil {
		run = execRunner
	}
	return &GPhoto2Camera{opts: opts, run: run}
}

func (c *GPhoto2Camera) command(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	full := args
	if c.opts.Port != "" {
		full = append([]string{"--port", c.opts.Port}, args...)
	}
	logging.Tracef("%s %s", c.opts.Binary, strings.Join(full, " "))
	output, err := c.run(ctx, c.opts.Binary, full...)
	if err != nil {
		return "", fmt.Errorf("gphoto2 %s failed: %w, output: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// ApplyExposure sets ISO, aperture and shutter speed in one invocation.
func (c *GPhoto2Camera) ApplyExposure(e domain.Exposure) error {
	_, err := c.command(
		"--set-config-value", "iso="+strconv.Itoa(e.ISO),
		"--set-config-value", "f-number="+FormatAperture(e.Aperture),
		"--set-config-value", "shutterspeed="+FormatShutter(e.Shutter),
	)
	return err
}

// SetDryRun limits mirror lockup to a half press. On bodies without
// in-camera mirror lockup a full press releases the shutter.
func (c *GPhoto2Camera) SetDryRun(enabled bool) {
	c.dryRun.Store(enabled)
}

// SetMirrorLockup half-presses then full-presses the remote release to raise
// the mirror, or releases it. A dry run only half-presses.
func (c *GPhoto2Camera) SetMirrorLockup(engaged bool, delay time.Duration) error {
	dry := c.dryRun.Load()
	if !engaged {
		release := "Release Full"
		if dry {
			release = "Release Half"
		}
		_, err := c.command("--set-config", c.opts.ReleaseWidget+"="+release)
		return err
	}
	if _, err := c.command("--set-config", c.opts.ReleaseWidget+"=Press Half"); err != nil {
		return err
	}
	if dry {
		return nil
	}
	_, err := c.command("--set-config", c.opts.ReleaseWidget+"=Press Full")
	return err
}

// TriggerCapture fires the shutter without downloading the frame.
func (c *GPhoto2Camera) TriggerCapture() error {
	_, err := c.command("--trigger-capture")
	return err
}

// ReadStatus queries mode, focus, battery and free storage.
func (c *GPhoto2Camera) ReadStatus() (domain.DeviceStatus, error) {
	var st domain.DeviceStatus

	if out, err := c.command("--get-config", c.opts.ModelWidget); err == nil {
		st.Model, _ = currentValue(out)
	} else {
		logging.Debugf("camera model unavailable: %v", err)
	}

	mode, err := c.widget(c.opts.ModeWidget)
	if err != nil {
		return st, err
	}
	st.Mode = mode

	focus, err := c.widget(c.opts.FocusWidget)
	if err != nil {
		return st, err
	}
	st.AutofocusEnabled = autofocusOn(focus)

	battery, err := c.widget(c.opts.BatteryWidget)
	if err != nil {
		return st, err
	}
	if st.BatteryPercent, err = ParseBattery(battery); err != nil {
		return st, err
	}

	out, err := c.command("--storage-info")
	if err != nil {
		return st, err
	}
	st.FreeStorageMB = ParseFreeStorageMB(out)
	return st, nil
}

func (c *GPhoto2Camera) widget(name string) (string, error) {
	out, err := c.command("--get-config", name)
	if err != nil {
		return "", err
	}
	v, ok := currentValue(out)
	if !ok {
		return "", fmt.Errorf("gphoto2 --get-config %s: no current value", name)
	}
	return v, nil
}

func currentValue(out string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "Current:"); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func autofocusOn(focus string) bool {
	switch strings.ToLower(focus) {
	case "manual", "mf", "off", "manual focus":
		return false
	}
	return true
}

var errBattery = errors.New("unrecognised battery level")

// ParseBattery reads "85%", "85" or a coarse level such as "Full".
func ParseBattery(v string) (int, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	switch strings.ToLower(s) {
	case "full":
		return 100, nil
	case "normal", "half":
		return 50, nil
	case "low":
		return 20, nil
	case "empty":
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q", errBattery, v)
}

// ParseFreeStorageMB sums the free= lines of gphoto2 --storage-info (KB).
func ParseFreeStorageMB(out string) int {
	var kb int64
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if v, ok := strings.CutPrefix(line, "free="); ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				kb += n
			}
		}
	}
	return int(math.Round(float64(kb) / 1024))
}

// FormatAperture renders an f-number the way gphoto2 lists it: f/8, f/5.6.
func FormatAperture(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("f/%d", int(f))
	}
	return fmt.Sprintf("f/%.1f", f)
}

// FormatShutter renders seconds the way gphoto2 lists them: 2, 2.5, 1/125.
func FormatShutter(seconds float64) string {
	if seconds >= 1 {
		if seconds == math.Trunc(seconds) {
			return strconv.Itoa(int(seconds))
		}
		return fmt.Sprintf("%.1f", seconds)
	}
	if seconds <= 0 {
		return "0"
	}
	return fmt.Sprintf("1/%d", int(math.Round(1/seconds)))
}
