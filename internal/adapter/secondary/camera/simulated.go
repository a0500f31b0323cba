package camera

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"eclipse-sequencer/internal/domain"
	"eclipse-sequencer/internal/logging"
)

// ErrSimulatedFailure is returned by a simulated camera told to fail captures.
var ErrSimulatedFailure = errors.New("simulated capture failure")

// Profile describes the state a simulated camera reports.
type Profile struct {
	Model         string `yaml:"model"`
	Mode          string `yaml:"mode"`
	Autofocus     bool   `yaml:"autofocus"`
	Battery       int    `yaml:"battery"`
	FreeStorageMB int    `yaml:"freeStorageMB"`
	ShotSizeMB    int    `yaml:"shotSizeMB"`
	FailCaptures  bool   `yaml:"failCaptures"`
}

// DefaultProfile is a camera in manual mode with AF off, a charged battery
// and a large card.
func DefaultProfile() Profile {
	return Profile{
		Model:         "Simulated",
		Mode:          "3",
		Autofocus:     false,
		Battery:       95,
		FreeStorageMB: 8000,
	}
}

// LoadProfile reads a YAML profile; absent keys keep their defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read camera profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse camera profile: %w", err)
	}
	return p, nil
}

// SimulatedCamera implements domain.Camera without hardware.
// Useful for rehearsals or machines without a camera attached.
type SimulatedCamera struct {
	mu       sync.Mutex
	profile  Profile
	exposure domain.Exposure
	mirrorUp bool
	triggers int
}

var _ domain.Camera = (*SimulatedCamera)(nil)

// NewSimulatedCamera creates a simulated camera reporting profile.
func NewSimulatedCamera(profile Profile) *SimulatedCamera {
	return &SimulatedCamera{profile: profile}
}

// ApplyExposure records the exposure.
func (s *SimulatedCamera) ApplyExposure(e domain.Exposure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposure = e
	logging.Debugf("sim: exposure %s", e)
	return nil
}

// SetMirrorLockup records the mirror position.
func (s *SimulatedCamera) SetMirrorLockup(engaged bool, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrorUp = engaged
	logging.Debugf("sim: mirror up=%v delay=%s", engaged, delay)
	return nil
}

// TriggerCapture counts the capture and consumes card space.
func (s *SimulatedCamera) TriggerCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.FailCaptures {
		return ErrSimulatedFailure
	}
	s.triggers++
	s.profile.FreeStorageMB -= s.profile.ShotSizeMB
	if s.profile.FreeStorageMB < 0 {
		s.profile.FreeStorageMB = 0
	}
	return nil
}

// ReadStatus returns the profile state.
func (s *SimulatedCamera) ReadStatus() (domain.DeviceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.DeviceStatus{
		Model:            s.profile.Model,
		Mode:             s.profile.Mode,
		AutofocusEnabled: s.profile.Autofocus,
		BatteryPercent:   s.profile.Battery,
		FreeStorageMB:    s.profile.FreeStorageMB,
	}, nil
}

// Triggers returns the number of captures fired so far.
func (s *SimulatedCamera) Triggers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggers
}

// Exposure returns the last applied exposure.
func (s *SimulatedCamera) Exposure() domain.Exposure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposure
}

// MirrorUp reports whether the mirror is currently locked up.
func (s *SimulatedCamera) MirrorUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirrorUp
}
