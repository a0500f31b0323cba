package camera

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"eclipse-sequencer/internal/domain"
)

func TestSimulatedCamera(t *testing.T) {
	cam := NewSimulatedCamera(Profile{Mode: "3", Battery: 80, FreeStorageMB: 100, ShotSizeMB: 30})

	exp := domain.Exposure{Aperture: 4, ISO: 1600, Shutter: 1}
	if err := cam.ApplyExposure(exp); err != nil {
		t.Fatal(err)
	}
	if err := cam.SetMirrorLockup(true, 0); err != nil {
		t.Fatal(err)
	}
	if !cam.MirrorUp() {
		t.Error("mirror should be up")
	}
	for i := 0; i < 4; i++ {
		if err := cam.TriggerCapture(); err != nil {
			t.Fatal(err)
		}
	}

	st, _ := cam.ReadStatus()
	if cam.Triggers() != 4 || cam.Exposure() != exp {
		t.Errorf("Triggers() = %d, Exposure() = %+v", cam.Triggers(), cam.Exposure())
	}
	if st.FreeStorageMB != 0 || st.BatteryPercent != 80 || st.Mode != "3" {
		t.Errorf("ReadStatus() = %+v", st)
	}
}

func TestSimulatedCamera_FailCaptures(t *testing.T) {
	cam := NewSimulatedCamera(Profile{FailCaptures: true})
	if err := cam.TriggerCapture(); !errors.Is(err, ErrSimulatedFailure) {
		t.Errorf("TriggerCapture() err = %v", err)
	}
	if cam.Triggers() != 0 {
		t.Errorf("failed capture counted")
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.yaml")
	content := "model: Canon EOS R5\nbattery: 42\nautofocus: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error: %v", err)
	}
	want := DefaultProfile()
	want.Model, want.Battery, want.Autofocus = "Canon EOS R5", 42, true
	if p != want {
		t.Errorf("LoadProfile() = %+v, want %+v", p, want)
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing profile")
	}
}
