package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ECLIPSE_CAMERA", "")
	t.Setenv("ECLIPSE_SEQUENCE", "")
	t.Setenv("ECLIPSE_MQTT_TOPIC", "")
	t.Setenv("ECLIPSE_REPORT", "")
	s := Load(filepath.Join(t.TempDir(), "absent.env"))

	if s.SequencePath != "SOLARECL.TXT" || s.Camera != CameraSimulated || s.MQTTTopic != "eclipse/notify" {
		t.Errorf("defaults = %+v", s)
	}
	if !strings.HasSuffix(s.ReportPath, "last-run.json") {
		t.Errorf("ReportPath = %q", s.ReportPath)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate(defaults) = %v", err)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("ECLIPSE_SEQUENCE", "/data/seq.txt")
	t.Setenv("ECLIPSE_CAMERA", "GPhoto2")
	t.Setenv("ECLIPSE_STRICT", "true")
	t.Setenv("ECLIPSE_TEST_MODE", "not-a-bool")

	s := Load(filepath.Join(t.TempDir(), "absent.env"))
	if s.SequencePath != "/data/seq.txt" || s.Camera != CameraGPhoto2 || !s.Strict || s.TestMode {
		t.Errorf("settings = %+v", s)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.env")
	content := "ECLIPSE_MQTT_BROKER=tcp://localhost:1883\nECLIPSE_STATUS_ADDR=:8090\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set
	t.Setenv("ECLIPSE_STATUS_ADDR", ":9000")
	t.Setenv("ECLIPSE_MQTT_BROKER", "")
	os.Unsetenv("ECLIPSE_MQTT_BROKER")

	s := Load(path)
	if s.MQTTBroker != "tcp://localhost:1883" || s.StatusAddr != ":9000" {
		t.Errorf("settings = %+v", s)
	}
}

func TestValidate(t *testing.T) {
	base := Settings{SequencePath: "SOLARECL.TXT", Camera: CameraSimulated, MQTTTopic: "eclipse/notify"}
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"ok", func(*Settings) {}, false},
		{"unknown camera", func(s *Settings) { s.Camera = "canon" }, true},
		{"no sequence", func(s *Settings) { s.SequencePath = "" }, true},
		{"gphoto2 without binary", func(s *Settings) { s.Camera, s.GPhoto2Bin = CameraGPhoto2, "" }, true},
		{"broker without scheme", func(s *Settings) { s.MQTTBroker = "localhost:1883" }, true},
		{"broker without topic", func(s *Settings) { s.MQTTBroker, s.MQTTTopic = "tcp://localhost:1883", "" }, true},
		{"broker ok", func(s *Settings) { s.MQTTBroker = "tcp://localhost:1883" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
