package config

import (
	"fmt"
	"strings"
)

// Validate rejects settings no sequence can run with.
func (s Settings) Validate() error {
	switch s.Camera {
	case CameraSimulated, CameraGPhoto2:
	default:
		return fmt.Errorf("camera must be %s or %s, got %q", CameraSimulated, CameraGPhoto2, s.Camera)
	}
	if s.SequencePath == "" {
		return fmt.Errorf("sequence path is required")
	}
	if s.Camera == CameraGPhoto2 && s.GPhoto2Bin == "" {
		return fmt.Errorf("gphoto2 binary is required")
	}
	if s.MQTTBroker != "" {
		if !strings.Contains(s.MQTTBroker, "://") {
			return fmt.Errorf("mqtt broker must be a URL such as tcp://host:1883, got %q", s.MQTTBroker)
		}
		if s.MQTTTopic == "" {
			return fmt.Errorf("mqtt topic is required when a broker is set")
		}
	}
	return nil
}
