package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Camera backends.
const (
	CameraSimulated = "simulated"
	CameraGPhoto2   = "gphoto2"
)

// Settings holds process configuration resolved from the environment.
type Settings struct {
	SequencePath  string
	Camera        string
	GPhoto2Bin    string
	GPhoto2Port   string
	CameraProfile string
	LogFile       string
	ReportPath    string
	StatusAddr    string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	TestMode bool
	Strict   bool
}

// Load reads envFile when it exists (".env" when empty), then the
// ECLIPSE_* environment variables.
func Load(envFile string) Settings {
	if envFile == "" {
		envFile = ".env"
	}
	// Load .env file if it exists
	_ = godotenv.Load(envFile)

	return Settings{
		SequencePath:  getEnv("ECLIPSE_SEQUENCE", "SOLARECL.TXT"),
		Camera:        strings.ToLower(getEnv("ECLIPSE_CAMERA", CameraSimulated)),
		GPhoto2Bin:    getEnv("ECLIPSE_GPHOTO2_BIN", "gphoto2"),
		GPhoto2Port:   getEnv("ECLIPSE_GPHOTO2_PORT", ""),
		CameraProfile: getEnv("ECLIPSE_CAMERA_PROFILE", ""),
		LogFile:       getEnv("ECLIPSE_LOG_FILE", ""),
		ReportPath:    getEnv("ECLIPSE_REPORT", DefaultReportPath()),
		StatusAddr:    getEnv("ECLIPSE_STATUS_ADDR", ""),

		MQTTBroker:   getEnv("ECLIPSE_MQTT_BROKER", ""),
		MQTTTopic:    getEnv("ECLIPSE_MQTT_TOPIC", "eclipse/notify"),
		MQTTClientID: getEnv("ECLIPSE_MQTT_CLIENT_ID", "eclipse-sequencer"),
		MQTTUsername: getEnv("ECLIPSE_MQTT_USERNAME", ""),
		MQTTPassword: getEnv("ECLIPSE_MQTT_PASSWORD", ""),

		TestMode: getEnvBool("ECLIPSE_TEST_MODE", false),
		Strict:   getEnvBool("ECLIPSE_STRICT", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
