// Package config provides configuration helpers for go-filmmeter commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultPort         = "8080"
	DefaultLogLevel     = "info"
	DefaultCameraDevice = 0
	DefaultCameraPreset = "default"
	DefaultServerURL    = "ws://localhost:8080/ws/meter"
)

// Port returns the HTTP port from PORT env var or default.
func Port() string {
	return String("PORT", DefaultPort)
}

// LogLevel returns the log level from LOG_LEVEL env var or default.
func LogLevel() string {
	return String("LOG_LEVEL", DefaultLogLevel)
}

// LogFile returns the rotating log file path from LOG_FILE, empty if unset.
func LogFile() string {
	return os.Getenv("LOG_FILE")
}

// CameraDevice returns the capture device index from CAMERA_DEVICE env var or default.
func CameraDevice() int {
	return Int("CAMERA_DEVICE", DefaultCameraDevice)
}

// CameraPreset returns the camera preset name from CAMERA_PRESET env var or default.
func CameraPreset() string {
	return String("CAMERA_PRESET", DefaultCameraPreset)
}

// ServerURL returns the metering websocket URL from FILMMETER_URL env var or default.
func ServerURL() string {
	return String("FILMMETER_URL", DefaultServerURL)
}

// String returns the env var key, or def when it is unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var key parsed as an int, or def when unset or malformed.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
