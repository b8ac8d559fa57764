// Package config provides configuration for the go-spider controller.
//
// Values come from the environment (optionally seeded from a .env file),
// falling back to the robot's factory defaults. Physical constants such as
// the leg segment lengths are fixed properties of the chassis and live here
// as defaults rather than in code that uses them.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cybercrawl/go-spider/internal/log"
)

// Leg/joint geometry defaults (mm). These match the stock chassis.
const (
	DefaultLengthA    = 55.0 // femur (upper leg)
	DefaultLengthB    = 77.5 // tibia (lower leg)
	DefaultLengthC    = 27.5 // coxa offset from body to femur joint
	DefaultLengthSide = 71.0 // body side length between leg mounts
)

// Stance defaults (mm, robot frame).
const (
	DefaultZDefault = -50.0 // foot height when standing
	DefaultZUp      = -30.0 // foot height during a swing
	DefaultZBoot    = -28.0 // foot height at rest/boot
	DefaultXDefault = 62.0
	DefaultXOffset  = 0.0
	DefaultYStart   = 0.0
	DefaultYStep    = 40.0
)

// Config holds everything the controller needs at startup.
type Config struct {
	// Leg geometry (mm)
	LengthA    float64
	LengthB    float64
	LengthC    float64
	LengthSide float64

	// Stance (mm)
	ZDefault float64
	ZUp      float64
	ZBoot    float64
	XDefault float64
	XOffset  float64
	YStart   float64
	YStep    float64

	// PCA9685 servo driver
	PCA9685Addr    uint16
	PCA9685FreqHz  int
	ServoPulseMin  int // PWM counts out of 4096
	ServoPulseMax  int
	ServoChannels  [4][3]int // [leg][joint] -> channel

	// Ultrasonic sensor
	TriggerPin        string
	EchoPin           string
	MaxDistanceCM     float64
	ObstacleThreshold float64 // cm; critical below this
	EchoTimeout       time.Duration

	// Camera / detection
	FrameWidth        int
	FrameHeight       int
	CameraURL         string // JPEG frame endpoint; empty disables vision
	YOLOModelPath     string
	YOLOConfidence    float32
	YOLOIoU           float32
	DetectionInterval time.Duration

	// Navigation
	LoopDelay time.Duration

	// Services
	WebPort    string
	MQTTBroker string // empty disables telemetry
	LogLevel   string
}

// Load builds a Config from the environment. A .env file in the working
// directory is honored if present but is not required.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env file")
	}

	return Config{
		LengthA:    envFloat("SPIDER_LENGTH_A", DefaultLengthA),
		LengthB:    envFloat("SPIDER_LENGTH_B", DefaultLengthB),
		LengthC:    envFloat("SPIDER_LENGTH_C", DefaultLengthC),
		LengthSide: envFloat("SPIDER_LENGTH_SIDE", DefaultLengthSide),

		ZDefault: envFloat("SPIDER_Z_DEFAULT", DefaultZDefault),
		ZUp:      envFloat("SPIDER_Z_UP", DefaultZUp),
		ZBoot:    envFloat("SPIDER_Z_BOOT", DefaultZBoot),
		XDefault: envFloat("SPIDER_X_DEFAULT", DefaultXDefault),
		XOffset:  envFloat("SPIDER_X_OFFSET", DefaultXOffset),
		YStart:   envFloat("SPIDER_Y_START", DefaultYStart),
		YStep:    envFloat("SPIDER_Y_STEP", DefaultYStep),

		PCA9685Addr:   uint16(envInt("SPIDER_PCA9685_ADDR", 0x40)),
		PCA9685FreqHz: envInt("SPIDER_PCA9685_FREQ", 50),
		ServoPulseMin: envInt("SPIDER_SERVO_PULSE_MIN", 150),
		ServoPulseMax: envInt("SPIDER_SERVO_PULSE_MAX", 600),
		ServoChannels: [4][3]int{
			{0, 1, 2},    // leg 0, front-right
			{4, 5, 6},    // leg 1, front-left
			{8, 9, 10},   // leg 2, rear-left
			{12, 13, 14}, // leg 3, rear-right
		},

		TriggerPin:        env("SPIDER_TRIGGER_PIN", "GPIO23"),
		EchoPin:           env("SPIDER_ECHO_PIN", "GPIO24"),
		MaxDistanceCM:     envFloat("SPIDER_MAX_DISTANCE", 200),
		ObstacleThreshold: envFloat("SPIDER_OBSTACLE_THRESHOLD", 20),
		EchoTimeout:       envDuration("SPIDER_ECHO_TIMEOUT", 50*time.Millisecond),

		FrameWidth:        envInt("SPIDER_FRAME_WIDTH", 640),
		FrameHeight:       envInt("SPIDER_FRAME_HEIGHT", 480),
		CameraURL:         env("SPIDER_CAMERA_URL", ""),
		YOLOModelPath:     env("SPIDER_YOLO_MODEL", "models/yolov8n.onnx"),
		YOLOConfidence:    float32(envFloat("SPIDER_YOLO_CONFIDENCE", 0.5)),
		YOLOIoU:           float32(envFloat("SPIDER_YOLO_IOU", 0.45)),
		DetectionInterval: envDuration("SPIDER_DETECTION_INTERVAL", 150*time.Millisecond),

		LoopDelay: envDuration("SPIDER_LOOP_DELAY", 50*time.Millisecond),

		WebPort:    env("SPIDER_WEB_PORT", "5000"),
		MQTTBroker: env("SPIDER_MQTT_BROKER", ""),
		LogLevel:   env("SPIDER_LOG_LEVEL", "info"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		log.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return int(n)
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn("invalid float in environment, using default", "key", key, "value", v)
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
