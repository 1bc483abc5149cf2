package service

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"zonectl/internal/models"
)

// Config is the structured view of configs/config.yml. Loaded once at boot;
// nothing re-reads it at runtime.
type Config struct {
	Port     string
	LogLevel string
	DBPath   string

	// Tick is the Runner base period; StabilityWindow is how long the
	// process must survive before the boot counter resets.
	Tick            time.Duration
	StabilityWindow time.Duration

	// Hardware is the board layout: the fixed driver class of each channel.
	Hardware [models.NumChannels]models.HardwareKind

	SensorDriver string // "sim" | "w1"
	OutputDriver string // "sim" | "gpio"
	GPIOChip     string
	GPIOLines    []int

	WatchdogEnabled bool
	WatchdogPath    string
	WatchdogTimeout time.Duration

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	InfluxEnabled bool
	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string

	Auth AuthConfig
}

// LoadConfig reads configs/config.yml and returns the structured config.
func LoadConfig() (Config, error) {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("port", "8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("db.path", "zonectl.db")
	viper.SetDefault("loop.tick", "100ms")
	viper.SetDefault("loop.stability_window", "5m")
	viper.SetDefault("channels.hardware", []string{"DIMMER", "PULSE_SSR", "RELAY"})
	viper.SetDefault("drivers.sensor", "sim")
	viper.SetDefault("drivers.output", "sim")
	viper.SetDefault("drivers.gpio_chip", "gpiochip0")
	viper.SetDefault("watchdog.path", "/dev/watchdog")
	viper.SetDefault("watchdog.timeout", "8s")
	viper.SetDefault("auth.token_ttl", "1h")

	if err := viper.ReadInConfig(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     viper.GetString("port"),
		LogLevel: viper.GetString("log_level"),
		DBPath:   viper.GetString("db.path"),

		Tick:            viper.GetDuration("loop.tick"),
		StabilityWindow: viper.GetDuration("loop.stability_window"),

		SensorDriver: viper.GetString("drivers.sensor"),
		OutputDriver: viper.GetString("drivers.output"),
		GPIOChip:     viper.GetString("drivers.gpio_chip"),
		GPIOLines:    viper.GetIntSlice("drivers.gpio_lines"),

		WatchdogEnabled: viper.GetBool("watchdog.enabled"),
		WatchdogPath:    viper.GetString("watchdog.path"),
		WatchdogTimeout: viper.GetDuration("watchdog.timeout"),

		MQTTEnabled:  viper.GetBool("mqtt.enabled"),
		MQTTBroker:   viper.GetString("mqtt.broker"),
		MQTTClientID: viper.GetString("mqtt.client_id"),
		MQTTUsername: viper.GetString("mqtt.username"),
		MQTTPassword: viper.GetString("mqtt.password"),

		InfluxEnabled: viper.GetBool("influx.enabled"),
		InfluxURL:     viper.GetString("influx.url"),
		InfluxToken:   viper.GetString("influx.token"),
		InfluxOrg:     viper.GetString("influx.org"),
		InfluxBucket:  viper.GetString("influx.bucket"),

		Auth: AuthConfig{
			SigningKey: viper.GetString("auth.signing_key"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
	}

	kinds := viper.GetStringSlice("channels.hardware")
	if len(kinds) != models.NumChannels {
		return Config{}, fmt.Errorf("channels.hardware must list %d kinds, got %d", models.NumChannels, len(kinds))
	}
	for i, k := range kinds {
		hw := models.HardwareKind(k)
		if !hw.Valid() {
			return Config{}, fmt.Errorf("channels.hardware[%d]: unknown kind %q", i, k)
		}
		cfg.Hardware[i] = hw
	}

	if cfg.Auth.SigningKey == "" {
		return Config{}, fmt.Errorf("auth.signing_key must be set")
	}

	return cfg, nil
}
