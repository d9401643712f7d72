package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Hardware drivers.
const (
	DriverSysfs = "sysfs"
	DriverCdev  = "cdev"
	DriverSim   = "sim" // simulated house, no hardware access
)

const (
	envPrefix         = "HEATING"
	defaultConfigName = "heating_config"
)

// ConfigurationError reports a malformed or missing configuration, or a
// required hardware capability that is absent.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return "configuration error: " + e.Msg + ": " + e.Err.Error()
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func newConfigError(msg string, err error) *ConfigurationError {
	return &ConfigurationError{Msg: msg, Err: err}
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("stove.label", "Stove")
	v.SetDefault("pipe.label", "Pipe")

	v.SetDefault("control.area_threshold", 16.0)
	v.SetDefault("control.activation_delay", 2*time.Minute)
	v.SetDefault("control.lookback", 10*time.Minute)
	v.SetDefault("control.min_samples", 3)

	v.SetDefault("schedule.temperatures", "0 */2 * * * *")
	v.SetDefault("schedule.relays", "45 */15 * * * *")
	v.SetDefault("schedule.valves", "30 */2 * * * *")
	v.SetDefault("schedule.stove", "0 */5 * * * *")

	v.SetDefault("hardware.driver", DriverSysfs)
	v.SetDefault("hardware.gpio_path", "/sys/class/gpio")
	v.SetDefault("hardware.w1_path", "/sys/devices/w1_bus_master1")
	v.SetDefault("hardware.chip", "gpiochip0")
	v.SetDefault("hardware.timeout", time.Duration(0))

	v.SetDefault("db.path", "heating.db")
	v.SetDefault("http.port", "3030")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.allow_sign_up", false)

	v.SetDefault("mqtt.client_id", "heating-controller")
	v.SetDefault("mqtt.topic_prefix", "heating")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}

// flagBindings maps command-line flags to configuration keys.
var flagBindings = map[string]string{
	"log-level": "log.level",
	"db-path":   "db.path",
	"port":      "http.port",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("heating-controller", pflag.ContinueOnError)
	fs.String("config", "", "path to the heating configuration file (yaml or json)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("db-path", "heating.db", "path to the SQLite database")
	fs.String("port", "3030", "HTTP API port")
	return fs
}

// Load parses flags, reads .env, the configuration file and HEATING_* env
// overrides, and validates the result. Any failure is a ConfigurationError.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, newConfigError("parse flags", err)
	}

	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagBindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, newConfigError("bind flag --"+flag, err)
		}
	}

	path, _ := fs.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, newConfigError("read configuration file", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, newConfigError(fmt.Sprintf("decode %s", v.ConfigFileUsed()), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
