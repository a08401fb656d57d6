package firmata

import (
	"time"

	"github.com/spf13/viper"
)

// BaudRate is one of the enumerated serial baud rates this package recognizes.
type BaudRate int

const (
	Baud2400   BaudRate = 2400
	Baud4800   BaudRate = 4800
	Baud9600   BaudRate = 9600
	Baud14400  BaudRate = 14400
	Baud19200  BaudRate = 19200
	Baud28800  BaudRate = 28800
	Baud31250  BaudRate = 31250
	Baud38400  BaudRate = 38400
	Baud57600  BaudRate = 57600
	Baud115200 BaudRate = 115200
)

// DefaultGenericBaudRate is the default for a generic transport.
const DefaultGenericBaudRate = Baud9600

// DefaultDiscoveryBaudRate is the default used by Firmata discovery.
const DefaultDiscoveryBaudRate = Baud57600

// SessionConfig is the configuration surface a Session accepts.
type SessionConfig struct {
	// Timeout bounds every reply-wait. time.Duration(0) means
	// InfiniteTimeoutMs (the session blocks forever).
	Timeout time.Duration
}

// DefaultSessionConfig returns the package default: infinite timeout.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{Timeout: 0}
}

// FinderConfig configures a Finder discovery run.
type FinderConfig struct {
	Devices          []string
	PrimaryBaudRates []BaudRate
	FallbackBaudRates []BaudRate
	PerAttemptTimeout time.Duration
	StartupDelay      time.Duration
}

// DefaultFinderConfig returns the default baud-rate preference lists and
// a zero startup delay.
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		PrimaryBaudRates:  []BaudRate{Baud57600, Baud115200, Baud9600},
		FallbackBaudRates: []BaudRate{Baud28800, Baud14400, Baud38400, Baud31250, Baud4800, Baud2400},
		PerAttemptTimeout: 2 * time.Second,
		StartupDelay:      0,
	}
}

// LoadFinderConfig overlays environment/config-file values (via viper) on
// top of DefaultFinderConfig. Recognized keys: startup_delay_ms,
// per_attempt_timeout_ms (environment: FIRMATA_STARTUP_DELAY_MS,
// FIRMATA_PER_ATTEMPT_TIMEOUT_MS). Devices and baud-rate lists are left to
// the caller — a config file is for tuning timing, not discovering ports.
func LoadFinderConfig(v *viper.Viper) FinderConfig {
	cfg := DefaultFinderConfig()
	if v == nil {
		return cfg
	}
	v.SetEnvPrefix("FIRMATA")
	v.AutomaticEnv()

	if v.IsSet("startup_delay_ms") {
		cfg.StartupDelay = time.Duration(v.GetInt("startup_delay_ms")) * time.Millisecond
	}
	if v.IsSet("per_attempt_timeout_ms") {
		cfg.PerAttemptTimeout = time.Duration(v.GetInt("per_attempt_timeout_ms")) * time.Millisecond
	}
	return cfg
}

// LoadSessionConfig overlays the session timeout from viper, recognizing
// timeout_ms (environment: FIRMATA_TIMEOUT_MS); InfiniteTimeoutMs (-1)
// maps to a zero Duration.
func LoadSessionConfig(v *viper.Viper) SessionConfig {
	cfg := DefaultSessionConfig()
	if v == nil {
		return cfg
	}
	v.SetEnvPrefix("FIRMATA")
	v.AutomaticEnv()

	if v.IsSet("timeout_ms") {
		ms := v.GetInt("timeout_ms")
		if ms == InfiniteTimeoutMs {
			cfg.Timeout = 0
		} else {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}
