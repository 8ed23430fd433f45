package link

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-spw/datalink"
	"github.com/arloliu/go-spw/logger"
	"github.com/arloliu/go-spw/spw"
)

// Default link parameters.
const (
	DefaultTickRate    = 20e6 // ticks per second
	DefaultResetTxRate = 10e6 // bits per second while establishing the link
	DefaultUserTxRate  = 10e6 // bits per second in Run when the user rate is enabled

	DefaultTransmissionDelay = datalink.DefaultFullDelay
	DefaultDisconnectTimeout = 850 * time.Nanosecond

	DefaultFifoTokens  = spw.MaxTokens
	DefaultTxQueueSize = 64
)

// Parameter range limits.
const (
	MinTxRate = 2e6

	MinFifoTokens = 1
	MaxFifoTokens = 64

	MinTxQueueSize = 1
	MaxTxQueueSize = 1 << 16

	minDelayTicks = 2
)

// Config holds the configuration of a link.
type Config struct {
	name string

	tickRate    float64
	resetTxRate float64
	userTxRate  float64

	// fullDelay is the state machine timeout; the half delay is derived from it.
	fullDelay         time.Duration
	disconnectTimeout time.Duration

	fifoTokens  int
	txQueueSize int

	autostart    bool
	linkStart    bool
	linkDisabled bool
	userRate     bool

	logger logger.Logger

	// derived in validate
	halfTicks       int
	fullTicks       int
	disconnectTicks int
	resetDivider    int
	userDivider     int
}

// NewConfig creates a link configuration.
//
// opts are functional options applied in order; see With* functions.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		name:              "link",
		tickRate:          DefaultTickRate,
		resetTxRate:       DefaultResetTxRate,
		userTxRate:        DefaultUserTxRate,
		fullDelay:         DefaultTransmissionDelay,
		disconnectTimeout: DefaultDisconnectTimeout,
		fifoTokens:        DefaultFifoTokens,
		txQueueSize:       DefaultTxQueueSize,
		logger:            logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	var err error

	if cfg.halfTicks, err = datalink.DelayTicks(cfg.tickRate, cfg.fullDelay/2, minDelayTicks); err != nil {
		return fmt.Errorf("link: half delay: %w", err)
	}
	if cfg.fullTicks, err = datalink.DelayTicks(cfg.tickRate, cfg.fullDelay, minDelayTicks); err != nil {
		return fmt.Errorf("link: full delay: %w", err)
	}
	if cfg.disconnectTicks, err = datalink.DelayTicks(cfg.tickRate, cfg.disconnectTimeout, minDelayTicks); err != nil {
		return fmt.Errorf("link: disconnect timeout: %w", err)
	}

	for _, rate := range []float64{cfg.resetTxRate, cfg.userTxRate} {
		if cfg.tickRate < 2*rate {
			return fmt.Errorf("link: tick rate %v Hz below twice the transmit rate %v b/s", cfg.tickRate, rate)
		}
	}
	cfg.resetDivider = int(cfg.tickRate / cfg.resetTxRate)
	cfg.userDivider = int(cfg.tickRate / cfg.userTxRate)

	if slowest := max(cfg.resetDivider, cfg.userDivider); cfg.disconnectTicks <= slowest {
		return fmt.Errorf("link: disconnect timeout %v not longer than a bit period (%d ticks)",
			cfg.disconnectTimeout, slowest)
	}

	return nil
}

// --- Getters ---

// Name returns the name used in log records.
func (cfg *Config) Name() string { return cfg.name }

// TickRate returns the number of ticks per second.
func (cfg *Config) TickRate() float64 { return cfg.tickRate }

// ResetTxRate returns the transmit rate used while establishing the link.
func (cfg *Config) ResetTxRate() float64 { return cfg.resetTxRate }

// UserTxRate returns the transmit rate used in Run when the user rate is enabled.
func (cfg *Config) UserTxRate() float64 { return cfg.userTxRate }

// TransmissionDelay returns the full delay of the state machine.
func (cfg *Config) TransmissionDelay() time.Duration { return cfg.fullDelay }

// DisconnectTimeout returns the bit silence tolerated before a disconnect.
func (cfg *Config) DisconnectTimeout() time.Duration { return cfg.disconnectTimeout }

// FifoTokens returns the number of FCT tokens backing the inbound queue.
func (cfg *Config) FifoTokens() int { return cfg.fifoTokens }

// RxQueueSize returns the inbound queue capacity.
func (cfg *Config) RxQueueSize() int { return spw.FifoDepth(cfg.fifoTokens) }

// TxQueueSize returns the outgoing queue capacity.
func (cfg *Config) TxQueueSize() int { return cfg.txQueueSize }

func (cfg *Config) Autostart() bool { return cfg.autostart }

func (cfg *Config) LinkStart() bool { return cfg.linkStart }

func (cfg *Config) LinkDisabled() bool { return cfg.linkDisabled }

// UserRate returns whether the user transmit rate is used in Run.
func (cfg *Config) UserRate() bool { return cfg.userRate }

// HalfDelayTicks returns the half delay in ticks.
func (cfg *Config) HalfDelayTicks() int { return cfg.halfTicks }

// FullDelayTicks returns the full delay in ticks.
func (cfg *Config) FullDelayTicks() int { return cfg.fullTicks }

// DisconnectTicks returns the disconnect timeout in ticks.
func (cfg *Config) DisconnectTicks() int { return cfg.disconnectTicks }

// ResetDivider returns the ticks per bit at the reset transmit rate.
func (cfg *Config) ResetDivider() int { return cfg.resetDivider }

// UserDivider returns the ticks per bit at the user transmit rate.
func (cfg *Config) UserDivider() int { return cfg.userDivider }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithName sets the name attached to log records of the link.
func WithName(name string) Option {
	return optFunc(func(cfg *Config) error {
		if name == "" {
			return errors.New("link: name must not be empty")
		}
		cfg.name = name

		return nil
	})
}

// WithTickRate sets the number of ticks per second.
func WithTickRate(hz float64) Option {
	return optFunc(func(cfg *Config) error {
		if hz <= 0 {
			return fmt.Errorf("link: tick rate %v must be positive", hz)
		}
		cfg.tickRate = hz

		return nil
	})
}

// WithResetTxRate sets the transmit rate used outside Run. Must be at least 2 Mb/s.
func WithResetTxRate(bps float64) Option {
	return optFunc(func(cfg *Config) error {
		if bps < MinTxRate {
			return fmt.Errorf("link: reset transmit rate %v below minimum %v", bps, MinTxRate)
		}
		cfg.resetTxRate = bps

		return nil
	})
}

// WithUserTxRate sets the transmit rate used in Run and enables it.
// Must be at least 2 Mb/s.
func WithUserTxRate(bps float64) Option {
	return optFunc(func(cfg *Config) error {
		if bps < MinTxRate {
			return fmt.Errorf("link: user transmit rate %v below minimum %v", bps, MinTxRate)
		}
		cfg.userTxRate = bps
		cfg.userRate = true

		return nil
	})
}

// WithTransmissionDelay sets the full delay of the state machine. The half
// delay is half of it. Defaults to 12.8µs.
func WithTransmissionDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("link: transmission delay must be positive")
		}
		cfg.fullDelay = d

		return nil
	})
}

// WithDisconnectTimeout sets the bit silence tolerated before a disconnect
// is raised. Defaults to 850ns.
func WithDisconnectTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("link: disconnect timeout must be positive")
		}
		cfg.disconnectTimeout = d

		return nil
	})
}

// WithFifoTokens sets the number of FCT tokens backing the inbound queue,
// which holds 8 characters per token. Must be in [1, 64].
func WithFifoTokens(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < MinFifoTokens || n > MaxFifoTokens {
			return fmt.Errorf("link: fifo tokens %d out of range [%d, %d]", n, MinFifoTokens, MaxFifoTokens)
		}
		cfg.fifoTokens = n

		return nil
	})
}

// WithTxQueueSize sets the outgoing queue capacity.
func WithTxQueueSize(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < MinTxQueueSize || n > MaxTxQueueSize {
			return fmt.Errorf("link: tx queue size %d out of range [%d, %d]", n, MinTxQueueSize, MaxTxQueueSize)
		}
		cfg.txQueueSize = n

		return nil
	})
}

// WithAutostart lets the link start when it receives a NULL in Ready.
func WithAutostart(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.autostart = enabled
		return nil
	})
}

// WithLinkStart lets the link start as soon as it reaches Ready.
func WithLinkStart(enabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.linkStart = enabled
		return nil
	})
}

// WithLinkDisabled holds the link in ErrorReset.
func WithLinkDisabled(disabled bool) Option {
	return optFunc(func(cfg *Config) error {
		cfg.linkDisabled = disabled
		return nil
	})
}

// WithLogger sets the logger for the link.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("link: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
