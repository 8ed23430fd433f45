package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-spw/datalink"
	"github.com/arloliu/go-spw/logger"
)

func TestNewConfig_Defaults(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig()
	require.NoError(err)

	require.Equal("link", cfg.Name())
	require.Equal(128, cfg.HalfDelayTicks())
	require.Equal(256, cfg.FullDelayTicks())
	require.Equal(17, cfg.DisconnectTicks())
	require.Equal(2, cfg.ResetDivider())
	require.Equal(2, cfg.UserDivider())
	require.Equal(56, cfg.RxQueueSize())
	require.Equal(DefaultTxQueueSize, cfg.TxQueueSize())
	require.False(cfg.UserRate())
	require.False(cfg.Autostart())
	require.False(cfg.LinkStart())
	require.False(cfg.LinkDisabled())
	require.Equal(logger.GetLogger(), cfg.GetLogger())
}

func TestNewConfig_Options(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig(
		WithName("uplink"),
		WithTickRate(100e6),
		WithResetTxRate(10e6),
		WithUserTxRate(25e6),
		WithTransmissionDelay(20*time.Microsecond),
		WithDisconnectTimeout(time.Microsecond),
		WithFifoTokens(3),
		WithTxQueueSize(16),
		WithAutostart(true),
		WithLinkDisabled(true),
	)
	require.NoError(err)

	require.Equal("uplink", cfg.Name())
	require.Equal(1000, cfg.HalfDelayTicks())
	require.Equal(2000, cfg.FullDelayTicks())
	require.Equal(100, cfg.DisconnectTicks())
	require.Equal(10, cfg.ResetDivider())
	require.Equal(4, cfg.UserDivider())
	require.True(cfg.UserRate())
	require.Equal(24, cfg.RxQueueSize())
	require.Equal(16, cfg.TxQueueSize())
	require.True(cfg.Autostart())
	require.True(cfg.LinkDisabled())
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		msg  string
	}{
		{"EmptyName", WithName(""), "name"},
		{"TickRate", WithTickRate(0), "tick rate"},
		{"ResetRate", WithResetTxRate(1e6), "reset transmit rate"},
		{"UserRate", WithUserTxRate(1e6), "user transmit rate"},
		{"Delay", WithTransmissionDelay(0), "transmission delay"},
		{"Disconnect", WithDisconnectTimeout(-1), "disconnect timeout"},
		{"TokensLow", WithFifoTokens(0), "fifo tokens"},
		{"TokensHigh", WithFifoTokens(65), "fifo tokens"},
		{"TxQueue", WithTxQueueSize(0), "tx queue size"},
		{"Logger", WithLogger(nil), "logger"},
		{"SlowTick", WithTickRate(15e6), "below twice the transmit rate"},
		{"ShortDisconnect", WithDisconnectTimeout(100 * time.Nanosecond), "disconnect timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			require.Error(t, err)
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestNewConfig_DelayTooShort(t *testing.T) {
	_, err := NewConfig(WithTransmissionDelay(100 * time.Nanosecond))
	require.ErrorIs(t, err, datalink.ErrDelayTooShort)
}

func TestNewConfig_DisconnectNotLongerThanBit(t *testing.T) {
	_, err := NewConfig(WithResetTxRate(2e6), WithDisconnectTimeout(400*time.Nanosecond))
	require.ErrorContains(t, err, "bit period")
}
