package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

func TestRun_DeliversPacket(t *testing.T) {
	out, err := execute(t, "run", "--ticks", "20000", "--message", "ping")
	require.NoError(t, err)
	require.Contains(t, out, `b received packet "ping"`)
	require.Contains(t, out, "a: state=run")
	require.Contains(t, out, "errors=none")
}

func TestRun_CutAndTrace(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "run.cbor")
	out, err := execute(t, "run", "--ticks", "40000", "--cut-at", "5000", "--restore-after", "3000", "--trace", path)
	require.NoError(err)
	require.Contains(out, "trace written to")
	require.Contains(out, "b: state=run")

	out, err = execute(t, "trace", "dump", "--samples", path)
	require.NoError(err)
	require.Contains(out, "a: ticks=40000")
	require.Contains(out, "b: ticks=40000")
	require.Contains(out, "disconnect")
}

func TestRun_InvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--ticks", "0")
	require.Error(t, err)

	_, err = execute(t, "run", "--log-level", "loud")
	require.Error(t, err)

	_, err = execute(t, "run", "--log-format", "xml")
	require.Error(t, err)

	_, err = execute(t, "run", "--tick-rate", "1000")
	require.Error(t, err)

	_, err = execute(t, "trace", "dump", filepath.Join(t.TempDir(), "missing.cbor"))
	require.Error(t, err)
}
