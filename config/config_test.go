package config

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	opts, err := Parse([]string{"--read", "capture.pcap"})
	require.NoError(t, err)

	assert.Equal(t, "capture.pcap", opts.PcapFile)
	assert.Equal(t, "report.txt", opts.ReportPath)
	assert.Equal(t, time.Minute, opts.FlushInterval)
	assert.Equal(t, 5*time.Minute, opts.ExternalInterval)
	assert.Equal(t, 30*time.Second, opts.LiveInterval)
	assert.Equal(t, 100000, opts.Capacity)
	assert.False(t, opts.Appwrite.Enabled())
}

func TestParseFromEnv(t *testing.T) {
	t.Setenv("INTERFACE", "eth0")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("LOCAL_ADDRS", "10.0.0.1,fe80::1")
	t.Setenv("APPWRITE_ENDPOINT", "https://cloud.example/v1")
	t.Setenv("APPWRITE_PROJECT", "p")
	t.Setenv("APPWRITE_API_KEY", "k")
	t.Setenv("APPWRITE_DATABASE", "db")
	t.Setenv("APPWRITE_TABLE", "pairs")

	opts, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "eth0", opts.Interface)
	assert.Equal(t, "/tmp/x.db", opts.SQLitePath)
	assert.True(t, opts.Appwrite.Enabled())
	assert.Equal(t, "pairs", opts.Appwrite.Table)

	locals, err := opts.Locals()
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("fe80::1")}, locals)
}

func TestValidate(t *testing.T) {
	base := func() Options {
		return Options{
			Interface:        "eth0",
			Capacity:         10,
			FlushInterval:    time.Second,
			ExternalInterval: time.Second,
			ReportInterval:   time.Second,
		}
	}

	o := base()
	require.NoError(t, o.Validate())

	o = base()
	o.Interface = ""
	assert.ErrorIs(t, o.Validate(), ErrNoSource)

	o = base()
	o.PcapFile = "x.pcap"
	assert.ErrorIs(t, o.Validate(), ErrTwoSources)

	o = base()
	o.Interface, o.PcapFile, o.BPFObject = "", "x.pcap", "sia.o"
	assert.ErrorIs(t, o.Validate(), ErrBPFNeedsDev)

	o = base()
	o.Capacity = 0
	assert.Error(t, o.Validate())

	o = base()
	o.LocalAddrs = []string{"not-an-ip"}
	assert.Error(t, o.Validate())

	o = base()
	o.Appwrite = Appwrite{Endpoint: "e", Project: "p", APIKey: "k"}
	assert.Error(t, o.Validate())
}

func TestExitCode(t *testing.T) {
	_, helpErr := Parse([]string{"--help"})
	require.Error(t, helpErr)
	_, flagErr := Parse([]string{"--no-such-flag"})
	require.Error(t, flagErr)
	_, validateErr := Parse([]string{"--read", "a.pcap", "--interface", "eth0"})
	require.ErrorIs(t, validateErr, ErrTwoSources)

	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"none", nil, 0, ""},
		{"help", helpErr, 0, ""},
		{"unknown flag", flagErr, 2, ""},
		{"validation", validateErr, 2, ErrTwoSources.Error()},
		{"wrapped", fmt.Errorf("config: %w", errors.New("bad")), 2, "config: bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := ExitCode(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, msg)
		})
	}
}
