// Package config parses command line flags and their environment variables.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	flags "github.com/jessevdk/go-flags"
)

// Options of the sniffer. Every flag can also be set from the environment.
type Options struct {
	Interface  string   `short:"i" long:"interface" env:"INTERFACE" description:"capture live traffic on this interface"`
	PcapFile   string   `short:"r" long:"read" env:"PCAP_FILE" description:"replay a pcap file instead of capturing"`
	BPFObject  string   `long:"bpf-object" env:"BPF_OBJECT" description:"use the eBPF pair counters from this object file on --interface"`
	LocalAddrs []string `long:"local" env:"LOCAL_ADDRS" env-delim:"," description:"addresses of the sniffed host (default: addresses of --interface)"`

	ReportPath     string        `long:"report" env:"REPORT_PATH" default:"report.txt" description:"report file"`
	ReportInterval time.Duration `long:"report-interval" env:"REPORT_INTERVAL" default:"1m" description:"report rewrite interval"`
	LiveInterval   time.Duration `long:"live-interval" env:"LIVE_INTERVAL" default:"30s" description:"live display refresh interval, 0 disables it"`
	Capacity       int           `long:"capacity" env:"CAPACITY" default:"100000" description:"maximum number of tracked pairs"`

	SQLitePath       string        `long:"sqlite" env:"SQLITE_PATH" default:"data/traffic.db" description:"SQLite database, empty disables persistence"`
	FlushInterval    time.Duration `long:"flush-interval" env:"FLUSH_INTERVAL" default:"1m" description:"SQLite flush interval"`
	ExternalInterval time.Duration `long:"external-interval" env:"EXTERNAL_INTERVAL" default:"5m" description:"Appwrite push interval"`
	MetricsAddr      string        `long:"metrics" env:"METRICS_ADDR" description:"serve Prometheus metrics on this address"`

	Appwrite Appwrite `group:"Appwrite" namespace:"appwrite" env-namespace:"APPWRITE"`

	LogOutput string `long:"log-output" env:"LOG_OUTPUT" default:"stdout" description:"stdout, stderr or a file path"`
	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"debug, info, warn or error"`
}

// Appwrite holds the external store settings. The push is disabled unless
// endpoint, project and key are all set.
type Appwrite struct {
	Endpoint string `long:"endpoint" env:"ENDPOINT" description:"Appwrite endpoint"`
	Project  string `long:"project" env:"PROJECT" description:"Appwrite project"`
	APIKey   string `long:"api-key" env:"API_KEY" description:"Appwrite API key"`
	Database string `long:"database" env:"DATABASE" description:"Appwrite database id"`
	Table    string `long:"table" env:"TABLE" description:"Appwrite table id"`
}

// Enabled reports whether the Appwrite client can be built.
func (a Appwrite) Enabled() bool {
	return a.Endpoint != "" && a.Project != "" && a.APIKey != ""
}

var (
	ErrNoSource    = errors.New("one of --interface or --read is required")
	ErrTwoSources  = errors.New("--interface and --read are mutually exclusive")
	ErrBPFNeedsDev = errors.New("--bpf-object requires --interface")
)

// Parse parses args (without the program name).
func Parse(args []string) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// ExitCode maps a Parse error to the process exit code and the message
// still to be printed. The flag parser has already printed its own errors
// and the help text.
func ExitCode(err error) (int, string) {
	var ferr *flags.Error
	switch {
	case err == nil:
		return 0, ""
	case errors.As(err, &ferr) && ferr.Type == flags.ErrHelp:
		return 0, ""
	case errors.As(err, &ferr):
		return 2, ""
	}
	return 2, err.Error()
}

// Validate checks option combinations the flag parser cannot express.
func (o *Options) Validate() error {
	switch {
	case o.Interface == "" && o.PcapFile == "":
		return ErrNoSource
	case o.Interface != "" && o.PcapFile != "":
		return ErrTwoSources
	case o.BPFObject != "" && o.Interface == "":
		return ErrBPFNeedsDev
	}
	if o.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", o.Capacity)
	}
	if o.FlushInterval <= 0 || o.ExternalInterval <= 0 || o.ReportInterval <= 0 {
		return errors.New("flush, external and report intervals must be positive")
	}
	if o.Appwrite.Enabled() && (o.Appwrite.Database == "" || o.Appwrite.Table == "") {
		return errors.New("missing APPWRITE_DATABASE or APPWRITE_TABLE")
	}
	_, err := o.Locals()
	return err
}

// Locals parses LocalAddrs.
func (o *Options) Locals() ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(o.LocalAddrs))
	for _, s := range o.LocalAddrs {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("local address %q: %w", s, err)
		}
		out = append(out, a.Unmap())
	}
	return out, nil
}
