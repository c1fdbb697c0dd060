package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmksnnk/skirmish/internal/netplay"
	"github.com/dmksnnk/skirmish/internal/session"
)

const commandsUsage = `
Commands:
  host - host a game and wait for a friend to join
  join - join a game hosted by a friend`

// envConfig holds tuning knobs which rarely change between runs.
type envConfig struct {
	LogLevel     slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	TickRate     int           `env:"TICK_RATE" envDefault:"60"`
	JoinTimeout  time.Duration `env:"JOIN_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"1s"`
	// MaxSendRate limits snapshots per second, 0 means no limit.
	MaxSendRate float64 `env:"MAX_SEND_RATE" envDefault:"0"`
	// StatusInterval is how often the peer's pose is logged.
	StatusInterval time.Duration `env:"STATUS_INTERVAL" envDefault:"1s"`
}

func parseEnv() (envConfig, error) {
	cfg, err := env.ParseAsWithOptions[envConfig](env.Options{Prefix: "SKIRMISH_"})
	if err != nil {
		return envConfig{}, err
	}

	if cfg.TickRate <= 0 {
		return envConfig{}, fmt.Errorf("invalid tick rate %d", cfg.TickRate)
	}
	if cfg.StatusInterval <= 0 {
		return envConfig{}, fmt.Errorf("invalid status interval %s", cfg.StatusInterval)
	}

	return cfg, nil
}

type commandConfig struct {
	FS *flag.FlagSet

	Command string
}

func (c *commandConfig) Parse(args []string) error {
	c.FS = flag.NewFlagSet("skirmish", flag.ExitOnError)
	c.FS.Usage = func() {
		fmt.Fprintln(c.FS.Output()) // newline
		fmt.Fprintln(c.FS.Output(), "Usage: skirmish COMMAND [OPTIONS]")
		fmt.Fprintln(c.FS.Output(), commandsUsage)

		fmt.Fprintln(c.FS.Output()) // newline
		fmt.Fprintln(c.FS.Output(), "Environment:")
		fmt.Fprintln(c.FS.Output(), "  SKIRMISH_LOG_LEVEL, SKIRMISH_TICK_RATE, SKIRMISH_JOIN_TIMEOUT,")
		fmt.Fprintln(c.FS.Output(), "  SKIRMISH_WRITE_TIMEOUT, SKIRMISH_MAX_SEND_RATE, SKIRMISH_STATUS_INTERVAL")
	}

	if err := c.FS.Parse(args); err != nil {
		return err
	}

	if len(c.FS.Args()) < 1 {
		return errors.New("missing command")
	}

	c.Command = c.FS.Args()[0]

	return nil
}

type hostConfig struct {
	FS   *flag.FlagSet
	Port int
}

func (c *hostConfig) Parse(args []string) error {
	c.FS = flag.NewFlagSet("host", flag.ExitOnError)
	c.FS.Usage = func() {
		fmt.Fprintln(c.FS.Output())
		fmt.Fprintln(c.FS.Output(), "Usage: skirmish host [OPTIONS]")
		fmt.Fprintln(c.FS.Output(), "Options:")
		c.FS.PrintDefaults()
	}

	c.FS.IntVar(&c.Port, "port", netplay.DefaultPort, "the port to host the game on")

	if err := c.FS.Parse(args); err != nil {
		return err
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	return nil
}

type joinConfig struct {
	FS   *flag.FlagSet
	Addr string
	Code session.Code
}

func (c *joinConfig) Parse(args []string) error {
	c.FS = flag.NewFlagSet("join", flag.ExitOnError)
	c.FS.Usage = func() {
		fmt.Fprintln(c.FS.Output())
		fmt.Fprintln(c.FS.Output(), "Usage: skirmish join [OPTIONS]")
		fmt.Fprintln(c.FS.Output(), "Options:")
		c.FS.PrintDefaults()
	}

	c.FS.StringVar(&c.Addr, "addr", "", "host address as IP or IP:port (required)")
	c.FS.TextVar(&c.Code, "code", session.Code{}, "the game code shown by the host, only used for display")

	if err := c.FS.Parse(args); err != nil {
		return err
	}

	if c.Addr == "" {
		return errors.New("missing host address")
	}

	return nil
}

func abort(fs *flag.FlagSet, err error) {
	fmt.Fprintf(fs.Output(), "Error: %v\n", err)
	fs.Usage()
	os.Exit(2)
}
