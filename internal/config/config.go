// Package config translates launch arguments (CLI flags) into the
// single configuration record the rest of the server is built from.
// Argument parsing itself is an external-collaborator concern per
// spec.md §1; this package is the thin shell that feeds it into the
// core.
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// ReplicaOf names the master this instance should replicate from.
type ReplicaOf struct {
	Host string
	Port int
}

// Config is the fully parsed launch configuration.
type Config struct {
	Host      string
	Port      int
	ReplicaOf *ReplicaOf
	LogLevel  string
}

const defaultPort = 6379

// Parse parses args (typically os.Args[1:]) into a Config. Unlike the
// teacher's package-level flag.Parse against the global flag set, this
// uses its own flag.FlagSet so it can be called more than once, which
// keeps it testable.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("goredis-server", flag.ContinueOnError)

	port := fs.Int("port", defaultPort, "TCP listen port")
	fs.IntVar(port, "p", defaultPort, "TCP listen port (shorthand)")
	replicaof := fs.String("replicaof", "", `run as a replica of "<host> <port>"`)
	loglevel := fs.String("loglevel", "info", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:     "0.0.0.0",
		Port:     *port,
		LogLevel: *loglevel,
	}

	if strings.TrimSpace(*replicaof) != "" {
		target, err := parseReplicaOf(*replicaof)
		if err != nil {
			return nil, err
		}
		cfg.ReplicaOf = target
	}

	return cfg, nil
}

func parseReplicaOf(s string) (*ReplicaOf, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return nil, fmt.Errorf(`config: --replicaof must be "<host> <port>", got %q`, s)
	}
	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("config: invalid replicaof port %q: %w", fields[1], err)
	}
	return &ReplicaOf{Host: fields[0], Port: port}, nil
}
