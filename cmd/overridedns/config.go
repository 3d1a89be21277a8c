package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

type config struct {
	Title       string
	Log         logConfig
	Upstream    upstream
	Coordinator coordinator
	Listeners   map[string]listener
	Rules       []rule
	Admin       *admin
	Syslog      *syslogConfig
}

type logConfig struct {
	Level  string // panic, fatal, error, warn, info, debug, trace
	Format string // text or json
}

type upstream struct {
	Address       string
	Protocol      string
	Timeout       string // Go duration, e.g. "1s"
	TruncateRetry bool   `toml:"truncate-retry"`
	MaxConcurrent int64  `toml:"max-concurrent"`
}

type coordinator struct {
	ChaseLocal bool `toml:"chase-local"`
}

type listener struct {
	Address    string
	Protocol   string
	AllowedNet []string `toml:"allowed-net"`
}

type rule struct {
	Name    string
	Match   string // exact, prefix, domain, regexp
	Records []record
}

type record struct {
	Type  string
	Value string
	TTL   uint32
}

type admin struct {
	Address string
}

type syslogConfig struct {
	Network     string
	Address     string
	Priority    int
	Tag         string
	LogRequest  bool `toml:"log-request"`
	LogResponse bool `toml:"log-response"`
}

// LoadConfig reads a config file and returns the decoded structure.
func loadConfig(name string) (config, error) {
	var c config
	f, err := os.Open(name)
	if err != nil {
		return c, err
	}
	defer f.Close()
	_, err = toml.NewDecoder(f).Decode(&c)
	return c, err
}
