package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	odns "github.com/folbricht/overridedns"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	logLevel  string
	checkOnly bool
}

func main() {
	var opt options
	cmd := &cobra.Command{
		Use:   "overridedns <config>",
		Short: "DNS proxy with local override rules",
		Long: `DNS proxy with local override rules.

Listens for DNS queries over UDP and TCP. Names matching
one of the configured rules are answered locally with the
records of the rule, everything else is forwarded to an
upstream resolver. CNAME records in rules are returned
together with the upstream A records of their target.
`,
		Example: `  overridedns config.toml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(opt, args)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&opt.logLevel, "log-level", "l", "", "log level; panic, fatal, error, warn, info, debug, trace. Overrides the config")
	cmd.Flags().BoolVarP(&opt.checkOnly, "check", "c", false, "validate the config and exit")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func start(opt options, args []string) error {
	config, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	if err := configureLogger(config.Log, opt.logLevel); err != nil {
		return err
	}

	rules, err := instantiateRules(config.Rules)
	if err != nil {
		return err
	}
	upstream, timeout, err := instantiateUpstream(config.Upstream)
	if err != nil {
		return err
	}
	forwarder := odns.NewForwarder("forwarder", upstream, odns.ForwarderOptions{
		Timeout:       timeout,
		MaxConcurrent: config.Upstream.MaxConcurrent,
	})
	coordinator := odns.NewCoordinator("coordinator", rules, forwarder, odns.CoordinatorOptions{
		ChaseLocal: config.Coordinator.ChaseLocal,
	})
	odns.Log.WithField("rules", rules.Len()).WithField("upstream", upstream.String()).Debug("loaded rules")

	var resolver odns.Resolver = coordinator
	if s := config.Syslog; s != nil {
		sl, err := odns.NewSyslog("syslog", coordinator, odns.SyslogOptions{
			Network:     s.Network,
			Address:     s.Address,
			Priority:    s.Priority,
			Tag:         s.Tag,
			LogRequest:  s.LogRequest,
			LogResponse: s.LogResponse,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize syslog: %w", err)
		}
		defer sl.Close()
		resolver = sl
	}

	if len(config.Listeners) == 0 {
		return errors.New("no listeners defined")
	}
	var listeners []odns.Listener
	for _, id := range listenerKeyOrder(config.Listeners) {
		l, err := instantiateListener(id, config.Listeners[id], resolver)
		if err != nil {
			return err
		}
		listeners = append(listeners, l)
	}
	if config.Admin != nil {
		listeners = append(listeners, odns.NewAdminListener("admin", config.Admin.Address))
	}

	if opt.checkOnly {
		return nil
	}

	// Start the listeners, restarting them if they fail
	for _, l := range listeners {
		go func(l odns.Listener) {
			for {
				err := l.Start()
				odns.Log.WithError(err).WithField("id", l.String()).Error("listener failed")
				time.Sleep(time.Second)
			}
		}(l)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	for _, l := range listeners {
		if err := l.Stop(); err != nil {
			odns.Log.WithError(err).WithField("id", l.String()).Warn("failed to stop listener")
		}
	}
	odns.Log.Info("stopped")
	return nil
}

func configureLogger(c logConfig, levelOverride string) error {
	level := c.Level
	if levelOverride != "" {
		level = levelOverride
	}
	if level != "" {
		l, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		odns.Log.SetLevel(l)
	}
	switch c.Format {
	case "", "text":
		odns.Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		odns.Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unsupported log format '%s'", c.Format)
	}
	return nil
}

// Listeners are started in a predictable order.
func listenerKeyOrder(listeners map[string]listener) []string {
	var keys []string
	for id := range listeners {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
