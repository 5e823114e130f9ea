package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags defines the pump's command-line flags on fs. Only flags the
// user actually sets override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "YAML config file (env "+EnvConfig+")")
	fs.StringP("dumpfile", "f", DefaultPath, "path to the aircraft.json file (env "+EnvPath+")")
	fs.StringP("endpoint", "e", DefaultEndpoint, "destination URL: ws, wss, grpc, grpcs, http or https (env "+EnvEndpoint+")")
	fs.StringP("secret", "s", DefaultSecret, "secret injected into each payload (env "+EnvSecret+")")
	fs.String("trigger", DefaultTrigger, "poll or watch (env "+EnvTrigger+")")
	fs.Duration("interval", DefaultInterval, "polling interval (env "+EnvInterval+")")
	fs.Duration("backoff", DefaultBackoff, "wait between connection attempts (env "+EnvBackoff+")")
	fs.Duration("write-timeout", DefaultWriteTimeout, "bound on each probe and send (env "+EnvWriteTimeout+")")
	fs.String("mode", DefaultMode, "structured or raw (env "+EnvMode+")")
	fs.String("metrics-addr", "", "address for /metrics and /healthz, empty to disable (env "+EnvMetricsAddr+")")
	fs.String("log-level", DefaultLogLevel, "debug, info, warn or error (env "+EnvLogLevel+")")
	fs.String("log-format", DefaultLogFormat, "json or text (env "+EnvLogFormat+")")
	fs.Bool("insecure-skip-verify", false, "skip TLS certificate verification (env "+EnvSkipVerify+")")
	fs.String("ca-file", "", "PEM bundle of trusted CAs (env "+EnvCAFile+")")
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func()) {
		if err != nil {
			return
		}
		if f := fs.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	str := func(name string, dst *string) {
		set(name, func() { *dst, err = fs.GetString(name) })
	}

	str("dumpfile", &cfg.Path)
	str("endpoint", &cfg.Endpoint)
	str("secret", &cfg.Secret)
	str("trigger", &cfg.Trigger)
	str("mode", &cfg.Mode)
	str("metrics-addr", &cfg.MetricsAddr)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	str("ca-file", &cfg.TLS.CAFile)
	set("interval", func() { cfg.Interval, err = fs.GetDuration("interval") })
	set("backoff", func() { cfg.Backoff, err = fs.GetDuration("backoff") })
	set("write-timeout", func() { cfg.WriteTimeout, err = fs.GetDuration("write-timeout") })
	set("insecure-skip-verify", func() { cfg.TLS.InsecureSkipVerify, err = fs.GetBool("insecure-skip-verify") })
	return err
}
