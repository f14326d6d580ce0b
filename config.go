/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultAPIKey    = "devkey"
	defaultAPISecret = "secret"

	minSessionTimeout = time.Second
)

type Config struct {
	apiKey         string
	apiSecret      string
	bind           string
	credentialsURL string
	livekitURL     string
	messageRate    float64
	personas       string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	tokenTTL       time.Duration
	verbose        bool
	version        bool

	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.messageRate <= 0 {
		return fmt.Errorf("invalid message rate (must be greater than 0): %v", c.messageRate)
	}
	if c.sessionTimeout != 0 && c.sessionTimeout < minSessionTimeout {
		return fmt.Errorf("invalid session timeout (must be 0 or at least %s): %s", minSessionTimeout, c.sessionTimeout)
	}
	if c.tokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl (must be greater than 0): %s", c.tokenTTL)
	}
	return nil
}

// defaultCredentials reports whether tokens are still signed with the
// well-known development key and secret.
func (c *Config) defaultCredentials() bool {
	return c.apiKey == defaultAPIKey && c.apiSecret == defaultAPISecret
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: logDate,
		NoColor:    true,
	}).With().Timestamp().Logger()
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DEBATEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "debatebox",
		Short:         "An AI debate arena: pick a topic and personas, then argue with them in a live room.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.logger = newLogger()
			if cfg.defaultCredentials() && cfg.credentialsURL == "" {
				cfg.logger.Warn().Msg("room tokens are signed with the default --api-key and --api-secret; anyone can forge them")
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.apiKey, "api-key", defaultAPIKey, "key used to sign room tokens (env: DEBATEBOX_API_KEY)")
	fs.StringVar(&cfg.apiSecret, "api-secret", defaultAPISecret, "secret used to sign room tokens (env: DEBATEBOX_API_SECRET)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DEBATEBOX_BIND)")
	fs.StringVar(&cfg.credentialsURL, "credentials-url", "", "fetch room credentials from this backend instead of issuing them (env: DEBATEBOX_CREDENTIALS_URL)")
	fs.StringVar(&cfg.livekitURL, "livekit-url", "wss://your-livekit-host:443", "media server address handed out with tokens (env: DEBATEBOX_LIVEKIT_URL)")
	fs.Float64Var(&cfg.messageRate, "message-rate", 1, "messages per second each participant may send (env: DEBATEBOX_MESSAGE_RATE)")
	fs.StringVar(&cfg.personas, "personas", "", "path to a YAML persona catalog (env: DEBATEBOX_PERSONAS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DEBATEBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: DEBATEBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: DEBATEBOX_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle debate rooms are closed (env: DEBATEBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: DEBATEBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: DEBATEBOX_TLS_KEY)")
	fs.DurationVar(&cfg.tokenTTL, "token-ttl", 2*time.Hour, "lifetime of issued room tokens (env: DEBATEBOX_TOKEN_TTL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DEBATEBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: DEBATEBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("debatebox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
