// Package cli is the lumprov command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hnrobert/lumprov/internal/auth"
	"github.com/hnrobert/lumprov/internal/config"
	"github.com/hnrobert/lumprov/internal/credential"
	"github.com/hnrobert/lumprov/internal/hostfs"
	"github.com/hnrobert/lumprov/internal/identity"
	"github.com/hnrobert/lumprov/internal/logger"
	"github.com/hnrobert/lumprov/internal/reconcile"
	"github.com/hnrobert/lumprov/internal/report"
	"github.com/hnrobert/lumprov/internal/runner"
	"github.com/hnrobert/lumprov/internal/usercmd"
	"github.com/hnrobert/lumprov/internal/usermgr"
)

// Options holds the command-line flags. Only flags set explicitly override
// the configuration file and environment.
type Options struct {
	ConfigPath     string
	Backend        string
	HostRoot       string
	PasswordLength int
	Credentials    string
	LogPath        string
	HomeRoot       string
	Shell          string
	Verify         bool
	Report         string
}

// Env is the process environment the command runs in.
type Env struct {
	Euid   func() int
	Getenv func(string) string
	Stdout io.Writer
	// NewStore opens the identity backend; nil selects the configured one.
	NewStore func(cfg config.Config) (identity.Store, error)
	// NewVerifier builds the post-set password check; nil selects the default.
	NewVerifier func(cfg config.Config) (credential.Verifier, error)
}

func DefaultEnv() Env {
	return Env{Euid: os.Geteuid, Getenv: os.Getenv, Stdout: os.Stdout}
}

const usage = "usage: lumprov [flags] <input-file>"

func NewRootCommand(env Env) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "lumprov [flags] <input-file>",
		Short: "Provision users and groups from a batch file",
		Long: "lumprov reads lines of the form \"username; group1,group2\" and makes sure each\n" +
			"user exists with the listed supplementary groups, a private home directory\n" +
			"and a freshly generated password recorded in the credential file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return WrapExitError(ExitMissingInput, usage, fmt.Errorf("expected one input file, got %d arguments", len(args)))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, opts, args)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitMissingInput, usage, err)
	})

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.Backend, "backend", string(config.BackendCommand), "identity backend (command|files)")
	f.StringVar(&opts.HostRoot, "host-root", config.DefaultHostRoot, "host filesystem root for the files backend")
	f.IntVar(&opts.PasswordLength, "password-length", config.DefaultPasswordLength, "generated password length")
	f.StringVar(&opts.Credentials, "credentials", config.DefaultCredentialsPath, "credential store path")
	f.StringVar(&opts.LogPath, "log", config.DefaultLogPath, "audit log path")
	f.StringVar(&opts.HomeRoot, "home-root", config.DefaultHomeRoot, "parent directory of home directories")
	f.StringVar(&opts.Shell, "shell", config.DefaultShell, "login shell for new users")
	f.BoolVar(&opts.Verify, "verify", false, "verify each password against the shadow database after setting it")
	f.StringVar(&opts.Report, "report", "", "write a run report (.md, .html, .yaml)")

	return cmd
}

// Execute runs the command with the process arguments and returns the exit
// code.
func Execute() int {
	cmd := NewRootCommand(DefaultEnv())
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lumprov:", err)
	}
	return GetExitCode(err)
}

func run(cmd *cobra.Command, env Env, opts *Options, args []string) error {
	euid := os.Geteuid
	if env.Euid != nil {
		euid = env.Euid
	}
	input, err := runner.Preflight(euid(), args)
	switch {
	case errors.Is(err, runner.ErrNotRoot):
		return WrapExitError(ExitNotRoot, "preflight", err)
	case errors.Is(err, runner.ErrMissingInput):
		return WrapExitError(ExitMissingInput, usage, err)
	case errors.Is(err, runner.ErrInputNotFound):
		return WrapExitError(ExitInputNotFound, "preflight", err)
	case err != nil:
		return WrapExitError(ExitInputNotFound, "preflight", err)
	}

	cfg, err := loadConfig(cmd, env, opts)
	if err != nil {
		return WrapExitError(ExitSetup, "configuration", err)
	}
	if opts.Report != "" && !report.Supported(opts.Report) {
		return WrapExitError(ExitSetup, "report", fmt.Errorf("unsupported format %q", filepath.Ext(opts.Report)))
	}

	logSink, err := runner.OpenSink(cfg.LogPath)
	if err != nil {
		return WrapExitError(ExitSetup, "log file", err)
	}
	defer logSink.Close()
	credSink, err := runner.OpenSink(cfg.CredentialsPath)
	if err != nil {
		return WrapExitError(ExitSetup, "credential store", err)
	}
	defer credSink.Close()

	stdout := env.Stdout
	if stdout == nil {
		stdout = cmd.OutOrStdout()
	}
	log := logger.New(logSink, stdout)

	store, err := openStore(env, cfg)
	if err != nil {
		return WrapExitError(ExitSetup, "identity backend", err)
	}
	verifier, err := openVerifier(env, cfg)
	if err != nil {
		return WrapExitError(ExitSetup, "password verification", err)
	}

	f, err := os.Open(input)
	if err != nil {
		return WrapExitError(ExitSetup, "open input", err)
	}
	defer f.Close()

	ctl := &runner.Controller{
		Reconciler: &reconcile.Reconciler{
			Store:    store,
			Log:      log,
			HomeRoot: cfg.HomeRoot,
			Shell:    cfg.Shell,
		},
		Issuer: &credential.Issuer{
			Setter:   store,
			Sink:     credential.NewStore(credSink),
			Log:      log,
			Length:   cfg.PasswordLength,
			Verifier: verifier,
		},
		Log: log,
	}
	sum, err := ctl.Run(input, f)
	if err != nil {
		return WrapExitError(ExitSetup, "input", err)
	}
	if lerr := log.Err(); lerr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "lumprov: warning: audit log incomplete: %v\n", lerr)
	}
	if opts.Report != "" {
		if err := report.Write(opts.Report, sum); err != nil {
			return WrapExitError(ExitSetup, "report", err)
		}
	}
	return nil
}

func loadConfig(cmd *cobra.Command, env Env, opts *Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(env.Getenv); err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("backend") {
		cfg.Backend = config.Backend(strings.ToLower(opts.Backend))
	}
	if f.Changed("host-root") {
		cfg.HostRoot = opts.HostRoot
	}
	if f.Changed("password-length") {
		cfg.PasswordLength = opts.PasswordLength
	}
	if f.Changed("credentials") {
		cfg.CredentialsPath = opts.Credentials
	}
	if f.Changed("log") {
		cfg.LogPath = opts.LogPath
	}
	if f.Changed("home-root") {
		cfg.HomeRoot = opts.HomeRoot
	}
	if f.Changed("shell") {
		cfg.Shell = opts.Shell
	}
	if f.Changed("verify") {
		cfg.VerifyPasswords = opts.Verify
	}
	return cfg, cfg.Validate()
}

func openStore(env Env, cfg config.Config) (identity.Store, error) {
	if env.NewStore != nil {
		return env.NewStore(cfg)
	}
	switch cfg.Backend {
	case config.BackendFiles:
		return usermgr.New(hostfs.Root(cfg.HostRoot))
	default:
		r := usercmd.New()
		r.Timeout = cfg.CommandTimeout
		return r, nil
	}
}

func openVerifier(env Env, cfg config.Config) (credential.Verifier, error) {
	if !cfg.VerifyPasswords {
		return nil, nil
	}
	if env.NewVerifier != nil {
		return env.NewVerifier(cfg)
	}
	if cfg.Backend == config.BackendFiles {
		shadow, err := hostfs.Root(cfg.HostRoot).Abs(hostfs.EtcShadow)
		if err != nil {
			return nil, err
		}
		return &auth.Verifier{ShadowPath: shadow}, nil
	}
	return &auth.Verifier{ShadowPath: hostfs.EtcShadow, UseSu: true}, nil
}
