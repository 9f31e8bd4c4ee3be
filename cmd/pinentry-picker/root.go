package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	pinentry "github.com/joshp123/pinentry-picker"
	"github.com/joshp123/pinentry-picker/internal/config"
	"github.com/joshp123/pinentry-picker/internal/logging"
	"github.com/joshp123/pinentry-picker/internal/version"
)

// gpgFlags are the options gpg-agent passes to every pinentry.
type gpgFlags struct {
	display    string
	ttyName    string
	ttyType    string
	lcCtype    string
	lcMessages string
}

// environment maps the agent's terminal details onto the variables a
// picker expects.
func (flags gpgFlags) environment() map[string]string {
	env := map[string]string{}
	set := func(key string, value string) {
		if value != "" {
			env[key] = value
		}
	}
	set("DISPLAY", flags.display)
	set("GPG_TTY", flags.ttyName)
	set("TERM", flags.ttyType)
	set("LC_CTYPE", flags.lcCtype)
	set("LC_MESSAGES", flags.lcMessages)
	return env
}

func newRootCommand() *cobra.Command {
	var (
		configFile string
		gpg        gpgFlags
	)

	rootCmd := &cobra.Command{
		Use:   "pinentry-picker",
		Short: "Pinentry that asks an external picker such as anyrun for the passphrase",
		Long: "pinentry-picker speaks the pinentry Assuan protocol on stdin/stdout. " +
			"For every GETPIN it starts the configured picker, sends it the prompt " +
			"title and description, and returns the line the picker prints.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, configFile, gpg)
		},
	}
	// gpg-agent versions add pinentry options over time.
	rootCmd.FParseErrWhitelist.UnknownFlags = true

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (TOML); defaults to $"+config.ConfigEnv+" or $XDG_CONFIG_HOME/pinentry-picker/config.toml")
	flags.String("picker", "", "picker executable (default anyrun)")
	flags.StringArray("picker-arg", nil, "argument passed to the picker; repeat for more")
	flags.String("format", "", "picker config encoding: ron, json or yaml")
	flags.Duration("picker-timeout", 0, "give up on a picker after this long (0 waits forever)")
	flags.Bool("lenient-unknown", false, "acknowledge unknown commands instead of failing them")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")
	flags.String("log-file", "", "append logs to this file instead of stderr")

	flags.StringVarP(&gpg.display, "display", "D", "", "X display for the picker")
	flags.StringVarP(&gpg.ttyName, "ttyname", "T", "", "terminal of the gpg client")
	flags.StringVarP(&gpg.ttyType, "ttytype", "N", "", "terminal type of the gpg client")
	flags.StringVarP(&gpg.lcCtype, "lc-ctype", "C", "", "LC_CTYPE for the picker")
	flags.StringVarP(&gpg.lcMessages, "lc-messages", "M", "", "LC_MESSAGES for the picker")
	addIgnoredFlags(flags)

	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// addIgnoredFlags accepts the standard pinentry options that make no sense
// for an external picker.
func addIgnoredFlags(flags *pflag.FlagSet) {
	const usage = "accepted for gpg-agent compatibility; ignored"
	flags.BoolP("debug", "d", false, usage)
	flags.BoolP("no-global-grab", "g", false, usage)
	flags.StringP("parent-wid", "W", "", usage)
	flags.IntP("timeout", "o", 0, usage)
	flags.StringP("colors", "c", "", usage)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "pinentry-picker", version.RichVersion())
			return err
		},
	}
}

func runSession(cmd *cobra.Command, configFile string, gpg gpgFlags) error {
	c, err := config.Load(config.LoadOptions{File: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := logging.New(c.LogConfig(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	logger = logging.WithSession(logger)

	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		logger.Warn("stdin is a terminal; pinentry-picker is normally started by gpg-agent")
	}

	pickerOptions, err := c.PickerOptions()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for key, value := range gpg.environment() {
		if _, explicit := pickerOptions.Environment[key]; !explicit {
			pickerOptions.Environment[key] = value
		}
	}
	pickerOptions.Logger = logger

	gateway, err := pinentry.NewPickerGateway(pickerOptions)
	if err != nil {
		return err
	}

	logger.Info("session starting",
		"picker", pickerOptions.Command,
		"format", string(pickerOptions.Format),
		"config", c.Path,
	)

	err = pinentry.Serve(cmd.Context(), in, cmd.OutOrStdout(), gateway, pinentry.Options{
		LenientUnknown: c.Session.LenientUnknown,
		Info: pinentry.Info{
			Version: version.Version(),
			PID:     os.Getpid(),
			TTYName: gpg.ttyName,
			TTYType: gpg.ttyType,
			Display: gpg.display,
		},
		Logger: logger,
	})
	if errors.Is(err, pinentry.ErrCancelled) {
		logger.Info("session ended by cancellation")
		return nil
	}
	if err != nil {
		logger.Error("session failed", "error", err)
		return err
	}
	return nil
}
