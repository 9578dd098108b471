package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configinfra "kilometers.ai/shop/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// app carries what the commands of one invocation share
type app struct {
	open OpenFunc

	configPath string
	apiURL     string
	profile    string
	debug      bool

	nav *Navigator
	svc *Services
}

// NewRootCommand builds the shop command tree. open is called lazily, only
// by commands that talk to the backend.
func NewRootCommand(open OpenFunc) *cobra.Command {
	a := &app{open: open}

	rootCmd := &cobra.Command{
		Use:   "shop",
		Short: "Storefront client for the terminal",
		Long: `shop browses products, manages the cart and posts reviews against the
storefront API. Access tokens are refreshed automatically; when the session
can not be refreshed you are asked to log in again.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file path (default is $HOME/.config/shop/config.yaml)")
	flags.StringVar(&a.apiURL, "api-url", configinfra.DefaultAPIURL, "Storefront API base URL")
	flags.StringVar(&a.profile, "profile", "default", "Credential profile to use")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAuthCommand(a))
	rootCmd.AddCommand(newProductsCommand(a))
	rootCmd.AddCommand(newCartCommand(a))
	rootCmd.AddCommand(newReviewsCommand(a))
	rootCmd.AddCommand(newBrowseCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))
	rootCmd.AddCommand(newVersionCommand())

	a.finishOnError(rootCmd)
	return rootCmd
}

// finishOnError routes RunE failures through finish, since cobra skips the
// post-run hooks once a command has failed
func (a *app) finishOnError(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.finishOnError(sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err == nil {
			return nil
		}
		if finishErr := a.finish(); finishErr != nil {
			return finishErr
		}
		return err
	}
}

// overrides returns the flags the user actually set, keyed by config key
func (a *app) overrides(cmd *cobra.Command) map[string]interface{} {
	out := map[string]interface{}{}
	if cmd.Flags().Changed("api-url") {
		out[configdomain.KeyAPIURL] = a.apiURL
	}
	if cmd.Flags().Changed("profile") {
		out[configdomain.KeyProfile] = a.profile
	}
	if cmd.Flags().Changed("debug") {
		out[configdomain.KeyDebug] = a.debug
	}
	return out
}

func (a *app) snapshot(cmd *cobra.Command) (configdomain.Snapshot, error) {
	loader := configinfra.NewUnifiedLoader(a.configPath, nil)
	snap, err := loader.LoadSnapshot(cmd.Context(), configinfra.LoadOptions{Overrides: a.overrides(cmd)})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return snap, nil
}

// services opens the backend components on first use
func (a *app) services(cmd *cobra.Command) (*Services, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	snap, err := a.snapshot(cmd)
	if err != nil {
		return nil, err
	}

	a.nav = NewNavigator(cmd.ErrOrStderr())
	svc, err := a.open(cmd.Context(), configdomain.FromSnapshot(snap), a.nav)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	a.svc = svc
	return svc, nil
}

// finish releases the services and fails the command when the session was
// lost along the way
func (a *app) finish() error {
	a.close()
	if a.nav != nil {
		if _, navigated := a.nav.Navigated(); navigated {
			return ErrSessionExpired
		}
	}
	return nil
}

func (a *app) close() {
	if a.svc != nil && a.svc.Close != nil {
		a.svc.Close()
		a.svc.Close = nil
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "shop %s\n", Version)
			fmt.Fprintf(out, "Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "Go version: %s\n", goVersion())
			fmt.Fprintf(out, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the command tree, printing any error and exiting 1
func Execute(open OpenFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand(open)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
