package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/pterm/pterm"

	"github.com/brizzai/agent-settings/internal/config"
	"github.com/brizzai/agent-settings/internal/logger"
	"github.com/brizzai/agent-settings/internal/server"
	"github.com/brizzai/agent-settings/internal/store"
	"github.com/brizzai/agent-settings/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agent-settings",
	Short: "A tool to manage code agent CLI settings",
	Long: `Agent Settings is a CLI tool that manages the environment variables and
credentials stored on your user profile for the Claude Code and Codex CLIs.
Run it without arguments to edit settings interactively, or run "serve" to
expose the same settings over MCP.`,
	Run: runTUI,
}

// serveCmd runs the MCP server so the agent CLIs can read and update
// their own settings.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP settings server",
	RunE:  runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags()
	// Let cobra parse the shared flag set so viper sees the values
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	rootCmd.AddCommand(serveCmd)
}

// runTUI is the main function that runs the TUI
func runTUI(cmd *cobra.Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	// The TUI owns stdout, so logs go to file only
	cfg.Logging.DisableConsole = true
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		pterm.Error.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	client := store.NewHTTPClient(store.HTTPClientParams{
		ServiceConfig: &cfg.ProfileService,
		AuthManager:   store.NewHTTPAuthManager(&cfg.ProfileService),
	})
	cache := store.NewCache(client)

	p := tea.NewProgram(tui.NewAppModel(client, cache), tea.WithAltScreen())

	m, err := p.Run()
	if err != nil {
		pterm.Error.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	finalModel := m.(tui.AppModel)

	// Only display summary if the TUI completed successfully
	if finalModel.IsFinished() {
		settings := finalModel.Settings()
		pterm.Info.Printfln("Done. Claude Code has %s env vars, Codex has %s.",
			pterm.LightGreen(len(settings.ClaudeCode.Env)),
			pterm.LightGreen(len(settings.Codex.Env)))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(func(cfg *config.Config) *config.ProfileServiceConfig {
			return &cfg.ProfileService
		}),
		store.Module,
		server.Module,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		fx.Invoke(startServer),
	)

	app.Run()
	return nil
}

// startServer ties the MCP server's lifetime to the fx application: the
// server runs until the app receives a shutdown signal, and a server failure
// shuts the app down.
func startServer(lc fx.Lifecycle, srv *server.Server, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(ctx); err != nil {
					logger.Error("Server stopped with error", zap.Error(err))
				}
				if err := shutdowner.Shutdown(); err != nil {
					logger.Error("Failed to shut down application", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
