package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Cyclone1070/hostagent/internal/config"
	"github.com/Cyclone1070/hostagent/internal/orchestrator"
	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	"github.com/Cyclone1070/hostagent/internal/provider/gemini"
	"github.com/Cyclone1070/hostagent/internal/safety"
	"github.com/Cyclone1070/hostagent/internal/sandbox"
	"github.com/Cyclone1070/hostagent/internal/session"
	"github.com/Cyclone1070/hostagent/internal/ui"
)

func main() {
	os.Exit(execute())
}

// execute runs the CLI and maps the session's terminal status onto the
// process exit code: complete 0, error 1, blocked 2, max_iterations 3.
func execute() int {
	var exitCode int

	var (
		modelFlag     string
		workspace     string
		protocol      string
		envFile       string
		maxIterations int
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:          "hostagent <task>",
		Short:        "Run an autonomous task in a sandboxed workspace",
		Long:         "hostagent sends a task to a reasoning engine and executes the commands it proposes inside a confined workspace, with destructive commands blocked.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := run(cmd.Context(), args[0], runFlags{
				model:         modelFlag,
				workspace:     workspace,
				protocol:      protocol,
				envFile:       envFile,
				maxIterations: maxIterations,
				verbose:       verbose,
			})
			if err != nil {
				return err
			}
			exitCode = statusExitCode(status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "model to use (overrides config)")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory the agent is confined to")
	cmd.Flags().StringVar(&protocol, "protocol", "", "engine protocol: tool_call or json_action (overrides config)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file holding GEMINI_API_KEY (overrides config)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration limit (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return exitCode
}

type runFlags struct {
	model         string
	workspace     string
	protocol      string
	envFile       string
	maxIterations int
	verbose       bool
}

func run(ctx context.Context, task string, flags runFlags) (model.Status, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("loading configuration: %w", err)
	}
	if flags.model != "" {
		cfg.Provider.Model = flags.model
	}
	if flags.protocol != "" {
		cfg.Orchestrator.Protocol = flags.protocol
	}
	if flags.maxIterations > 0 {
		cfg.Orchestrator.MaxIterations = flags.maxIterations
	}
	if flags.envFile != "" {
		cfg.Provider.EnvFile = flags.envFile
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	logger, err := newLogger(flags.verbose)
	if err != nil {
		return "", fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Provider.EnvFile != "" {
		if err := godotenv.Load(cfg.Provider.EnvFile); err != nil {
			logger.Warn("could not load env file", zap.String("path", cfg.Provider.EnvFile), zap.Error(err))
		}
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("creating engine client: %w", err)
	}

	root, err := sandbox.CanonicaliseRoot(flags.workspace)
	if err != nil {
		return "", fmt.Errorf("resolving workspace: %w", err)
	}

	validator, err := safety.NewValidator(cfg.Safety, root)
	if err != nil {
		return "", fmt.Errorf("building command validator: %w", err)
	}

	executor := sandbox.New(root, validator, cfg.Sandbox, logger)
	engine := gemini.New(gemini.NewRealGeminiClient(client), cfg.Provider.Model, cfg.Provider.FallbackMaxOutputTokens)

	orch := orchestrator.New(orchestrator.Options{
		Engine:      engine,
		Executor:    executor,
		Reporter:    ui.NewConsoleReporter(os.Stdout),
		Config:      cfg.Orchestrator,
		SandboxCfg:  cfg.Sandbox,
		SessionCfg:  cfg.Session,
		CodeVersion: session.CodeVersion(root),
		Logger:      logger,
	})

	sess, err := orch.Run(ctx, task)
	if err != nil {
		return "", err
	}
	return sess.Status, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func statusExitCode(status model.Status) int {
	switch status {
	case model.StatusComplete:
		return 0
	case model.StatusBlocked:
		return 2
	case model.StatusMaxIterations:
		return 3
	default:
		return 1
	}
}
