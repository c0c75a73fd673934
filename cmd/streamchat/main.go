package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"StreamChat/internal/backend"
	"StreamChat/internal/chatbot"
	"StreamChat/internal/config"
	"StreamChat/internal/telemetry"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

var (
	v          = viper.New()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "streamchat",
	Short: "Terminal chat client with streamed replies",
	Long: `StreamChat keeps a list of chat sessions and streams replies from
Gemini, OpenAI, Grok, Anthropic or a local Ollama server.`,
	SilenceUsage: true,
	RunE:         runChat,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the Ollama server",
	RunE:  runModels,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "StreamChat %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(v)

	flags := rootCmd.PersistentFlags()
	flags.String("backend", config.BackendGemini, "Chat backend ("+strings.Join(config.Backends(), "|")+")")
	flags.String("model", "", "Model name (defaults per backend)")
	flags.String("system", "", "System prompt sent with every request")
	flags.Bool("plain", false, "Use the line-mode REPL instead of the TUI")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-dir", "logs", "Directory for log, trace and metric files")
	flags.String("ollama-url", "http://localhost:11434", "Ollama server URL")
	flags.Duration("metrics-interval", telemetry.DefaultMetricsInterval, "How often metrics are written to the metrics log")
	flags.StringVar(&configFile, "config", "", "YAML config file")

	for _, name := range []string{"backend", "model", "system", "plain", "debug", "log-dir", "ollama-url", "metrics-interval"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := chatbot.NewChatBot(ctx, cfg, version)
	if err != nil {
		return fmt.Errorf("failed to initialize chatbot: %w", err)
	}
	defer bot.Close()

	return bot.Run(ctx)
}

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	models, err := backend.NewOllamaClient(cfg.OllamaURL, "", "").ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list Ollama models: %w", err)
	}
	out := cmd.OutOrStdout()
	for i, model := range models {
		sizeGB := float64(model.Size) / (1024 * 1024 * 1024)
		fmt.Fprintf(out, "%d. %s - %.2f GB\n", i+1, model.Name, sizeGB)
	}
	return nil
}
