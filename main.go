package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"meetscribe/analyze"
	"meetscribe/llm"
	"meetscribe/mail"
	"meetscribe/record"
	"meetscribe/session"
	"meetscribe/stt"
	"meetscribe/web"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().Int("port", 8000, "HTTP server port")
	rootCmd.PersistentFlags().
		String("data-dir", os.TempDir(), "Directory for capture buffers")
	rootCmd.PersistentFlags().
		String("ollama-base-url", "http://localhost:11434/v1", "OpenAI-compatible base URL for analysis")
	rootCmd.PersistentFlags().
		String("ollama-model", "llama3.1", "Model used for transcript analysis")
	rootCmd.PersistentFlags().
		String("whisper-base-url", "", "OpenAI-compatible base URL for transcription")
	rootCmd.PersistentFlags().
		String("whisper-model", "whisper-1", "Model used for transcription")
	rootCmd.PersistentFlags().String("openai-api-key", "ollama", "API key for the model backends")
	rootCmd.PersistentFlags().String("sendgrid-api-key", "", "SendGrid API key")
	rootCmd.PersistentFlags().String("from-email", "", "Sender address for notifications")

	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag(
		"ollama_base_url",
		rootCmd.PersistentFlags().Lookup("ollama-base-url"),
	)
	viper.BindPFlag(
		"ollama_model",
		rootCmd.PersistentFlags().Lookup("ollama-model"),
	)
	viper.BindPFlag(
		"whisper_base_url",
		rootCmd.PersistentFlags().Lookup("whisper-base-url"),
	)
	viper.BindPFlag(
		"whisper_model",
		rootCmd.PersistentFlags().Lookup("whisper-model"),
	)
	viper.BindPFlag(
		"openai_api_key",
		rootCmd.PersistentFlags().Lookup("openai-api-key"),
	)
	viper.BindPFlag(
		"sendgrid_api_key",
		rootCmd.PersistentFlags().Lookup("sendgrid-api-key"),
	)
	viper.BindPFlag("from_email", rootCmd.PersistentFlags().Lookup("from-email"))
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	logger = log.New(os.Stdout)
}

var rootCmd = &cobra.Command{
	Use:   "meetscribe",
	Short: "Meetscribe captures live meeting audio and turns it into structured output",
	Long: `Meetscribe ingests chunked audio over a WebSocket, transcribes it,
and extracts a summary with per-participant action items.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the meeting capture service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	registry := session.NewRegistry(session.RegistryConfig{
		Dir: viper.GetString("data_dir"),
	}, logger.With("component", "registry"))
	registry.Start(ctx)
	defer registry.Stop()

	model := llm.NewOpenAILanguageModel(
		viper.GetString("ollama_base_url"),
		viper.GetString("openai_api_key"),
		viper.GetString("ollama_model"),
	)
	analyzer := analyze.New(model, logger.With("component", "analyze"))

	transcriber := stt.NewWhisperClient(
		viper.GetString("whisper_base_url"),
		viper.GetString("openai_api_key"),
		viper.GetString("whisper_model"),
	)

	var sender mail.Sender
	if key := viper.GetString("sendgrid_api_key"); key != "" {
		sender = mail.NewSendGridSender(key, viper.GetString("from_email"))
	} else {
		logger.Warn("sendgrid_api_key not set, email notifications disabled")
	}

	recorder := record.NewHandler(
		registry,
		transcriber,
		analyzer,
		sender,
		logger.With("component", "record"),
	)

	server := web.NewServer(
		registry,
		analyzer,
		recorder,
		sender,
		logger.With("component", "web"),
		viper.GetString("ollama_model"),
		viper.GetString("whisper_model"),
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("port")),
		Handler: server.Router(),
	}

	go func() {
		logger.Info("http", "url", fmt.Sprintf("http://localhost:%d", viper.GetInt("port")))
		if err := httpServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
