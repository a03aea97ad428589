package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"chainview/api/client"
	"chainview/config"
	"chainview/core/auth"
	"chainview/core/logs"
	"chainview/core/render"
	"chainview/core/storage"
)

var rootCmd = &cobra.Command{
	Use:   "chainview",
	Short: "Blockchain demo client",
	Long: `A command-line client for the blockchain demo backend: watch the transaction pool,
mine blocks, browse the chain and send coins from the backend wallet.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits 1 on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", config.DefaultEnvFile, "dotenv file read before the environment (missing is fine)")
	flags.String("server", "", "backend base URL (env "+config.EnvAPIBaseURL+")")
	flags.Int("seconds-ms", 0, "length of one UI second in ms; the pool polls every 10 (env "+config.EnvSecondsMS+")")
	flags.Int("timeout-ms", 0, "HTTP timeout in ms (env "+config.EnvHTTPTimeout+")")
	flags.String("jwt-secret", "", "HS256 secret for bearer tokens (env "+config.EnvJWTSecret+")")
	flags.String("api-key", "", "value for the X-API-Key header (env "+config.EnvAPIKey+")")
	flags.String("cache-dir", "", "directory for the pool snapshot cache (env "+config.EnvCacheDir+")")
	flags.String("log-file", "", "rotated log file (env "+config.EnvLogFile+")")
	flags.BoolP("verbose", "v", false, "log to stderr in the interactive app too")
}

// resolveConfig loads the env file and environment, then applies flags the user set.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}
	if flags.Changed("server") {
		cfg.APIBaseURL, _ = flags.GetString("server")
	}
	if flags.Changed("seconds-ms") {
		ms, _ := flags.GetInt("seconds-ms")
		cfg.Second = time.Duration(ms) * time.Millisecond
	}
	if flags.Changed("timeout-ms") {
		ms, _ := flags.GetInt("timeout-ms")
		cfg.HTTPTimeout = time.Duration(ms) * time.Millisecond
	}
	if flags.Changed("jwt-secret") {
		cfg.JWTSecret, _ = flags.GetString("jwt-secret")
	}
	if flags.Changed("api-key") {
		cfg.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	return cfg, cfg.Validate()
}

// session is what every command needs: config, logging and a backend client.
type session struct {
	cfg    config.Config
	client *client.Client
	logs   io.Closer
}

func openSession(cmd *cobra.Command, console io.Writer) (*session, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	closer, err := logs.Init(cfg.LogFile, console)
	if err != nil {
		return nil, err
	}
	c, err := client.New(client.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		APIKey:  cfg.APIKey,
		Tokens:  auth.NewTokenSource(cfg.JWTSecret, "chainview"),
	})
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &session{cfg: cfg, client: c, logs: closer}, nil
}

// openStore opens the snapshot cache, or returns nil when no cache dir is configured.
func (s *session) openStore() (*storage.Storage, error) {
	if s.cfg.CacheDir == "" {
		return nil, nil
	}
	return storage.NewStorage(filepath.Join(s.cfg.CacheDir, "pool"), s.cfg.CacheKeep)
}

func (s *session) Close() {
	s.logs.Close()
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "plain", "Output format: plain|json|raw")
}

func outputFormat(cmd *cobra.Command) (render.Format, error) {
	output, _ := cmd.Flags().GetString("output")
	return render.ParseFormat(output)
}
