package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/auditor/internal/api"
	"github.com/sprite-ai/auditor/internal/client"
	"github.com/sprite-ai/auditor/internal/diff"
	"github.com/sprite-ai/auditor/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the audit service",
	Long: `Start the development audit service. State lives in memory unless a
Redis URL is configured.

Endpoints:
  GET  /health     Health check
  GET  /reviews    Classification of a file
  POST /reviews    Mark a line range
  POST /transform  Mark lines added since the last recorded commit as modified
  GET  /comments   Comment threads of a file
  POST /comments   Add a comment
  DEL  /comments   Delete a comment
  POST /metadata   Set a file's priority
  GET  /info       Overview of every audited file
  GET  /metrics    Prometheus metrics
  GET  /api/ws     WebSocket editor bridge`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (overrides config)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides config)")
	serveCmd.Flags().String("repo", "", "git repository backing transform (overrides config)")
	serveCmd.Flags().String("redis", "", "Redis URL for persistent state (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	sc := cfg.Server
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		sc.Host = addr
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		sc.Port = port
	}
	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		sc.RepoPath = repo
	}
	if redisURL, _ := cmd.Flags().GetString("redis"); redisURL != "" {
		sc.RedisURL = redisURL
	}

	var st store.Store = store.NewMemoryStore()
	if sc.RedisURL != "" {
		rs, err := store.NewRedisStore(sc.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		st = rs
	}
	defer st.Close()

	listen := sc.Addr()
	opts := []api.Option{
		api.WithStore(st),
		api.WithLogger(logger),
		api.WithExtensions(cfg.Client.Extensions),
		api.WithExcludedPrefixes(sc.ExcludedPrefixes),
		// The WebSocket bridge talks to this same service over HTTP.
		api.WithBridgeClient(client.New("http://"+listen, client.WithLogger(logger))),
	}
	if sc.RepoPath != "" {
		opts = append(opts, api.WithRepo(diff.NewRepo(sc.RepoPath)), api.WithRepoPath(sc.RepoPath))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting audit service", "addr", listen, "redis", sc.RedisURL != "", "repo", sc.RepoPath)
	return api.New(listen, opts...).ListenAndServe(ctx)
}
