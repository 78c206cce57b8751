// Package servecmder provides the serve command running the memoire API and
// MCP servers over a fully assembled ingestion and recall stack.
package servecmder

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/api"
	"github.com/fahd-noodleseed/memoire/api/mcp"
	"github.com/fahd-noodleseed/memoire/pkg/config"
	"github.com/fahd-noodleseed/memoire/pkg/dotdir"
	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	embeddingutils "github.com/fahd-noodleseed/memoire/pkg/embeddings/utils"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream/kafka"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream/nop"
	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/logger"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	"github.com/fahd-noodleseed/memoire/pkg/memory/inmemory"
	"github.com/fahd-noodleseed/memoire/pkg/memory/sqlite"
	vectorutils "github.com/fahd-noodleseed/memoire/pkg/vector/utils"
)

type ServeCommander struct {
	listen            string
	sqlitePath        string
	vectorProvider    string
	vectorTarget      string
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint
	intelProvider     string
	intelTarget       string
	intelModel        string
	noMCP             bool
	debug             bool
	configDir         string

	v      *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the memoire API and MCP servers.

The server exposes the REST API (remember, recall, project and context
endpoints) and mounts the MCP tool server at /mcp so agents can use the
remember, recall, and search tools directly.

Configuration precedence: flags > MEMOIRE_* environment variables >
config.toml > defaults.

Examples:
  memoire serve
  memoire serve --listen :9000 --sqlite ./memoire.db
  memoire serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the memoire API and MCP servers"

// serveFlags are the registry keys bound on this command.
var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagSQLite,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagIntelligenceProv,
	config.FlagIntelligenceTgt,
	config.FlagIntelligenceModel,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(cmder.v, cmd, config.DefaultFlags(), serveFlags)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	fs := config.DefaultFlags()
	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, fs, config.FlagIntelligenceProv, &cmder.intelProvider)
	config.AddStringFlag(cmd, fs, config.FlagIntelligenceTgt, &cmder.intelTarget)
	config.AddStringFlag(cmd, fs, config.FlagIntelligenceModel, &cmder.intelModel)

	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP tool server")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v := c.v

	// Relational store
	store, err := c.newStore(v.GetString("storage.sqlite_path"))
	if err != nil {
		return err
	}

	// Vector store
	vectorTarget, err := c.resolveVectorTarget(
		v.GetString("vector_store.provider"),
		v.GetString("vector_store.target"),
	)
	if err != nil {
		return err
	}
	vectors, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		Target:       vectorTarget,
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}

	// Embedding service
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		Dimensions:   v.GetUint("embedding.dimensions"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	cache := embeddings.NewCache(v.GetUint("embedding.cache_ttl_hours"))
	embeddingService := embeddings.NewService(embedder, cache, embeddings.ServiceConfig{
		BatchSize:  v.GetInt("embedding.batch_size"),
		BatchDelay: time.Duration(v.GetInt("embedding.batch_delay_ms")) * time.Millisecond,
	}, c.logger)

	// Mutation event stream
	events, err := c.newPublisher()
	if err != nil {
		return err
	}

	// Memory service
	memories := memory.NewService(store, vectors, embeddingService, events, memory.ServiceConfig{
		SimilarityThreshold: float32(v.GetFloat64("search.similarity_threshold")),
		MaxResults:          v.GetInt("search.max_results"),
	}, c.logger)
	defer memories.Close()

	// The main model serves curation and synthesis. The light model is used
	// only by the seed command's chunking calls.
	call, err := llm.NewCaller(llm.CallerConfig{
		Provider:    v.GetString("intelligence.provider"),
		Model:       v.GetString("intelligence.model"),
		BaseURL:     v.GetString("intelligence.target"),
		Temperature: v.GetFloat64("intelligence.temperature"),
	})
	if err != nil {
		return fmt.Errorf("creating intelligence caller: %w", err)
	}

	curator := intelligence.NewCurator(memories, call, intelligence.CuratorConfig{
		SearchThreshold: float32(v.GetFloat64("intelligence.curation_threshold")),
		MaxResults:      v.GetInt("intelligence.curation_max_results"),
	}, c.logger)
	synthesizer := intelligence.NewSynthesizer(memories, call, c.logger)

	// MCP tool server
	mcpHandler, err := c.newMCPHandler(memories, curator, synthesizer)
	if err != nil {
		return err
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr: v.GetString("api.listen"),
	}, memories, curator, synthesizer, mcpHandler, c.logger)

	c.logger.Info("starting memoire server",
		zap.String("listen", v.GetString("api.listen")),
		zap.String("vector_provider", v.GetString("vector_store.provider")),
		zap.String("embedding_model", v.GetString("embedding.model")),
		zap.Bool("mcp", !c.noMCP),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

// newStore builds the relational store. An empty path resolves to
// memoire.db inside the .memoire/ directory; in-memory is used only when
// no directory can be resolved.
func (c *ServeCommander) newStore(path string) (memory.Store, error) {
	if path == "" {
		target, err := dotdir.NewManager().Target(c.configDir)
		if err != nil || target == "" {
			c.logger.Info("using in-memory storage")
			return inmemory.NewStore(), nil
		}
		path = filepath.Join(target, "memoire.db")
	}

	store, err := sqlite.NewStore(sqlite.Config{DBPath: path}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating SQLite store: %w", err)
	}
	c.logger.Info("using SQLite storage", zap.String("path", path))

	return store, nil
}

// resolveVectorTarget defaults the sqlite vector store to a file beside the
// relational database. Qdrant targets pass through unchanged.
func (c *ServeCommander) resolveVectorTarget(provider, target string) (string, error) {
	if provider != "sqlite" || target != "" {
		return target, nil
	}

	dir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return "", fmt.Errorf("resolving vector store path: %w", err)
	}

	return filepath.Join(dir, "memoire.vec.db"), nil
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.v.GetBool("events.enabled") {
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: c.v.GetStringSlice("events.brokers"),
		Topic:   c.v.GetString("events.topic"),
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	return publisher, nil
}

// newMCPHandler builds the MCP tool server. Returns a nil handler when MCP
// is disabled so the API server skips the /mcp mount entirely.
func (c *ServeCommander) newMCPHandler(
	memories *memory.Service,
	curator *intelligence.Curator,
	synthesizer *intelligence.Synthesizer,
) (http.Handler, error) {
	if c.noMCP {
		return nil, nil
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Memories:    memories,
		Curator:     curator,
		Synthesizer: synthesizer,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	return mcpServer.Handler(), nil
}
