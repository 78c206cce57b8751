// Package seedcmder provides the seed command for ingesting a text file
// through the emergent chunking pipeline without running a server.
package seedcmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/cliui"
	"github.com/fahd-noodleseed/memoire/pkg/config"
	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	embeddingutils "github.com/fahd-noodleseed/memoire/pkg/embeddings/utils"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream/nop"
	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/logger"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	"github.com/fahd-noodleseed/memoire/pkg/memory/sqlite"
	vectorutils "github.com/fahd-noodleseed/memoire/pkg/vector/utils"
)

const seedLongDesc string = `Ingest a text file into a project through the emergent pipeline.

The text is chunked semantically, each chunk is tagged with suggested
contexts, contexts are resolved (reusing existing ones where names match),
and the resulting fragments are stored with their embeddings. Reads from
stdin when no file is given.

Examples:
  memoire seed --project <id> notes.txt
  cat notes.txt | memoire seed --project <id>`

const seedShortDesc string = "Ingest a text file through the emergent pipeline"

type seedCommander struct {
	projectID  string
	sqlitePath string
	debug      bool
	configDir  string

	v      *viper.Viper
	logger *zap.Logger
}

// Provider settings come from config.toml or MEMOIRE_* env vars; only the
// storage path is exposed as a flag here.
var seedFlags = []string{
	config.FlagSQLite,
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.MaximumNArgs(1),
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
			config.BindRegisteredFlags(cmder.v, cmd, config.DefaultFlags(), seedFlags)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), args)
		},
	}

	fs := config.DefaultFlags()
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)

	cmd.Flags().StringVarP(&cmder.projectID, "project", "p", "", "Project id to ingest into (required)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func (c *seedCommander) run(ctx context.Context, args []string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	// Pretty slog logger for command-level output; zap stays on the services.
	out := logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))

	text, err := c.readInput(args)
	if err != nil {
		return err
	}
	if len(text) == 0 {
		return fmt.Errorf("no input text to ingest")
	}
	out.Info("ingesting", "project", c.projectID, "bytes", len(text))

	memories, err := c.newMemories()
	if err != nil {
		return err
	}
	defer memories.Close()

	if _, err := memories.GetProject(ctx, c.projectID); err != nil {
		return fmt.Errorf("project %q: %w", c.projectID, err)
	}

	call, err := llm.NewCaller(llm.CallerConfig{
		Provider:    c.v.GetString("intelligence.provider"),
		Model:       c.v.GetString("intelligence.light_model"),
		BaseURL:     c.v.GetString("intelligence.target"),
		Temperature: c.v.GetFloat64("intelligence.temperature"),
	})
	if err != nil {
		return fmt.Errorf("creating intelligence caller: %w", err)
	}

	chunker := intelligence.NewChunker(call, intelligence.ChunkerConfig{
		MinChunkWords: c.v.GetInt("chunking.min_chunk_words"),
		MaxChunkWords: c.v.GetInt("chunking.max_chunk_words"),
	}, c.logger)
	contextual := intelligence.NewContextualChunker(chunker, call, memories, c.logger)
	resolver := intelligence.NewResolver(memories, call, c.logger)
	contextualizer := intelligence.NewContextualizer(contextual, resolver, memories, c.logger)

	var fragments []*memory.Fragment
	if err := cliui.Step(os.Stdout, "Ingesting", func() error {
		var processErr error
		fragments, processErr = contextualizer.Process(ctx, string(text), c.projectID)
		return processErr
	}); err != nil {
		return err
	}

	contexts := make(map[string]bool)
	for _, fragment := range fragments {
		for _, id := range fragment.ContextIDs {
			contexts[id] = true
		}
	}

	fmt.Printf("\n  %s Stored %s fragments %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(len(fragments))),
		cliui.DimStyle.Render(fmt.Sprintf("(%d contexts)", len(contexts))),
	)

	return nil
}

func (c *seedCommander) readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", args[0], err)
		}
		return data, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

// newMemories assembles the storage and embedding stack. Seed requires an
// on-disk store; an in-memory store would discard everything on exit.
func (c *seedCommander) newMemories() (*memory.Service, error) {
	v := c.v

	path := v.GetString("storage.sqlite_path")
	if path == "" {
		return nil, fmt.Errorf("seed requires --sqlite or storage.sqlite_path to be set")
	}

	store, err := sqlite.NewStore(sqlite.Config{DBPath: path}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating SQLite store: %w", err)
	}

	vectors, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		Target:       v.GetString("vector_store.target"),
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		Dimensions:   v.GetUint("embedding.dimensions"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	embeddingService := embeddings.NewService(
		embedder,
		embeddings.NewCache(v.GetUint("embedding.cache_ttl_hours")),
		embeddings.ServiceConfig{
			BatchSize:  v.GetInt("embedding.batch_size"),
			BatchDelay: time.Duration(v.GetInt("embedding.batch_delay_ms")) * time.Millisecond,
		},
		c.logger,
	)

	return memory.NewService(store, vectors, embeddingService, nop.NewPublisher(), memory.ServiceConfig{
		SimilarityThreshold: float32(v.GetFloat64("search.similarity_threshold")),
		MaxResults:          v.GetInt("search.max_results"),
	}, c.logger), nil
}
