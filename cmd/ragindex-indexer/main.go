package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/flarexio/ragindex"
	"github.com/flarexio/ragindex/embedding"
	"github.com/flarexio/ragindex/persistence"

	natsT "github.com/flarexio/ragindex/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "ragindex-indexer",
		Usage: "Index a chunked corpus into the configured vector backends",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project-dir",
				Usage:    "Project directory containing config.yaml",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "corpus",
				Usage:    "Path to the chunked corpus file (JSON Lines)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for result artifacts (defaults to <project-dir>/index)",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL for dispatching the run to a remote worker",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:  "nats-creds",
				Usage: "Path to the NATS credentials file",
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)

	projectDir := cmd.String("project-dir")

	outputDir := cmd.String("output-dir")
	if outputDir == "" {
		outputDir = filepath.Join(projectDir, "index")
	}

	configPath := filepath.Join(projectDir, "config.yaml")

	cfg, err := ragindex.LoadConfig(configPath)
	if err != nil {
		return err
	}

	chunks, err := ragindex.ReadChunkRecords(cmd.String("corpus"))
	if err != nil {
		return err
	}

	configs, err := ragindex.BuildRunConfigs(cfg)
	if err != nil {
		return err
	}

	// No indexer blocks configured: ingest with the first backend
	// block and its defaults.
	if len(configs) == 0 {
		backend, ok := cfg.Backend("")
		if !ok {
			return fmt.Errorf("no vectordb block configured")
		}

		model := backend.EmbeddingModel
		if model == "" {
			model = embedding.ModelOpenAIEmbed3Large
		}

		configs = []ragindex.IndexRunConfig{
			{
				ModuleType:     ragindex.ModuleVectorDB,
				IndexType:      ragindex.IndexTypeVector,
				EmbeddingModel: model,
				CollectionName: backend.CollectionName,
				Dimension:      backend.Dimension,
				Backend:        backend,
			},
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	if err := copyFile(configPath, filepath.Join(outputDir, "index_config.yaml")); err != nil {
		return err
	}

	var svc ragindex.Service

	natsURL := cmd.String("nats")
	if natsURL != "" {
		// Remote mode: the run is dispatched to a worker over NATS
		// instead of executing in process.
		opts := []nats.Option{
			nats.Name("RAGIndex Indexer"),
		}

		if creds := cmd.String("nats-creds"); creds != "" {
			opts = append(opts, nats.UserCredentials(creds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		endpoints := natsT.MakeEndpoints(nc, "ragindex")
		svc = ragindex.ProxyMiddleware(endpoints)(svc)
	} else {
		local := ragindex.NewService(cfg, persistence.NewVectorDB, embedding.NewEnvResolver())
		defer local.Close()

		svc = local
	}

	svc = ragindex.LoggingMiddleware(logger)(svc)

	summaries, err := svc.RunIndexer(ctx, configs, chunks, outputDir)
	if err != nil {
		return err
	}

	failed := 0
	for _, summary := range summaries {
		if summary.Error != "" {
			failed++
			continue
		}

		fmt.Printf("%s: %d documents, %.6fs/doc\n",
			summary.Filename, len(chunks), summary.ExecutionTime)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d configs failed, see %s",
			failed, len(summaries), filepath.Join(outputDir, "index_summary.csv"))
	}

	return nil
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
