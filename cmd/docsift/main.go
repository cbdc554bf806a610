// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/poiesic/docsift"
	"github.com/poiesic/docsift/bulk"
	"github.com/poiesic/docsift/config"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/queue/redisq"
	"github.com/poiesic/docsift/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docsift",
		Usage: "Role-scoped document ingestion and question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DOCSIFT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Value:   "docsift.yaml",
				EnvVars: []string{"DOCSIFT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the segment store (badger directory or sqlite file)",
				EnvVars: []string{"DOCSIFT_DB"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Store driver (badger, sqlite)",
				EnvVars: []string{"DOCSIFT_STORE"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "Generation provider (openai, gemini)",
				EnvVars: []string{"DOCSIFT_PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "OpenAI-compatible API host URL",
				EnvVars: []string{"DOCSIFT_HOST"},
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Model name",
				EnvVars: []string{"DOCSIFT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for hosted providers",
				EnvVars: []string{"DOCSIFT_API_KEY"},
			},
			&cli.IntFlag{
				Name:    "min-len",
				Usage:   "Minimum segment length in characters",
				EnvVars: []string{"DOCSIFT_MIN_LEN"},
			},
			&cli.IntFlag{
				Name:    "max-len",
				Usage:   "Maximum segment length in characters",
				EnvVars: []string{"DOCSIFT_MAX_LEN"},
			},
			&cli.StringFlag{
				Name:    "privileged-role",
				Usage:   "Role that sees every segment (empty disables)",
				EnvVars: []string{"DOCSIFT_PRIVILEGED_ROLE"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest one document synchronously",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the uploaded file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name (defaults to the file's base name)",
					},
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Role tag for every segment",
						Required: true,
					},
				},
			},
			{
				Name:   "ingest-dir",
				Usage:  "Ingest every document in a directory through the local queue",
				Action: ingestDirCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "Directory to ingest",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Role tag for every segment",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of ingestion workers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "recursive",
						Usage: "Descend into subdirectories",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of files published per batch",
						Value: bulk.DefaultBatchSize,
					},
				},
			},
			{
				Name:   "worker",
				Usage:  "Consume upload events from Redis",
				Action: workerCommand,
				Flags: []cli.Flag{
					redisFlag(),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of concurrent ingestions (defaults to the config value)",
					},
				},
			},
			{
				Name:   "enqueue",
				Usage:  "Publish an upload event to Redis",
				Action: enqueueCommand,
				Flags: []cli.Flag{
					redisFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the uploaded file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name (defaults to the file's base name)",
					},
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Role tag for every segment",
						Required: true,
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Answer a question from the segments visible to a user",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Requesting user",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "Question text",
						Required: true,
					},
				},
			},
			{
				Name:   "segments",
				Usage:  "List stored segments",
				Action: segmentsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "role",
						Aliases: []string{"r"},
						Usage:   "Only segments tagged with this role",
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Only segments of this document",
					},
				},
			},
			rolesCommand(),
		},
	}
}

func redisFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "redis",
		Usage:   "Redis URI, e.g. redis://localhost:6379/0 (defaults to the config value)",
		EnvVars: []string{"DOCSIFT_REDIS_URL"},
	}
}

// loadConfig reads .env, the YAML file and the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}
	if c.IsSet("store") {
		cfg.Store.Driver = strings.ToLower(c.String("store"))
	}
	if c.IsSet("provider") {
		cfg.AI.Provider = c.String("provider")
	}
	if c.IsSet("host") {
		cfg.AI.Host = c.String("host")
	}
	if c.IsSet("model") {
		cfg.AI.Model = c.String("model")
	}
	if c.IsSet("api-key") {
		cfg.AI.APIKey = c.String("api-key")
	}
	if c.IsSet("min-len") {
		cfg.Segmenter.MinLen = c.Int("min-len")
	}
	if c.IsSet("max-len") {
		cfg.Segmenter.MaxLen = c.Int("max-len")
	}
	if c.IsSet("privileged-role") {
		cfg.Query.PrivilegedRole = c.String("privileged-role")
	}
	return cfg, nil
}

func openSystem(c *cli.Context) (*docsift.System, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return docsift.Open(c.Context, docsift.WithConfig(cfg), docsift.WithLogger(slog.Default()))
}

func uploadEvent(c *cli.Context) (core.UploadEvent, error) {
	path, err := filepath.Abs(c.String("file"))
	if err != nil {
		return core.UploadEvent{}, err
	}
	name := c.String("name")
	if name == "" {
		name = filepath.Base(path)
	}
	event := core.UploadEvent{FilePath: path, OriginalName: name, Role: c.String("role")}
	return event, core.ValidateUploadEvent(&event)
}

func ingestCommand(c *cli.Context) error {
	event, err := uploadEvent(c)
	if err != nil {
		return err
	}
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	outcome, err := sys.Ingest(c.Context, event)
	if outcome != nil {
		fmt.Fprintf(c.App.Writer, "document=%s role=%s state=%s segments=%d skipped=%t degraded=%d\n",
			event.OriginalName, event.Role, outcome.State, outcome.Segments, outcome.Skipped, outcome.Degraded)
	}
	return err
}

func ingestDirCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	q, err := sys.NewLocalQueue(c.Int("workers"))
	if err != nil {
		return err
	}
	loader, err := bulk.NewLoader(q,
		bulk.WithBatchSize(c.Int("batch-size")),
		bulk.WithRecursive(c.Bool("recursive")),
		bulk.WithProgress(os.Stderr),
		bulk.WithLogger(slog.Default()),
	)
	if err != nil {
		q.Close()
		return err
	}

	summary, runErr := loader.Run(c.Context, c.String("dir"), c.String("role"))
	q.Wait()
	if err := q.Close(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	handled, failed := q.Stats()
	fmt.Fprintf(c.App.Writer, "files=%d published=%d ingested=%d failed=%d\n",
		summary.Files, summary.Published, handled, int64(summary.Failed)+failed)
	return nil
}

func redisOpt(c *cli.Context, cfg *config.Config) (asynq.RedisConnOpt, error) {
	uri := cfg.Queue.RedisURL
	if c.IsSet("redis") {
		uri = c.String("redis")
	}
	opt, err := asynq.ParseRedisURI(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid redis uri %q: %w", uri, err)
	}
	return opt, nil
}

func workerCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	cfg := sys.Config()
	opt, err := redisOpt(c, cfg)
	if err != nil {
		return err
	}
	concurrency := cfg.Queue.Concurrency
	if c.IsSet("concurrency") {
		concurrency = c.Int("concurrency")
	}

	worker := redisq.NewWorker(opt, concurrency, slog.Default())
	if err := sys.Subscribe(worker); err != nil {
		return err
	}
	slog.Info("worker started", "concurrency", concurrency)
	// Run blocks until SIGINT or SIGTERM.
	return worker.Run()
}

func enqueueCommand(c *cli.Context) error {
	event, err := uploadEvent(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opt, err := redisOpt(c, cfg)
	if err != nil {
		return err
	}

	publisher := redisq.NewPublisher(opt, cfg.Queue.TaskTimeout)
	defer publisher.Close()
	if err := publisher.Publish(c.Context, event); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "enqueued %s for role %s\n", event.OriginalName, event.Role)
	return nil
}

func queryCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	answer, err := sys.Answer(c.Context, core.Query{User: c.String("user"), Text: c.String("text")})
	if err != nil {
		return err
	}
	if answer.Empty {
		fmt.Fprintln(c.App.Writer, "no matching segments")
		return nil
	}
	fmt.Fprintln(c.App.Writer, answer.Text)
	fmt.Fprintf(c.App.Writer, "\nmatched segments: %d (used %d), keywords: %s\n",
		answer.MatchedCount, answer.UsedCount, strings.Join(answer.Keywords, ", "))
	return nil
}

func segmentsCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	segments, err := sys.Segments().Scan(c.Context, storage.ScanFilter{
		Role:         c.String("role"),
		DocumentName: c.String("document"),
	})
	if err != nil {
		return err
	}
	for _, s := range segments {
		fmt.Fprintf(c.App.Writer, "%s #%d [%s] %s\n", s.DocumentName, s.SequenceNumber, s.Role, s.Content)
		if len(s.Keywords) > 0 || s.Summary != "" {
			fmt.Fprintf(c.App.Writer, "    keywords: %s\n    summary: %s\n", strings.Join(s.Keywords, ", "), s.Summary)
		}
	}
	fmt.Fprintf(c.App.Writer, "%d segments\n", len(segments))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
