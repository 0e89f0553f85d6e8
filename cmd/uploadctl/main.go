package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/masumrana0/Uploader/internal/config"
	"github.com/masumrana0/Uploader/internal/service"
	"github.com/masumrana0/Uploader/internal/staging"
	"github.com/masumrana0/Uploader/internal/storage"
	"github.com/masumrana0/Uploader/pkg/logger"
)

type ctxKey struct{}

// deps is built once per command invocation by initDeps.
type deps struct {
	cfg      *config.Config
	area     *staging.FSArea
	uploader *service.Uploader
	deleter  *service.Deleter
}

func newStagingDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "staging-dir",
		Usage:   "Directory used to stage files before upload",
		EnvVars: []string{"UPLOAD_STAGING_DIR"},
	}
}

// initDeps returns a Before hook that wires the staging area and, when
// withStore is set, the object store and services.
func initDeps(withStore bool) cli.BeforeFunc {
	return func(c *cli.Context) error {
		return buildDeps(c, withStore)
	}
}

func buildDeps(c *cli.Context, withStore bool) error {
	cfg := config.Load()
	logger.SetLevel(c.String("log-level"))

	dir := cfg.Upload.StagingDir
	if c.IsSet("staging-dir") {
		dir = c.String("staging-dir")
	}
	area, err := staging.NewDiskArea(dir)
	if err != nil {
		return fmt.Errorf("failed to initialize staging area: %w", err)
	}

	d := &deps{cfg: cfg, area: area}
	if withStore {
		store, err := storage.Open(c.Context, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		d.uploader = service.NewUploader(store, area, service.UploaderConfig{
			MaxFiles:    cfg.Upload.MaxFiles,
			MaxFileSize: cfg.Upload.MaxFileSize,
			ChunkSize:   cfg.Upload.ChunkSize,
		})
		d.deleter = service.NewDeleter(store, storage.ResolverFor(store))
	}

	c.Context = context.WithValue(c.Context, ctxKey{}, d)
	return nil
}

func depsFrom(c *cli.Context) (*deps, error) {
	d, ok := c.Context.Value(ctxKey{}).(*deps)
	if !ok || d == nil {
		return nil, fmt.Errorf("dependencies not initialized")
	}
	return d, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "uploadctl",
		Usage: "Upload, delete and clean up images without going through HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload local image files to the object store",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					newStagingDirFlag(),
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Content type applied to every file (detected from content when empty)",
					},
				},
				Before: initDeps(true),
				Action: runUpload,
			},
			{
				Name:      "delete",
				Usage:     "Delete an object by key or public URL",
				ArgsUsage: "[KEY]",
				Flags: []cli.Flag{
					newStagingDirFlag(),
					&cli.StringFlag{
						Name:    "key",
						Aliases: []string{"k"},
						Usage:   "Object key or public URL",
					},
				},
				Before: initDeps(true),
				Action: runDelete,
			},
			{
				Name:  "sweep",
				Usage: "Remove staged files left behind by interrupted uploads",
				Flags: []cli.Flag{
					newStagingDirFlag(),
					&cli.DurationFlag{
						Name:    "max-age",
						Usage:   "Remove staged files older than this",
						EnvVars: []string{"UPLOAD_STAGING_MAX_AGE"},
					},
				},
				Before: initDeps(false),
				Action: runSweep,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("uploadctl failed")
	}
}
