package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masumrana0/Uploader/internal/domain"
	"github.com/masumrana0/Uploader/pkg/logger"
)

func runUpload(c *cli.Context) error {
	d, err := depsFrom(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return cli.Exit("no files given", 2)
	}

	files := make([]domain.StagedFile, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		file, err := stageLocal(d, path, c.String("content-type"))
		if err != nil {
			d.uploader.Discard(files)
			return err
		}
		files = append(files, file)
	}

	if err := d.uploader.Validate(files); err != nil {
		d.uploader.Discard(files)
		var derr *domain.Error
		if errors.As(err, &derr) {
			for _, inv := range derr.Invalid {
				logger.Log.Error().Str("file", inv.OriginalName).Str("reason", inv.Reason).Msg("Rejected file")
			}
		}
		return err
	}

	result, err := d.uploader.Process(c.Context, files)
	if err != nil {
		return err
	}
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.AllSucceeded() {
		return cli.Exit(fmt.Sprintf("%d of %d uploads failed", result.FailureCount, result.TotalProcessed), 1)
	}
	return nil
}

func stageLocal(d *deps, path, contentType string) (domain.StagedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.StagedFile{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	file, err := d.uploader.Stage(filepath.Base(path), contentType, f)
	if err != nil {
		return domain.StagedFile{}, fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return file, nil
}

func runDelete(c *cli.Context) error {
	d, err := depsFrom(c)
	if err != nil {
		return err
	}

	key := c.String("key")
	if key == "" {
		key = c.Args().First()
	}
	if key == "" {
		return cli.Exit("missing key", 2)
	}

	result, err := d.deleter.Delete(c.Context, key)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return cli.Exit(err.Error(), 3)
		}
		return err
	}
	return printJSON(result)
}

func runSweep(c *cli.Context) error {
	d, err := depsFrom(c)
	if err != nil {
		return err
	}

	maxAge := c.Duration("max-age")
	if maxAge <= 0 {
		maxAge = d.cfg.Upload.StagingMaxAge
	}

	removed, err := d.area.Sweep(time.Now().Add(-maxAge))
	logger.Log.Info().
		Str("dir", d.area.Dir()).
		Dur("max_age", maxAge).
		Int("removed", removed).
		Msg("Staging sweep finished")
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
