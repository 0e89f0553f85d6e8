// internal/service/uploader.go
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/masumrana0/Uploader/internal/domain"
	"github.com/masumrana0/Uploader/internal/staging"
	"github.com/masumrana0/Uploader/internal/storage"
	"github.com/masumrana0/Uploader/pkg/logger"
)

// UploaderConfig bounds a batch.
type UploaderConfig struct {
	MaxFiles    int
	MaxFileSize int64
	ChunkSize   int
}

// DefaultUploaderConfig returns the limits of the public upload endpoint.
func DefaultUploaderConfig() UploaderConfig {
	return UploaderConfig{
		MaxFiles:    10,
		MaxFileSize: 5 * 1024 * 1024,
		ChunkSize:   3,
	}
}

// Uploader forwards staged files to the object store in fixed-size chunks
// and guarantees every staged file is removed once the batch settles.
type Uploader struct {
	store   storage.ObjectStore
	staging staging.Area
	cfg     UploaderConfig
	now     func() time.Time
	log     zerolog.Logger
}

func NewUploader(store storage.ObjectStore, area staging.Area, cfg UploaderConfig) *Uploader {
	def := DefaultUploaderConfig()
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = def.MaxFiles
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	return &Uploader{
		store:   store,
		staging: area,
		cfg:     cfg,
		now:     time.Now,
		log:     logger.Component("uploader"),
	}
}

// Config returns the effective limits.
func (u *Uploader) Config() UploaderConfig {
	return u.cfg
}

// Stage copies r into the staging area. At most MaxFileSize+1 bytes are
// written so oversized files are still caught by Validate. When the client
// declared no usable type, it is detected from the content.
func (u *Uploader) Stage(originalName, mimeType string, r io.Reader) (domain.StagedFile, error) {
	path, size, err := u.staging.Create(originalName, io.LimitReader(r, u.cfg.MaxFileSize+1))
	if err != nil {
		return domain.StagedFile{}, err
	}
	file := domain.StagedFile{
		Path:         path,
		OriginalName: originalName,
		MimeType:     strings.TrimSpace(mimeType),
		Size:         size,
	}

	if file.MimeType == "" || file.MimeType == "application/octet-stream" {
		detected, err := u.detectType(path)
		if err != nil {
			u.cleanup(file)
			return domain.StagedFile{}, err
		}
		file.MimeType = detected
	}
	return file, nil
}

func (u *Uploader) detectType(path string) (string, error) {
	f, err := u.staging.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	// strip parameters such as "; charset=utf-8"
	return strings.TrimSpace(strings.SplitN(mtype.String(), ";", 2)[0]), nil
}

// Validate checks the batch precondition. Any violation rejects the whole
// batch; the returned error lists every offending file.
func (u *Uploader) Validate(files []domain.StagedFile) error {
	if len(files) == 0 {
		return &domain.Error{Kind: domain.KindValidation, Message: "No files uploaded"}
	}
	if len(files) > u.cfg.MaxFiles {
		return &domain.Error{
			Kind:    domain.KindValidation,
			Message: fmt.Sprintf("Too many files: at most %d are allowed", u.cfg.MaxFiles),
		}
	}

	var (
		invalid   []domain.InvalidFile
		wrongType bool
	)
	for _, f := range files {
		reason := ""
		switch {
		case f.Path == "":
			reason = "file was not staged"
		case !strings.HasPrefix(f.MimeType, "image/"):
			reason = fmt.Sprintf("unsupported type %q, only images are allowed", f.MimeType)
			wrongType = true
		case f.Size > u.cfg.MaxFileSize:
			reason = fmt.Sprintf("file exceeds the %d byte limit", u.cfg.MaxFileSize)
		}
		if reason != "" {
			invalid = append(invalid, domain.InvalidFile{OriginalName: f.OriginalName, Reason: reason})
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	message := "Invalid files detected"
	if wrongType {
		message = "Invalid file types detected"
	}
	return &domain.Error{Kind: domain.KindValidation, Message: message, Invalid: invalid}
}

// Discard removes every staged file, logging failures.
func (u *Uploader) Discard(files []domain.StagedFile) {
	for _, f := range files {
		u.cleanup(f)
	}
}

// Process uploads a batch. Per-file failures are reported in the result; the
// returned error is non-nil only when the batch as a whole failed (a
// KindValidation error for a batch that should have been rejected up front,
// KindCatastrophic otherwise), in which case every staged file has already
// been discarded.
func (u *Uploader) Process(ctx context.Context, files []domain.StagedFile) (domain.BatchResult, error) {
	if err := u.Validate(files); err != nil {
		u.Discard(files)
		return domain.BatchResult{}, err
	}

	// Dispatched chunks run to completion even if the request goes away.
	storeCtx := context.WithoutCancel(ctx)

	outcomes := make([]domain.UploadOutcome, 0, len(files))
	for i, chunk := range chunkFiles(files, u.cfg.ChunkSize) {
		if err := ctx.Err(); err != nil {
			u.Discard(files)
			return domain.BatchResult{}, domain.NewError(domain.KindCatastrophic,
				fmt.Sprintf("batch aborted before chunk %d", i+1), err)
		}

		chunkOutcomes, err := u.uploadChunk(storeCtx, chunk)
		if err != nil {
			u.Discard(files)
			return domain.BatchResult{}, domain.NewError(domain.KindCatastrophic,
				fmt.Sprintf("chunk %d failed", i+1), err)
		}
		outcomes = append(outcomes, chunkOutcomes...)
	}

	result := domain.NewBatchResult(outcomes)
	u.log.Info().
		Int("total", result.TotalProcessed).
		Int("succeeded", result.SuccessCount).
		Int("failed", result.FailureCount).
		Msg("batch processed")
	return result, nil
}

// uploadChunk runs one task per file and waits for all of them. Each task
// writes only its own slot, so no locking is needed.
func (u *Uploader) uploadChunk(ctx context.Context, chunk []domain.StagedFile) ([]domain.UploadOutcome, error) {
	outcomes := make([]domain.UploadOutcome, len(chunk))

	var g errgroup.Group
	for i, file := range chunk {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("upload task for %q panicked: %v", file.OriginalName, r)
				}
			}()
			defer u.cleanup(file)

			outcomes[i] = u.uploadFile(ctx, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (u *Uploader) uploadFile(ctx context.Context, file domain.StagedFile) domain.UploadOutcome {
	fail := func(err error) domain.UploadOutcome {
		u.log.Error().Err(err).Str("file", file.OriginalName).Msg("upload failed")
		return domain.UploadOutcome{Failure: &domain.UploadFailure{
			OriginalName: file.OriginalName,
			Error:        err.Error(),
		}}
	}

	body, err := u.staging.Open(file.Path)
	if err != nil {
		return fail(err)
	}
	defer body.Close()

	now := u.now()
	key := storage.NewObjectKey(file.OriginalName, now)
	res, err := u.store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        body,
		Size:        file.Size,
		ContentType: file.MimeType,
		Metadata:    storage.ObjectMetadata(file.OriginalName, file.Size, now),
	})
	if err != nil {
		return fail(err)
	}

	return domain.UploadOutcome{Success: &domain.UploadSuccess{
		OriginalName: file.OriginalName,
		FileURL:      res.URL,
		StorageKey:   key,
		Size:         file.Size,
		MimeType:     file.MimeType,
	}}
}

func (u *Uploader) cleanup(file domain.StagedFile) {
	if err := u.staging.Remove(file.Path); err != nil {
		u.log.Warn().Err(err).Str("file", file.OriginalName).Msg("failed to remove staged file")
	}
}

func chunkFiles(files []domain.StagedFile, size int) [][]domain.StagedFile {
	chunks := make([][]domain.StagedFile, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		chunks = append(chunks, files[start:end])
	}
	return chunks
}
