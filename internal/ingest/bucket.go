package ingest

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docintel/internal/entity"
	"github.com/joseph-ayodele/docintel/internal/storage"
)

// Listener streams object-created notifications. *storage.MinioStore satisfies it.
type Listener interface {
	Listen(ctx context.Context, prefix string) <-chan storage.ObjectEvent
}

// BucketSource turns bucket notifications into upload events.
type BucketSource struct {
	listener Listener
	prefix   string
	logger   *slog.Logger
}

func NewBucketSource(listener Listener, prefix string, logger *slog.Logger) *BucketSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BucketSource{listener: listener, prefix: prefix, logger: logger}
}

// Run forwards notifications to sink until ctx is done or the stream closes.
func (s *BucketSource) Run(ctx context.Context, sink Enqueuer) error {
	s.logger.Info("listening for bucket notifications", "prefix", s.prefix)
	for obj := range s.listener.Listen(ctx, s.prefix) {
		ev := entity.UploadEvent{
			Path:        obj.Key,
			Bucket:      obj.Bucket,
			ContentType: obj.ContentType,
			Size:        obj.Size,
		}
		if err := sink.Enqueue(ctx, ev); err != nil {
			s.logger.Warn("failed to enqueue upload", "path", ev.Path, "error", err)
		}
	}
	return ctx.Err()
}
