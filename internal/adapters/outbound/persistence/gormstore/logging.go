package gormstore

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type repoLogger struct {
	logger *slog.Logger
	module string
}

func newRepoLogger(logger *slog.Logger, module string) repoLogger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return repoLogger{logger: logger, module: module}
}

// fail logs a storage error and converts it to an internal AppError carrying
// the event as its code.
func (l repoLogger) fail(event string, message string, err error, attrs ...any) *apperrors.AppError {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", l.module,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	l.logger.Error("repository operation failed", fields...)

	details := map[string]any{"error": err.Error()}
	for i := 0; i+1 < len(attrs); i += 2 {
		if key, ok := attrs[i].(string); ok {
			details[key] = attrs[i+1]
		}
	}
	return apperrors.NewInternal(event, message, details)
}

func (l repoLogger) warn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"module", l.module,
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	l.logger.Warn("repository warning", fields...)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
