package recovery

import (
	"context"
	"database/sql"
	"strings"

	"exchangeengine/internal/application/dto"
	portsout "exchangeengine/internal/application/ports/out"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

// Repository writes catastrophic failures on its own database/sql pool. It
// never joins the run transaction, so its writes survive the rollback.
type Repository struct {
	db *sql.DB
}

var _ portsout.CatastrophicFailureRecorder = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RecordCatastrophicFailure(
	ctx context.Context,
	failure dto.CatastrophicFailure,
) (bool, *apperrors.AppError) {
	const query = `
UPDATE exchange_queue_items
SET
  status = 'failed',
  failed_reason = $2,
  last_http_code = $3,
  last_request_raw = COALESCE($4, last_request_raw),
  last_response_raw = COALESCE($5, last_response_raw),
  run_at = $6,
  locked_at = NULL,
  locked_by = NULL,
  retry_count = retry_count + 1,
  updated_at = $7
WHERE id = $1
`

	id := strings.TrimSpace(failure.QueueItemID)
	if id == "" {
		return false, apperrors.NewValidation("queue_item_id_missing", "queue item id is required", nil)
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		id,
		failure.Reason,
		nullableInt(failure.HTTPCode),
		nullableString(failure.RequestRaw),
		nullableString(failure.ResponseRaw),
		failure.RetryAt.UTC(),
		failure.Now.UTC(),
	)
	if err != nil {
		return false, apperrors.NewInternal(
			"queue_item_recovery_write_failed",
			"failed to record catastrophic failure",
			map[string]any{"queue_item_id": id, "error": err.Error()},
		)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternal(
			"queue_item_recovery_write_failed",
			"failed to read catastrophic failure result",
			map[string]any{"queue_item_id": id, "error": err.Error()},
		)
	}
	return affected > 0, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}
