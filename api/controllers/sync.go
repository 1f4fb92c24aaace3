package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/internal/syncer"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

func SyncQueue(queue *outbox.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var status *enums.OutboxStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseOutboxStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			status = &parsed
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := queue.List(ctx, status, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing queue"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func SyncStatus(queue *outbox.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		counts, err := queue.CountByStatus(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "counting queue"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"pending": counts[enums.OutboxStatusPending],
			"synced":  counts[enums.OutboxStatusSynced],
			"failed":  counts[enums.OutboxStatusFailed],
		})
	}
}

// RetrySyncEntry is the operator path for FAILED rows; there is no automatic
// retry of failures.
func RetrySyncEntry(queue *outbox.Repository, notifier SyncNotifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid queue entry id"))
			return
		}

		retried, err := queue.Retry(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "retrying queue entry"))
			return
		}
		if !retried {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no failed entry with that id"))
			return
		}

		if notifier != nil {
			notifier.Notify()
		}
		responses.WriteSuccess(w, map[string]string{"status": "pending"})
	}
}

// TriggerSync runs a drain pass inline and reports the result.
func TriggerSync(engine *syncer.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result := engine.RunPass(ctx, syncer.TriggerManual)
		responses.WriteSuccess(w, map[string]any{
			"skipped":        result.Skipped,
			"applied":        result.Applied,
			"alreadyApplied": result.AlreadyApplied,
			"failed":         result.Failed,
			"deferred":       result.Deferred,
		})
	}
}

// CleanupSyncedEntries prunes SYNCED rows older than the given number of days.
func CleanupSyncedEntries(queue *outbox.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		days, err := validators.ParseQueryInt(r, "days", 7, 1, 365)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		removed, err := queue.CleanupSynced(ctx, time.Now().AddDate(0, 0, -days))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "cleaning up queue"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": removed})
	}
}
