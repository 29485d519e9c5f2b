package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/scan"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handlers struct {
	deps   RouterDeps
	logger *slog.Logger
}

func (h *handlers) scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := common.RequestIDFromContext(ctx)
	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		appErr := common.NewCodedError(common.CodeUnauthenticated, nil)
		appErr.RequestID = requestID
		writeError(w, r, appErr)
		return
	}

	var req scan.Request
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		appErr := common.NewAppError(common.CodeBadRequest, "Request body must be a JSON object.", err)
		appErr.RequestID = requestID
		writeError(w, r, appErr)
		return
	}

	res, err := h.deps.Scanner.Scan(ctx, userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

func (h *handlers) diagnostics(w http.ResponseWriter, r *http.Request) {
	report := h.deps.Diagnostics.Run(r.Context(), common.RequestIDFromContext(r.Context()))
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	render.Status(r, status)
	render.JSON(w, r, report)
}

func (h *handlers) reviewQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		appErr := common.NewCodedError(common.CodeUnauthenticated, nil)
		appErr.RequestID = common.RequestIDFromContext(ctx)
		writeError(w, r, appErr)
		return
	}
	if h.deps.Exporter == nil {
		http.Error(w, "export not configured", http.StatusNotImplemented)
		return
	}
	out, err := h.deps.Exporter.ReviewQueueXLSX(ctx, userID)
	if err != nil {
		h.logger.Error("review queue export failed", "request_id", common.RequestIDFromContext(ctx), "user_id", userID, "error", err)
		appErr := common.NewCodedError(common.CodeUnknown, err)
		appErr.RequestID = common.RequestIDFromContext(ctx)
		writeError(w, r, appErr)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="w9-review-queue.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := common.AsAppError(err)
	render.Status(r, appErr.HTTPStatus())
	render.JSON(w, r, scan.NewErrorPayload(appErr))
}
