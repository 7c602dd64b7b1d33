package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/board"
	"github.com/sakif/kanban-boards/internal/model"
)

// WorkspaceCloser forgets a user's loaded workspace. workspace.Registry
// satisfies it.
type WorkspaceCloser interface {
	Drop(userID string)
}

// BoardsHandler exposes the raw sync bridge: load and save the signed-in
// user's whole board collection, and raise the needs-backup flag.
//
// A client that keeps its own board model (the original single-page UI) uses
// these three endpoints and nothing else. Clients that want the server to own
// the model use WorkspaceHandler instead.
type BoardsHandler struct {
	bridge     board.Bridge
	workspaces WorkspaceCloser
	logger     *slog.Logger
}

// NewBoardsHandler creates a BoardsHandler. A successful save drops the
// user's server-side workspace so it reloads what the client wrote.
func NewBoardsHandler(bridge board.Bridge, workspaces WorkspaceCloser, logger *slog.Logger) *BoardsHandler {
	return &BoardsHandler{bridge: bridge, workspaces: workspaces, logger: logger}
}

type saveResponse struct {
	Success bool `json:"success"`
}

type backupFlagRequest struct {
	NeedsBackup bool `json:"needsBackup"`
}

// HandleLoad returns the user's boards.
//
// HTTP: GET /api/boards
func (h *BoardsHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.bridge.LoadBoards(r.Context(), userID))
}

// HandleSave replaces the user's boards.
//
// HTTP: PUT /api/boards
// REQUEST BODY: [ {board}, ... ]
// RESPONSE: {"success": true|false}
//
// A storage failure is reported in the body, not the status: the bridge
// contract is a boolean and the client decides what to show.
func (h *BoardsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var boards []model.Board
	if err := decodeJSONLimit(w, r, &boards, maxDocumentBytes); err != nil {
		writeError(w, err)
		return
	}
	if boards == nil {
		boards = []model.Board{}
	}

	ok := h.bridge.SaveBoards(r.Context(), boards, userID)
	if ok {
		h.workspaces.Drop(userID)
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: ok})
}

// HandleBackupFlag sets or clears the deferred-backup flag.
//
// HTTP: POST /api/backup-flag
// REQUEST BODY: {"needsBackup": true}
func (h *BoardsHandler) HandleBackupFlag(w http.ResponseWriter, r *http.Request) {
	var req backupFlagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.bridge.SetNeedsBackup(req.NeedsBackup)
	w.WriteHeader(http.StatusNoContent)
}
