package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/board"
)

// Workspaces hands out the signed-in user's board state.
// workspace.Registry satisfies it.
type Workspaces interface {
	Get(ctx context.Context, userID string) *board.State
}

// WorkspaceHandler drives the board state machine over HTTP. Every mutating
// endpoint answers with the whole workspace view, so the client can redraw
// from one response.
//
// CONFIRMATION:
// Deletes ask "are you sure?" in the UI. Over HTTP the answer travels as
// ?confirm=true; without it the delete is a declined confirmation, which is a
// no-op that still returns 200 and the unchanged view.
type WorkspaceHandler struct {
	workspaces Workspaces
	logger     *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(workspaces Workspaces, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, logger: logger}
}

// mutationResponse carries the id of a created entity next to the view.
type mutationResponse struct {
	ID        string     `json:"id,omitempty"`
	Workspace board.View `json:"workspace"`
}

type undoResponse struct {
	Undone    bool       `json:"undone"`
	Workspace board.View `json:"workspace"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type selectBoardRequest struct {
	BoardID string `json:"boardId"`
}

type columnRequest struct {
	BoardID string `json:"boardId"`
	Title   string `json:"title"`
	Color   string `json:"color"`
}

type moveColumnRequest struct {
	BoardID string `json:"boardId"`
	Index   int    `json:"index"`
}

type cardRequest struct {
	ColumnID  string `json:"columnId"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

type moveCardRequest struct {
	FromBoardID  string `json:"fromBoardId"`
	FromColumnID string `json:"fromColumnId"`
	ToColumnID   string `json:"toColumnId"`
	Index        int    `json:"index"`
}

func (h *WorkspaceHandler) state(r *http.Request) *board.State {
	userID, _ := auth.UserIDFromContext(r.Context())
	return h.workspaces.Get(r.Context(), userID)
}

// respond writes the view after a mutation. A persistence failure still
// changed the in-memory model, so the client gets the error and can retry
// with POST /api/workspace/save.
func (h *WorkspaceHandler) respond(w http.ResponseWriter, s *board.State, status int, id string, err error) {
	if err != nil {
		h.logger.Warn("workspace operation failed",
			slog.String("user_id", s.UserID()),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, status, mutationResponse{ID: id, Workspace: s.View()})
}

func confirmFrom(r *http.Request) board.ConfirmFunc {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		return board.Confirmed
	}
	return nil
}

// HandleView returns boards, active board, palette and undo depth.
//
// HTTP: GET /api/workspace
func (h *WorkspaceHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state(r).View())
}

// HandleCreateBoard adds a board and makes it active.
//
// HTTP: POST /api/workspace/boards
// REQUEST BODY: {"title": "Sprint 1"}
func (h *WorkspaceHandler) HandleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	id, err := s.CreateBoard(r.Context(), req.Title)
	h.respond(w, s, http.StatusCreated, id, err)
}

// HandleRenameBoard renames a board.
//
// HTTP: PUT /api/workspace/boards/{boardID}
func (h *WorkspaceHandler) HandleRenameBoard(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	err := s.RenameBoard(r.Context(), chi.URLParam(r, "boardID"), req.Title)
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleDeleteBoard deletes a board with everything on it.
//
// HTTP: DELETE /api/workspace/boards/{boardID}?confirm=true
func (h *WorkspaceHandler) HandleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	s := h.state(r)
	err := s.DeleteBoard(r.Context(), chi.URLParam(r, "boardID"), confirmFrom(r))
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleSelectBoard switches the active board. Nothing is saved.
//
// HTTP: POST /api/workspace/active
// REQUEST BODY: {"boardId": "..."}
func (h *WorkspaceHandler) HandleSelectBoard(w http.ResponseWriter, r *http.Request) {
	var req selectBoardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	if !s.SelectBoard(req.BoardID) {
		writeError(w, apperror.NotFound("board", req.BoardID))
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Workspace: s.View()})
}

// HandleCreateColumn appends a column. An empty boardId means the active board.
//
// HTTP: POST /api/workspace/columns
// REQUEST BODY: {"boardId": "", "title": "To do", "color": "#ffffff"}
func (h *WorkspaceHandler) HandleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	id, err := s.CreateColumn(r.Context(), req.BoardID, req.Title, req.Color)
	h.respond(w, s, http.StatusCreated, id, err)
}

// HandleEditColumn changes a column's title and colour.
//
// HTTP: PUT /api/workspace/columns/{columnID}
func (h *WorkspaceHandler) HandleEditColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	err := s.EditColumn(r.Context(), req.BoardID, chi.URLParam(r, "columnID"), req.Title, req.Color)
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleDeleteColumn deletes a column and its cards.
//
// HTTP: DELETE /api/workspace/columns/{columnID}?boardId=...&confirm=true
func (h *WorkspaceHandler) HandleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	s := h.state(r)
	err := s.DeleteColumn(r.Context(), r.URL.Query().Get("boardId"), chi.URLParam(r, "columnID"), confirmFrom(r))
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleMoveColumn reorders a column within its board.
//
// HTTP: POST /api/workspace/columns/{columnID}/move
// REQUEST BODY: {"boardId": "", "index": 2}
func (h *WorkspaceHandler) HandleMoveColumn(w http.ResponseWriter, r *http.Request) {
	var req moveColumnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	err := s.MoveColumn(r.Context(), req.BoardID, chi.URLParam(r, "columnID"), req.Index)
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleCreateCard appends a card to a column of the active board.
//
// HTTP: POST /api/workspace/cards
// REQUEST BODY: {"columnId": "...", "title": "...", "color": "", "textColor": ""}
func (h *WorkspaceHandler) HandleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	id, err := s.CreateCard(r.Context(), req.ColumnID, req.Title, req.Color, req.TextColor)
	h.respond(w, s, http.StatusCreated, id, err)
}

// HandleEditCard edits a card and optionally moves it to another column.
//
// HTTP: PUT /api/workspace/cards/{cardID}
func (h *WorkspaceHandler) HandleEditCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	err := s.EditCard(r.Context(), chi.URLParam(r, "cardID"), req.ColumnID, req.Title, req.Color, req.TextColor)
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleDeleteCard deletes a card.
//
// HTTP: DELETE /api/workspace/cards/{cardID}?confirm=true
func (h *WorkspaceHandler) HandleDeleteCard(w http.ResponseWriter, r *http.Request) {
	s := h.state(r)
	err := s.DeleteCard(r.Context(), chi.URLParam(r, "cardID"), confirmFrom(r))
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleMoveCard is the drop of a card drag.
//
// HTTP: POST /api/workspace/cards/{cardID}/move
// REQUEST BODY: {"fromBoardId": "", "fromColumnId": "...", "toColumnId": "...", "index": 0}
func (h *WorkspaceHandler) HandleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req moveCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s := h.state(r)
	err := s.MoveCard(r.Context(), req.FromBoardID, req.FromColumnID, chi.URLParam(r, "cardID"), req.ToColumnID, req.Index)
	h.respond(w, s, http.StatusOK, "", err)
}

// HandleUndo restores the previous snapshot.
//
// HTTP: POST /api/workspace/undo
// RESPONSE: {"undone": false, ...} when there was nothing to undo.
func (h *WorkspaceHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	s := h.state(r)
	undone, err := s.Undo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Undone: undone, Workspace: s.View()})
}

// HandleSave is the manual save button.
//
// HTTP: POST /api/workspace/save
func (h *WorkspaceHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	s := h.state(r)
	h.respond(w, s, http.StatusOK, "", s.Save(r.Context()))
}

// HandleExport downloads the boards as a JSON file.
//
// HTTP: GET /api/workspace/export
func (h *WorkspaceHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.state(r).Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+board.ExportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// HandleImport replaces every board with the uploaded document.
//
// HTTP: POST /api/workspace/import
// REQUEST BODY: the raw exported JSON array
func (h *WorkspaceHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, apperror.ImportRejected("import file is too large or unreadable", err))
		return
	}
	s := h.state(r)
	h.respond(w, s, http.StatusOK, "", s.Import(r.Context(), doc))
}
