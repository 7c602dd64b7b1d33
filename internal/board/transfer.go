package board

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
)

// ExportFileName is the suggested name of an exported document.
const ExportFileName = "kanban-boards.json"

// Export serialises every board as a 2-space indented JSON array.
func (s *State) Export() ([]byte, error) {
	s.mu.Lock()
	boards := model.CloneBoards(s.boards)
	s.mu.Unlock()

	return json.MarshalIndent(boards, "", "  ")
}

// Import replaces the whole model with the boards in doc.
//
// The document must be a JSON array; anything else is rejected with an
// apperror.ErrImport error and the model and history are left as they were.
// Elements that are not board objects are logged and skipped, and records
// are not checked further. On success the first board becomes active,
// history is cleared (there is no undo across an import) and the result is
// saved.
func (s *State) Import(ctx context.Context, doc []byte) error {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return apperror.ImportRejected("import document must be a JSON array of boards", nil)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return apperror.ImportRejected("import document must be a JSON array of boards", err)
	}

	boards := make([]model.Board, 0, len(elems))
	for i, raw := range elems {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			s.logger.Warn("import: skipping element that is not a board", slog.Int("index", i))
			continue
		}
		var b model.Board
		if err := json.Unmarshal(raw, &b); err != nil {
			s.logger.Warn("import: skipping unreadable board",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		b.Normalize()
		boards = append(boards, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.boards = boards
	s.activeBoardID = ""
	s.repairActive()
	s.history.clear()

	s.logger.Info("boards imported",
		slog.String("user_id", s.userID),
		slog.Int("boards", len(boards)),
	)
	return s.persist(ctx)
}
