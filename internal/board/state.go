// Package board is the in-memory board model of one signed-in user and every
// operation that changes it.
//
// THE MUTATION PATTERN:
// Every mutating operation runs the same steps while holding the State lock:
//
//	locate target → validate input → push snapshot → mutate → save → flag backup
//
//   - A target that no longer exists (board, column or card id) makes the
//     operation a silent no-op: nil error, nothing pushed to history.
//   - Invalid input (an empty title) returns an apperror.ErrValidation error,
//     again with nothing changed.
//   - The model is changed before it is saved. When the save fails the change
//     and its history entry stay, and the caller gets an apperror.ErrPersistence
//     error so it can tell the user and retry with Save.
//
// The lock makes each State a single actor: no two operations interleave, and
// a confirmation prompt for a destructive action runs before the mutation
// starts, with the lock held.
package board

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
)

// Bridge is what the state machine needs from the persistence side.
// Failures never cross it as errors: SaveBoards reports a bool.
type Bridge interface {
	LoadBoards(ctx context.Context, userID string) []model.Board
	SaveBoards(ctx context.Context, boards []model.Board, userID string) bool
	SetNeedsBackup(flag bool)
}

// ConfirmFunc is the yes/no gate for destructive operations.
// It must not call back into the State that invoked it.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirmed approves every prompt.
func Confirmed(context.Context, string) bool { return true }

// Recorder receives undo events. metrics.Collector satisfies it.
type Recorder interface {
	RecordUndo()
}

type nopRecorder struct{}

func (nopRecorder) RecordUndo() {}

// Default colours used until the user picks one.
const (
	DefaultColumnColor   = "#ffffff"
	DefaultCardColor     = "#858585"
	DefaultCardTextColor = "#3d3d3d"
)

// Palette holds the last colours used for columns and cards. An empty colour
// argument to a create or edit operation falls back to these.
type Palette struct {
	Column   string `json:"column"`
	Card     string `json:"card"`
	CardText string `json:"cardText"`
}

// DefaultPalette is the palette of a fresh State.
func DefaultPalette() Palette {
	return Palette{Column: DefaultColumnColor, Card: DefaultCardColor, CardText: DefaultCardTextColor}
}

// View is a read-only copy of the observable state.
type View struct {
	Boards        []model.Board `json:"boards"`
	ActiveBoardID string        `json:"activeBoardId"`
	Palette       Palette       `json:"palette"`
	HistoryLen    int           `json:"historyLength"`
}

// State is the board model of one user.
type State struct {
	mu sync.Mutex

	bridge   Bridge
	userID   string
	logger   *slog.Logger
	recorder Recorder
	newID    func() string

	boards        []model.Board
	activeBoardID string
	history       *history
	palette       Palette
}

// Option customises a State.
type Option func(*State)

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *State) { s.logger = l }
}

// WithIDGenerator replaces the xid-based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *State) { s.newID = gen }
}

// WithRecorder reports undo events.
func WithRecorder(r Recorder) Option {
	return func(s *State) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithHistoryCapacity bounds the undo history. Values below 1 are ignored.
func WithHistoryCapacity(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.history = newHistory(n)
		}
	}
}

// WithPalette seeds the last-used colours.
func WithPalette(p Palette) Option {
	return func(s *State) { s.palette = p }
}

// New creates an empty State for userID. Call Load to fill it.
func New(bridge Bridge, userID string, opts ...Option) *State {
	s := &State{
		bridge:   bridge,
		userID:   userID,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
		newID:    func() string { return xid.New().String() },
		boards:   []model.Board{},
		history:  newHistory(DefaultHistoryCapacity),
		palette:  DefaultPalette(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID is the owner of this state.
func (s *State) UserID() string { return s.userID }

// Load replaces the model with the user's stored boards. The first board
// becomes active and the history starts empty.
func (s *State) Load(ctx context.Context) {
	boards := s.bridge.LoadBoards(ctx, s.userID)
	for i := range boards {
		boards[i].Normalize()
	}
	if boards == nil {
		boards = []model.Board{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.boards = boards
	s.activeBoardID = ""
	s.repairActive()
	s.history.clear()

	s.logger.Debug("boards loaded",
		slog.String("user_id", s.userID),
		slog.Int("boards", len(boards)),
	)
}

// Boards returns a deep copy of every board.
func (s *State) Boards() []model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneBoards(s.boards)
}

// ActiveBoardID returns the selected board id, or "" when there is none.
func (s *State) ActiveBoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeBoardID
}

// ActiveBoard returns a copy of the selected board.
func (s *State) ActiveBoard() (model.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.active(); b != nil {
		return b.Clone(), true
	}
	return model.Board{}, false
}

// View returns a consistent copy of the whole observable state.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Boards:        model.CloneBoards(s.boards),
		ActiveBoardID: s.activeBoardID,
		Palette:       s.palette,
		HistoryLen:    s.history.len(),
	}
}

// Palette returns the last-used colours.
func (s *State) Palette() Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette
}

// HistoryLen is the number of undo steps available.
func (s *State) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.len()
}

// SelectBoard makes id the active board. It is a view change only: nothing is
// saved and no history is recorded. An unknown id is ignored.
func (s *State) SelectBoard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boardIndex(id) < 0 {
		return false
	}
	s.activeBoardID = id
	return true
}

// Save persists the current model without touching history.
func (s *State) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx)
}

// checkpoint pushes a snapshot of the model as it is right now. It must be
// called after validation and before the first change.
func (s *State) checkpoint() {
	s.history.push(model.CloneBoards(s.boards))
}

// persist saves through the bridge and flags a pending backup.
func (s *State) persist(ctx context.Context) error {
	ok := s.bridge.SaveBoards(ctx, model.CloneBoards(s.boards), s.userID)
	s.bridge.SetNeedsBackup(true)
	if !ok {
		s.logger.Warn("saving boards failed", slog.String("user_id", s.userID))
		return apperror.PersistenceFailed("boards could not be saved", nil)
	}
	return nil
}

func (s *State) boardIndex(id string) int {
	for i := range s.boards {
		if s.boards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) active() *model.Board {
	if i := s.boardIndex(s.activeBoardID); i >= 0 {
		return &s.boards[i]
	}
	return nil
}

// resolveBoard maps "" to the active board.
func (s *State) resolveBoard(id string) *model.Board {
	if id == "" {
		return s.active()
	}
	if i := s.boardIndex(id); i >= 0 {
		return &s.boards[i]
	}
	return nil
}

// repairActive keeps activeBoardID pointing at a present board, falling back
// to the first board or to none.
func (s *State) repairActive() {
	if s.activeBoardID != "" && s.boardIndex(s.activeBoardID) >= 0 {
		return
	}
	if len(s.boards) > 0 {
		s.activeBoardID = s.boards[0].ID
		return
	}
	s.activeBoardID = ""
}
