package types

import (
	"encoding/json"
	"fmt"
)

const (
	// BoardSize is the number of cells on the board.
	BoardSize = 9
	// MaxPlayers is the number of participants a session can hold.
	MaxPlayers = 2
)

// Mark is a participant's symbol on the board. The empty mark is an
// unoccupied cell.
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// MarkForSlot returns the mark played by a participant slot.
// Slot 0 plays X, slot 1 plays O.
func MarkForSlot(slot int) Mark {
	if slot == 0 {
		return MarkX
	}
	return MarkO
}

// Board is the 3x3 grid in row-major order, indexed 0-8.
type Board [BoardSize]Mark

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, cell := range b {
		if cell == MarkEmpty {
			return false
		}
	}
	return true
}

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeX    Outcome = "X"
	OutcomeO    Outcome = "O"
	OutcomeDraw Outcome = "draw"
)

// OutcomeForMark returns the winning outcome for a mark.
func OutcomeForMark(m Mark) Outcome {
	switch m {
	case MarkX:
		return OutcomeX
	case MarkO:
		return OutcomeO
	default:
		return OutcomeNone
	}
}

// SessionState is the authoritative state of one session. The session actor
// exclusively owns and mutates it; everything handed to other components is
// a Clone.
type SessionState struct {
	ID      string
	Board   Board
	Players []string
	Turn    int
	Outcome Outcome
}

// NewSessionState returns the default state for a session: empty board, no
// participants, slot 0 to move, no outcome.
func NewSessionState(id string) *SessionState {
	return &SessionState{
		ID:      id,
		Players: make([]string, 0, MaxPlayers),
	}
}

// Clone returns an independent copy of the state.
func (s *SessionState) Clone() *SessionState {
	clone := &SessionState{
		ID:      s.ID,
		Board:   s.Board,
		Turn:    s.Turn,
		Outcome: s.Outcome,
		Players: make([]string, len(s.Players)),
	}
	copy(clone.Players, s.Players)
	return clone
}

// sessionStateDoc is the wire and durable-record form of a session. The
// session id is the record key, not part of the document.
type sessionStateDoc struct {
	Board   []string `json:"board"`
	Players []string `json:"players"`
	Turn    int      `json:"turn"`
	Winner  *string  `json:"winner"`
}

// MarshalJSON encodes the state as the shared snapshot document:
// a 9-element board of single-character strings, the participant ids in
// join order, the turn slot, and a winner that is null, a mark, or "draw".
func (s *SessionState) MarshalJSON() ([]byte, error) {
	doc := sessionStateDoc{
		Board:   make([]string, BoardSize),
		Players: make([]string, len(s.Players)),
		Turn:    s.Turn,
	}
	for i, cell := range s.Board {
		doc.Board[i] = string(cell)
	}
	copy(doc.Players, s.Players)
	if s.Outcome != OutcomeNone {
		winner := string(s.Outcome)
		doc.Winner = &winner
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a snapshot document. The session id is left empty;
// callers that load durable records set it from the record key.
func (s *SessionState) UnmarshalJSON(b []byte) error {
	var doc sessionStateDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if len(doc.Board) != BoardSize {
		return fmt.Errorf("board must have %d cells, got %d", BoardSize, len(doc.Board))
	}
	if len(doc.Players) > MaxPlayers {
		return fmt.Errorf("session cannot have more than %d players, got %d", MaxPlayers, len(doc.Players))
	}
	for i, cell := range doc.Board {
		s.Board[i] = Mark(cell)
	}
	s.Players = make([]string, len(doc.Players))
	copy(s.Players, doc.Players)
	s.Turn = doc.Turn
	s.Outcome = OutcomeNone
	if doc.Winner != nil {
		s.Outcome = Outcome(*doc.Winner)
	}
	return nil
}
