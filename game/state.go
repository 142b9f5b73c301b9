package game

// TurnPhase is the sub-state within one player's turn governing which actions are legal.
type TurnPhase string

const (
	PhaseChooseDraw  TurnPhase = "choose_draw"
	PhaseResolveDraw TurnPhase = "resolve_draw"
	PhaseChooseSwap  TurnPhase = "choose_swap"
	PhaseResolve     TurnPhase = "resolve"
	PhaseResolveItem TurnPhase = "resolve_item"
)

// Status is the game lifecycle state.
type Status string

const (
	StatusPlaying       Status = "playing"
	StatusRoundComplete Status = "round_complete"
	StatusGameComplete  Status = "game_complete"
)

// DrawSource records where a pending draw came from.
type DrawSource string

const (
	SourceNone    DrawSource = ""
	SourceDeck    DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// DefaultTargetScore ends the game once any total reaches it.
const DefaultTargetScore = 100

// DefaultInitialReveals is how many slots each player shows at the deal.
const DefaultInitialReveals = 2

// Settings are fixed for a game's lifetime.
type Settings struct {
	SpikeMode      bool        `json:"spikeMode"`
	ItemDensity    ItemDensity `json:"itemDensity"`
	TargetScore    int         `json:"targetScore"`
	InitialReveals int         `json:"initialReveals"`

	// Seed initialises the game's random stream; 0 lets the engine pick one.
	Seed uint64 `json:"-"`
}

// Seat is one player joining a game at creation.
type Seat struct {
	ID   string
	Name string
}

// GameState is the shared game document.
type GameState struct {
	ID                      string            `json:"id"`
	HostID                  string            `json:"hostId"`
	ActivePlayerOrder       []string          `json:"activePlayerOrder"`
	Names                   map[string]string `json:"names"`
	CurrentPlayerID         string            `json:"currentPlayerId"`
	Deck                    []Card            `json:"deck"`
	Discard                 []Card            `json:"discard"`
	Cleared                 []Card            `json:"cleared"`
	// Overwritten and Conjured balance item C: the cards it replaced and the
	// cards it created this round.
	Overwritten             []Card            `json:"overwritten"`
	Conjured                []Card            `json:"conjured"`
	TurnPhase               TurnPhase         `json:"turnPhase"`
	Status                  Status            `json:"status"`
	Settings                Settings          `json:"settings"`
	EndingPlayerID          string            `json:"endingPlayerId"`
	FinalTurnRemainingIDs   []string          `json:"finalTurnRemainingIds"`
	SelectedDiscardPlayerID string            `json:"selectedDiscardPlayerId"`
	FrozenPlayerIDs         []string          `json:"frozenPlayerIds"`
	RoundScores             map[string]int    `json:"roundScores"`
	PreviousRoundScores     map[string]int    `json:"previousRoundScores"`
	RoundNumber             int               `json:"roundNumber"`
	LastTurnPlayerID        string            `json:"lastTurnPlayerId"`
	LastTurnAction          string            `json:"lastTurnAction"`
	RNG                     uint64            `json:"rng"`
}

// PlayerState is one player's document.
type PlayerState struct {
	GameID            string     `json:"gameId"`
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Grid              Grid       `json:"grid"`
	Revealed          Revealed   `json:"revealed"`
	PendingDraw       Card       `json:"pendingDraw"`
	PendingDrawSource DrawSource `json:"pendingDrawSource"`
	IsReady           bool       `json:"isReady"`
	RoundScore        int        `json:"roundScore"`
	TotalScore        int        `json:"totalScore"`
}

// HasPendingDraw reports whether the player holds an uncommitted card.
func (p *PlayerState) HasPendingDraw() bool {
	return !p.PendingDraw.IsEmpty()
}

func (p *PlayerState) clearPendingDraw() {
	p.PendingDraw = EmptyCard
	p.PendingDrawSource = SourceNone
}

// IsActive reports whether playerID is seated in the game.
func (g *GameState) IsActive(playerID string) bool {
	return indexOf(g.ActivePlayerOrder, playerID) >= 0
}

// InFinalLap reports whether some player has gone out this round.
func (g *GameState) InFinalLap() bool {
	return g.EndingPlayerID != ""
}

// IsFrozen reports whether playerID will skip their next turn.
func (g *GameState) IsFrozen(playerID string) bool {
	return indexOf(g.FrozenPlayerIDs, playerID) >= 0
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
