package game

// SlotView is one grid slot as shown to a client.
// Card is only set when the slot is revealed; cleared slots are Empty.
type SlotView struct {
	Index    int   `json:"index"`
	Revealed bool  `json:"revealed"`
	Empty    bool  `json:"empty"`
	Card     *Card `json:"card,omitempty"`
}

// PlayerView is the client-facing representation of a player.
type PlayerView struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Slots             []SlotView `json:"slots"`
	VisibleScore      int        `json:"visibleScore"`
	RoundScore        int        `json:"roundScore"`
	TotalScore        int        `json:"totalScore"`
	IsReady           bool       `json:"isReady"`
	IsFrozen          bool       `json:"isFrozen,omitempty"`
	PendingDraw       *Card      `json:"pendingDraw,omitempty"`
	PendingDrawSource DrawSource `json:"pendingDrawSource,omitempty"`
}

// GameStateMsg is the full game state sent to one player.
type GameStateMsg struct {
	Type            string       `json:"type"`
	GameID          string       `json:"gameId"`
	You             string       `json:"you"`
	HostID          string       `json:"hostId"`
	Players         []PlayerView `json:"players"`
	CurrentPlayerID string       `json:"currentPlayerId"`
	YourTurn        bool         `json:"yourTurn"`
	Phase           TurnPhase    `json:"phase"`
	Status          Status       `json:"status"`
	RoundNumber     int          `json:"roundNumber"`
	DeckCount       int          `json:"deckCount"`
	DiscardTop      *Card        `json:"discardTop,omitempty"`
	DiscardCount    int          `json:"discardCount"`
	SpikeMode       bool         `json:"spikeMode"`
	TargetScore     int          `json:"targetScore"`
	EndingPlayerID  string       `json:"endingPlayerId,omitempty"`
	// FinalTurnRemainingIDs is only set during the final lap.
	FinalTurnRemainingIDs   []string       `json:"finalTurnRemainingIds,omitempty"`
	SelectedDiscardPlayerID string         `json:"selectedDiscardPlayerId,omitempty"`
	RoundScores             map[string]int `json:"roundScores,omitempty"`
	LastTurnPlayerID        string         `json:"lastTurnPlayerId,omitempty"`
	LastTurnAction          string         `json:"lastTurnAction,omitempty"`
	// Standings is filled once the game is complete.
	Standings []Standing `json:"standings,omitempty"`
}

// BuildSlotViews masks the hidden cards of a grid.
func BuildSlotViews(p *PlayerState) []SlotView {
	views := make([]SlotView, GridSize)
	for i, c := range p.Grid {
		sv := SlotView{Index: i, Revealed: p.Revealed[i], Empty: c.IsEmpty()}
		if p.Revealed[i] && !c.IsEmpty() {
			card := c
			sv.Card = &card
		}
		views[i] = sv
	}
	return views
}

// BuildPlayerView creates a PlayerView from a PlayerState.
// Every viewer sees the same thing; hidden cards stay hidden even from their owner.
func BuildPlayerView(g *GameState, p *PlayerState) PlayerView {
	pv := PlayerView{
		ID:         p.ID,
		Name:       p.Name,
		Slots:      BuildSlotViews(p),
		RoundScore: p.RoundScore,
		TotalScore: p.TotalScore,
		IsReady:    p.IsReady,
		IsFrozen:   g.IsFrozen(p.ID),
	}
	for i, c := range p.Grid {
		if p.Revealed[i] {
			pv.VisibleScore += c.Value()
		}
	}
	if p.HasPendingDraw() {
		card := p.PendingDraw
		pv.PendingDraw = &card
		pv.PendingDrawSource = p.PendingDrawSource
	}
	return pv
}

// BuildStateForPlayer constructs the game_state message for viewerID.
func BuildStateForPlayer(g *GameState, players []*PlayerState, viewerID string) GameStateMsg {
	msg := GameStateMsg{
		Type:                    "game_state",
		GameID:                  g.ID,
		You:                     viewerID,
		HostID:                  g.HostID,
		Players:                 make([]PlayerView, 0, len(players)),
		CurrentPlayerID:         g.CurrentPlayerID,
		YourTurn:                g.Status == StatusPlaying && g.CurrentPlayerID == viewerID,
		Phase:                   g.TurnPhase,
		Status:                  g.Status,
		RoundNumber:             g.RoundNumber,
		DeckCount:               len(g.Deck),
		DiscardCount:            len(g.Discard),
		SpikeMode:               g.Settings.SpikeMode,
		TargetScore:             g.Settings.TargetScore,
		EndingPlayerID:          g.EndingPlayerID,
		FinalTurnRemainingIDs:   g.FinalTurnRemainingIDs,
		SelectedDiscardPlayerID: g.SelectedDiscardPlayerID,
		LastTurnPlayerID:        g.LastTurnPlayerID,
		LastTurnAction:          g.LastTurnAction,
	}
	if top, ok := topCard(g.Discard); ok {
		msg.DiscardTop = &top
	}
	for _, p := range players {
		msg.Players = append(msg.Players, BuildPlayerView(g, p))
	}
	if g.Status != StatusPlaying {
		msg.RoundScores = g.RoundScores
	}
	if g.Status == StatusGameComplete {
		msg.Standings = RankStandings(players)
	}
	return msg
}
