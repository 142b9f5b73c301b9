package game

import "sort"

// PlayerUpdate is the end-of-round record for one player.
type PlayerUpdate struct {
	PlayerID   string
	Grid       Grid
	Revealed   Revealed
	Cleared    []Card
	RoundScore int
	TotalScore int
	Doubled    bool
}

// RoundResult is the output of ScoreRound.
type RoundResult struct {
	RoundScores  map[string]int
	Updates      []PlayerUpdate
	GameComplete bool
}

// ScoreRound forces a full reveal on every player, clears columns that became
// eligible, scores each grid and applies the ending player's doubling rule.
// players is not modified; apply the returned updates.
func ScoreRound(players []*PlayerState, endingPlayerID string, targetScore int) RoundResult {
	if targetScore <= 0 {
		targetScore = DefaultTargetScore
	}
	res := RoundResult{
		RoundScores: make(map[string]int, len(players)),
		Updates:     make([]PlayerUpdate, 0, len(players)),
	}
	if len(players) == 0 {
		return res
	}

	for _, p := range players {
		u := PlayerUpdate{PlayerID: p.ID, Grid: p.Grid, Revealed: p.Revealed}
		RevealAll(&u.Revealed)
		u.Cleared = ClearAllMatchedColumns(&u.Grid, &u.Revealed)
		u.RoundScore = Score(u.Grid)
		res.Updates = append(res.Updates, u)
	}

	lowest := res.Updates[0].RoundScore
	for _, u := range res.Updates[1:] {
		if u.RoundScore < lowest {
			lowest = u.RoundScore
		}
	}
	lowestCount := 0
	for _, u := range res.Updates {
		if u.RoundScore == lowest {
			lowestCount++
		}
	}

	for i := range res.Updates {
		u := &res.Updates[i]
		if u.PlayerID == endingPlayerID && ShouldDouble(u.RoundScore, lowest, lowestCount) {
			u.RoundScore *= 2
			u.Doubled = true
		}
		u.TotalScore = players[i].TotalScore + u.RoundScore
		res.RoundScores[u.PlayerID] = u.RoundScore
		if u.TotalScore >= targetScore {
			res.GameComplete = true
		}
	}
	return res
}

// ShouldDouble reports whether the round-ending player's score is doubled:
// true unless they hold the unique lowest score.
func ShouldDouble(score, lowest, lowestCount int) bool {
	return score > lowest || (score == lowest && lowestCount > 1)
}

// Standing is one row of the final (or running) classification.
type Standing struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	TotalScore int    `json:"totalScore"`
	Rank       int    `json:"rank"`
}

// RankStandings orders players by total ascending, then name, then id.
// Equal totals share a rank.
func RankStandings(players []*PlayerState) []Standing {
	out := make([]Standing, 0, len(players))
	for _, p := range players {
		out = append(out, Standing{PlayerID: p.ID, Name: p.Name, TotalScore: p.TotalScore})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore < out[j].TotalScore
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	for i := range out {
		if i > 0 && out[i].TotalScore == out[i-1].TotalScore {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}
