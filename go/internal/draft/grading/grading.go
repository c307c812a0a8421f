package grading

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fairwaylabs/clubhouse/go/internal/models"
)

// Letter band floors, checked highest first.
var gradeBands = []struct {
	floor float64
	grade string
}{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{60, "D"},
}

// LetterGrade maps a 0-100 score onto the 11-band letter scale.
func LetterGrade(score float64) string {
	for _, band := range gradeBands {
		if score >= band.floor {
			return band.grade
		}
	}
	return "F"
}

// Grader scores picks against the player rank sheet, treating rank as ADP.
// It is fed one pick at a time; feeding the same pick log in any single
// pass produces the same grades, so the live incremental path and the
// recap replay path share this type.
type Grader struct {
	ranks  map[uuid.UUID]int
	queues map[uuid.UUID][]uuid.UUID

	grades []models.PickGrade
	byTeam map[uuid.UUID][]models.PickGrade
}

// NewGrader builds a grader over a rank sheet and the pre-draft queue
// snapshot. The queues must be the ones captured when the draft started;
// later queue edits do not change how earlier picks grade.
func NewGrader(ranks map[uuid.UUID]int, queues map[uuid.UUID][]uuid.UUID) *Grader {
	return &Grader{
		ranks:  ranks,
		queues: queues,
		byTeam: make(map[uuid.UUID][]models.PickGrade),
	}
}

// Add grades one pick and folds it into the running team aggregates.
func (g *Grader) Add(pick models.Pick) models.PickGrade {
	grade := g.gradePick(pick)
	g.grades = append(g.grades, grade)
	g.byTeam[pick.TeamID] = append(g.byTeam[pick.TeamID], grade)
	return grade
}

// Replay grades a full pick log in order. Equivalent to calling Add for
// each pick.
func (g *Grader) Replay(picks []models.Pick) []models.PickGrade {
	out := make([]models.PickGrade, 0, len(picks))
	for _, p := range picks {
		out = append(out, g.Add(p))
	}
	return out
}

func (g *Grader) gradePick(pick models.Pick) models.PickGrade {
	// Unranked players grade as drafted exactly at expectation.
	adpDiff := 0
	if rank, ok := g.ranks[pick.PlayerID]; ok {
		adpDiff = rank - pick.OverallPick
	}

	score := 50 + 2*adpDiff
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.PickGrade{
		PickID:      pick.ID,
		OverallPick: pick.OverallPick,
		Round:       pick.Round,
		TeamID:      pick.TeamID,
		PlayerID:    pick.PlayerID,
		AdpDiff:     adpDiff,
		Score:       score,
		Grade:       LetterGrade(float64(score)),
		Tag:         g.tagFor(pick, adpDiff),
	}
}

func (g *Grader) tagFor(pick models.Pick, adpDiff int) models.PickTag {
	switch {
	case adpDiff > 10:
		return models.PickTagSteal
	case adpDiff < -15 && pick.AutoPick:
		return models.PickTagPanic
	case adpDiff < -5:
		return models.PickTagReach
	case g.wasQueued(pick.TeamID, pick.PlayerID):
		return models.PickTagPlan
	case adpDiff >= 0:
		return models.PickTagValue
	case pick.AutoPick:
		return models.PickTagFallback
	}
	// Small negative deviation with nothing else to say about it.
	return models.PickTagValue
}

func (g *Grader) wasQueued(teamID, playerID uuid.UUID) bool {
	for _, id := range g.queues[teamID] {
		if id == playerID {
			return true
		}
	}
	return false
}

// PickGrades returns every grade computed so far, in pick order.
func (g *Grader) PickGrades() []models.PickGrade {
	out := make([]models.PickGrade, len(g.grades))
	copy(out, g.grades)
	return out
}

// TeamGrade rolls a single team's pick grades into its report card.
func (g *Grader) TeamGrade(teamID uuid.UUID) models.TeamGrade {
	picks := g.byTeam[teamID]
	tg := models.TeamGrade{TeamID: teamID}
	if len(picks) == 0 {
		tg.OverallGrade = LetterGrade(0)
		return tg
	}

	var sum int
	best, worst := 0, 0
	for i, p := range picks {
		sum += p.Score
		tg.TotalValue += p.AdpDiff
		if p.Score > picks[best].Score {
			best = i
		}
		if p.Score < picks[worst].Score {
			worst = i
		}
		if p.Round >= 3 && p.Score >= 80 {
			tg.Sleepers = append(tg.Sleepers, p)
		}
		if p.Score < 60 {
			tg.Reaches = append(tg.Reaches, p)
		}
	}

	tg.OverallScore = float64(sum) / float64(len(picks))
	tg.OverallGrade = LetterGrade(tg.OverallScore)
	tg.BestPick = &picks[best]
	tg.WorstPick = &picks[worst]
	return tg
}

// TeamGrades returns report cards for every team that has made a pick,
// ordered by overall score descending.
func (g *Grader) TeamGrades() []models.TeamGrade {
	out := make([]models.TeamGrade, 0, len(g.byTeam))
	for teamID := range g.byTeam {
		out = append(out, g.TeamGrade(teamID))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverallScore != out[j].OverallScore {
			return out[i].OverallScore > out[j].OverallScore
		}
		return out[i].TeamID.String() < out[j].TeamID.String()
	})
	return out
}
