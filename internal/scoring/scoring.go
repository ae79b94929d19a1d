// Package scoring computes round points from submitted answers. It has no
// side effects: dictionaries and review acceptances are passed in.
package scoring

import (
	"strings"

	"github.com/bloops-games/wordrounds/internal/database/category/model"
)

const (
	PointsUnique         = 10
	PointsShared         = 4
	PointsCrowded        = 2
	PointsReviewAccepted = 5
	PointsInvalid        = 0
)

type Reason string

const (
	ReasonValid            Reason = "valid"
	ReasonEmpty            Reason = "empty"
	ReasonWrongLetter      Reason = "wrong-letter"
	ReasonNotInDictionary  Reason = "not-in-dictionary"
	ReasonReviewAccepted   Reason = "review-accepted"
	ReasonNoWordsForLetter Reason = "no-words-for-letter"
)

type Category struct {
	ID    string
	Words []string
}

type Entry struct {
	PlayerID string
	Answers  map[string]string
}

type Input struct {
	// Letter is the round letter, compared case-insensitively.
	Letter     string
	Categories []Category
	// Players lists everyone in the room, including players who never
	// submitted.
	Players  []string
	Entries  []Entry
	Accepted *Acceptances
}

type Detail struct {
	Value  string `json:"value"`
	Valid  bool   `json:"valid"`
	Unique bool   `json:"unique"`
	Points int    `json:"points"`
	Reason Reason `json:"reason"`
}

type Result struct {
	Scores  map[string]int               `json:"scores"`
	Details map[string]map[string]Detail `json:"details"`
	Answers map[string]map[string]string `json:"answers"`
}

// Acceptances holds review words accepted for a (player, category) pair.
type Acceptances struct {
	words map[string]map[string]map[string]struct{}
}

func NewAcceptances() *Acceptances {
	return &Acceptances{words: map[string]map[string]map[string]struct{}{}}
}

func (a *Acceptances) Add(playerID, categoryID, word string) {
	byCategory, ok := a.words[playerID]
	if !ok {
		byCategory = map[string]map[string]struct{}{}
		a.words[playerID] = byCategory
	}

	set, ok := byCategory[categoryID]
	if !ok {
		set = map[string]struct{}{}
		byCategory[categoryID] = set
	}

	set[model.Normalize(word)] = struct{}{}
}

func (a *Acceptances) Has(playerID, categoryID, word string) bool {
	if a == nil {
		return false
	}

	_, ok := a.words[playerID][categoryID][model.Normalize(word)]
	return ok
}

// Dictionary returns the normalized words of the category that start with
// letter.
func Dictionary(words []string, letter string) map[string]struct{} {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	dict := make(map[string]struct{})
	for _, w := range words {
		if model.FirstLetter(w) != letter {
			continue
		}
		dict[model.Normalize(w)] = struct{}{}
	}

	return dict
}

// PointsFor returns the points of a valid word shared by count players.
func PointsFor(count int) int {
	switch {
	case count <= 0:
		return PointsInvalid
	case count == 1:
		return PointsUnique
	case count == 2:
		return PointsShared
	default:
		return PointsCrowded
	}
}

// Classify decides the reason for one answer against a letter-filtered,
// non-empty dictionary.
func Classify(answer, letter string, dict map[string]struct{}, accepted bool) Reason {
	n := model.Normalize(answer)
	switch {
	case n == "":
		return ReasonEmpty
	case model.FirstLetter(n) != strings.ToUpper(letter):
		return ReasonWrongLetter
	}

	if _, ok := dict[n]; ok {
		return ReasonValid
	}

	if accepted {
		return ReasonReviewAccepted
	}

	return ReasonNotInDictionary
}

func Score(in Input) Result {
	letter := strings.ToUpper(strings.TrimSpace(in.Letter))
	players := playerList(in)
	answers := make(map[string]map[string]string, len(players))
	for _, e := range in.Entries {
		answers[e.PlayerID] = e.Answers
	}

	res := Result{
		Scores:  make(map[string]int, len(players)),
		Details: make(map[string]map[string]Detail, len(players)),
		Answers: make(map[string]map[string]string, len(players)),
	}

	for _, p := range players {
		res.Scores[p] = 0
		res.Details[p] = make(map[string]Detail, len(in.Categories))
		res.Answers[p] = make(map[string]string, len(in.Categories))
	}

	for _, c := range in.Categories {
		dict := Dictionary(c.Words, letter)
		if len(dict) == 0 {
			for _, p := range players {
				value := answers[p][c.ID]
				res.Answers[p][c.ID] = value
				res.Details[p][c.ID] = Detail{Value: value, Valid: true, Reason: ReasonNoWordsForLetter}
			}
			continue
		}

		counts := make(map[string]int)
		reasons := make(map[string]Reason, len(players))
		for _, p := range players {
			value := answers[p][c.ID]
			reason := Classify(value, letter, dict, in.Accepted.Has(p, c.ID, value))
			reasons[p] = reason
			if reason == ReasonValid {
				counts[model.Normalize(value)]++
			}
		}

		for _, p := range players {
			value := answers[p][c.ID]
			detail := Detail{Value: value, Reason: reasons[p]}
			switch reasons[p] {
			case ReasonValid:
				count := counts[model.Normalize(value)]
				detail.Valid = true
				detail.Unique = count == 1
				detail.Points = PointsFor(count)
			case ReasonReviewAccepted:
				detail.Valid = true
				detail.Points = PointsReviewAccepted
			}

			res.Answers[p][c.ID] = value
			res.Details[p][c.ID] = detail
			res.Scores[p] += detail.Points
		}
	}

	return res
}

// playerList returns room players followed by any submitting player missing
// from that list, without duplicates.
func playerList(in Input) []string {
	seen := make(map[string]struct{}, len(in.Players))
	list := make([]string, 0, len(in.Players))
	for _, p := range in.Players {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		list = append(list, p)
	}

	for _, e := range in.Entries {
		if _, ok := seen[e.PlayerID]; ok {
			continue
		}
		seen[e.PlayerID] = struct{}{}
		list = append(list, e.PlayerID)
	}

	return list
}
