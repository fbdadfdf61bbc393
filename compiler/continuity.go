package compiler

import (
	"sort"

	"StoryForge-server/models"
)

// ChainLink is one shot of the continuity chain with its neighbours'
// boundary frames.
type ChainLink struct {
	ShotID         string `json:"shot_id"`
	ShotNumber     int    `json:"shot_number"`
	Description    string `json:"description"`
	FirstFrame     string `json:"first_frame"`
	LastFrame      string `json:"last_frame"`
	TransitionIn   string `json:"transition_in"`
	TransitionOut  string `json:"transition_out"`
	PrevLastFrame  string `json:"prev_last_frame"`
	NextFirstFrame string `json:"next_first_frame"`
}

// OrderShots returns a copy of shots sorted by shot number. Equal numbers
// keep their input order, so callers pass shots in insertion order.
func OrderShots(shots []models.Shot) []models.Shot {
	out := make([]models.Shot, len(shots))
	copy(out, shots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ShotNumber < out[j].ShotNumber })
	return out
}

// Neighbors returns the previous shot's last frame and the next shot's first
// frame for position i of an ordered list.
func Neighbors(ordered []models.Shot, i int) (prevLastFrame, nextFirstFrame string) {
	if i > 0 {
		prevLastFrame = ordered[i-1].LastFrameURL
	}
	if i+1 < len(ordered) {
		nextFirstFrame = ordered[i+1].FirstFrameURL
	}
	return prevLastFrame, nextFirstFrame
}

// BuildChain derives the continuity chain. It is recomputed from the shot
// list on every call and never stored.
func BuildChain(shots []models.Shot) []ChainLink {
	ordered := OrderShots(shots)
	chain := make([]ChainLink, len(ordered))
	for i, s := range ordered {
		prev, next := Neighbors(ordered, i)
		chain[i] = ChainLink{
			ShotID:         s.ID,
			ShotNumber:     s.ShotNumber,
			Description:    s.Description,
			FirstFrame:     s.FirstFrameURL,
			LastFrame:      s.LastFrameURL,
			TransitionIn:   s.TransitionIn,
			TransitionOut:  s.TransitionOut,
			PrevLastFrame:  prev,
			NextFirstFrame: next,
		}
	}
	return chain
}
