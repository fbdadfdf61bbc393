package models

// Production stages, in reporting order. Any stage may follow any other.
const (
	StageConcept      = "concept"
	StageWorldBuilt   = "world_built"
	StageBlocked      = "blocked"
	StageGenerated    = "generated"
	StageAudioLayered = "audio_layered"
	StageMixed        = "mixed"
	StageFinal        = "final"
)

var ProductionStages = []string{
	StageConcept, StageWorldBuilt, StageBlocked, StageGenerated,
	StageAudioLayered, StageMixed, StageFinal,
}

var EmotionalZones = []string{
	"intimate", "contemplative", "tense", "revelatory", "chaotic",
	"transcendent", "desolate", "triumphant", "liminal",
}

var Framings = []string{
	"extreme_wide", "wide", "medium_wide", "medium", "medium_close", "close", "extreme_close",
}

var CameraMovements = []string{
	"static", "pan_left", "pan_right", "tilt_up", "tilt_down", "dolly_in",
	"dolly_out", "crane_up", "crane_down", "orbit", "handheld", "tracking",
}

var Transitions = []string{
	"cut", "dissolve", "fade_in", "fade_out", "match_cut", "wipe", "smash_cut",
}

const (
	DefaultEmotionalZone  = "contemplative"
	DefaultFraming        = "medium"
	DefaultCameraMovement = "static"
	DefaultTransition     = "cut"
)

// ValidEnum reports whether v is one of allowed. The empty string is accepted
// so callers can leave optional enum fields unset.
func ValidEnum(v string, allowed []string) bool {
	if v == "" {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
