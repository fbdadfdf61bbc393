package compiler

import (
	"encoding/json"
	"testing"

	"StoryForge-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFence(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```  \n", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```json\n{\"a\":1}", `{"a":1}`},
		{"text ```json\n{}\n```", "text ```json\n{}\n```"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripFence(tc.in), "input %q", tc.in)
	}
}

func TestParseContract(t *testing.T) {
	fenced := ParseContract("```json\n" + validContract + "\n```")
	require.False(t, fenced.ParseError())
	assert.Equal(t, "low hum", fenced.Contract.AudioStack.SoundDesign)
	assert.Equal(t, "hold on the flicker", fenced.Contract.DirectorNotes)

	for name, text := range map[string]string{
		"prose":            "I cannot help with that",
		"missing video":    `{"image_prompt":"a","audio_stack":{}}`,
		"audio not object": `{"image_prompt":"a","video_prompt":"b","audio_stack":"loud"}`,
		"array":            `[1,2,3]`,
	} {
		res := ParseContract(text)
		assert.True(t, res.ParseError(), name)
		assert.Equal(t, text, res.Raw, name)
	}

	minimal := ParseContract(`{"image_prompt":"a","video_prompt":"b","audio_stack":{"spatial":"left"}}`)
	require.False(t, minimal.ParseError())
	encoded, err := json.Marshal(minimal)
	require.NoError(t, err)
	assert.JSONEq(t, `{"image_prompt":"a","video_prompt":"b","audio_stack":{"spatial":"left"}}`, string(encoded))
}

func TestParseContractKeepsWholeObject(t *testing.T) {
	text := `{
	  "image_prompt": "orb in ash",
	  "video_prompt": "slow push in",
	  "audio_stack": {
	    "sound_design": "wind",
	    "volume_layers": {"background": "wind -30dB", "midground": "hum -18dB", "foreground": "pulse -9dB"}
	  },
	  "coherence_flags": "none",
	  "negative_prompt": "no gore"
	}`
	res := ParseContract(text)
	require.False(t, res.ParseError())
	require.NotNil(t, res.Contract)
	assert.Equal(t, "orb in ash", res.Contract.ImagePrompt)
	assert.Equal(t, "wind", res.Contract.AudioStack.SoundDesign)
	assert.Empty(t, res.Contract.AudioStack.VolumeLayers)
	assert.Empty(t, res.Contract.CoherenceFlags)

	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, text, string(encoded))
}

func TestResultJSONRoundTrip(t *testing.T) {
	raw := Result{Raw: "oops"}
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)

	var back Result
	require.NoError(t, json.Unmarshal(encoded, &back))
	assert.True(t, back.ParseError())
	assert.Equal(t, "oops", back.Raw)

	parsed := ParseContract(validContract)
	encoded, err = json.Marshal(parsed)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, &back))
	require.False(t, back.ParseError())
	assert.Equal(t, parsed.Contract.ImagePrompt, back.Contract.ImagePrompt)
}

func TestBuildChainLinksNeighbours(t *testing.T) {
	shots := []models.Shot{
		{ID: "c", ShotNumber: 3, FirstFrameURL: "f2", LastFrameURL: "f3"},
		{ID: "a", ShotNumber: 1, LastFrameURL: "f1"},
		{ID: "b1", ShotNumber: 2, FirstFrameURL: "f1", LastFrameURL: "f2"},
		{ID: "b2", ShotNumber: 2, FirstFrameURL: "g1", LastFrameURL: "g2"},
	}
	chain := BuildChain(shots)
	require.Len(t, chain, 4)

	var ids []string
	for _, l := range chain {
		ids = append(ids, l.ShotID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids, "ties keep input order")

	assert.Equal(t, "", chain[0].PrevLastFrame)
	assert.Equal(t, "", chain[len(chain)-1].NextFirstFrame)
	for i := range chain {
		if i > 0 {
			assert.Equal(t, chain[i-1].LastFrame, chain[i].PrevLastFrame)
		}
		if i < len(chain)-1 {
			assert.Equal(t, chain[i+1].FirstFrame, chain[i].NextFirstFrame)
		}
	}
	assert.Equal(t, "c", shots[0].ID, "input slice is not reordered")
	assert.Empty(t, BuildChain(nil))
}
