package main

import (
	"bytes"
	"strings"
	"testing"

	"StoryForge-server/compiler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderChain(t *testing.T) {
	out := renderChain([]compiler.ChainLink{
		{ShotID: "s1", ShotNumber: 1, Description: "orb wakes", LastFrame: "last1.png", TransitionIn: "fade_in", TransitionOut: "cut", NextFirstFrame: "first2.png"},
		{ShotID: "s2", ShotNumber: 2, Description: "orb rises", FirstFrame: "first2.png", TransitionIn: "cut", PrevLastFrame: "last1.png"},
	})
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 4)
	assert.Contains(t, out, "Prev last frame")
	assert.NotContains(t, out, "PREV LAST FRAME")
	assert.Contains(t, out, "first2.png")
	assert.Less(t, strings.Index(out, "s1"), strings.Index(out, "s2"))
	assert.Contains(t, out, "-")
}

func TestRootCommandListsSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
	for _, name := range []string{"serve", "migrate", "seed", "chain", "compile"} {
		assert.Contains(t, buf.String(), name)
	}
}

func TestCompileCommandNeedsShots(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", "only-project"})
	assert.Error(t, cmd.Execute())
}

func TestConfigPathPrefersFlag(t *testing.T) {
	t.Setenv("STORYFORGE_CONFIG", "/etc/storyforge.yaml")
	assert.Equal(t, "local.yaml", configPath(" local.yaml "))
	assert.Equal(t, "/etc/storyforge.yaml", configPath(""))
}
