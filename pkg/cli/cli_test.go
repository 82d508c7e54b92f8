package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "claim", "donate", "pool", "score", "leaderboard"} {
		assert.Contains(t, names, want)
	}

	require.NotNil(t, root.PersistentFlags().Lookup("json"))
}

func TestClaimFlagsAreExclusive(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"claim", "--score", "80", "--image", "selfie.jpg"})
	root.SilenceErrors = true

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestDonateRequiresAmount(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"donate"})
	root.SilenceErrors = true

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}

func TestScoreRequiresImageArgument(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"score"})
	root.SilenceErrors = true

	assert.Error(t, root.Execute())
}

func TestLeaderboardDonorsFlag(t *testing.T) {
	cmd := NewLeaderboardCmd()
	flag := cmd.Flags().Lookup("donors")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "image/jpeg", detectMimeType("me.JPG", nil))
	assert.Equal(t, "image/png", detectMimeType("me.png", nil))
	assert.Equal(t, "image/png", detectMimeType("me", []byte("\x89PNG\r\n\x1a\n0000")))
}
