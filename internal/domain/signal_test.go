package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotationAction(t *testing.T) {
	for _, valid := range []string{"stroke", "stroke_update", "erase", "clear", "allow_drawing"} {
		got, err := ParseAnnotationAction(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, AnnotationAction(valid), got)
	}

	_, err := ParseAnnotationAction("scribble")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAnnotationAction)

	_, err = ParseAnnotationAction("")
	assert.ErrorIs(t, err, ErrUnknownAnnotationAction)
}

func TestGroupKeys(t *testing.T) {
	assert.Equal(t, "community:42", CommunityGroup("42"))
	assert.Equal(t, "channel:general", ChannelGroup("general"))
	assert.Equal(t, "voice:general", VoiceGroup("general"))
}

func TestIsSubscribableGroup(t *testing.T) {
	assert.True(t, IsSubscribableGroup("community:42"))
	assert.True(t, IsSubscribableGroup("channel:general"))
	assert.True(t, IsSubscribableGroup(VoiceGroup("general")))

	assert.False(t, IsSubscribableGroup("voice:"), "prefix with no id")
	assert.False(t, IsSubscribableGroup("user:alice"))
	assert.False(t, IsSubscribableGroup(""))
}
