// Package domain contains entity without logic, just meta-data
package domain

import "strings"

type (
	// ChannelID identifies a voice channel. Opaque, owned by the chat backend.
	ChannelID string
	// UserID is the stable user identity supplied by the auth layer.
	UserID string
	// ConnectionID is the transport-level identity of one signaling
	// connection. A new one is minted on every reconnect.
	ConnectionID string
)

// Logical broadcast group keys. Membership is managed by the connection
// layer; the bridge only addresses groups by key.
const (
	groupCommunityPrefix = "community:"
	groupChannelPrefix   = "channel:"
	groupVoicePrefix     = "voice:"
)

func CommunityGroup(id string) string     { return groupCommunityPrefix + id }
func ChannelGroup(id ChannelID) string    { return groupChannelPrefix + string(id) }
func VoiceGroup(channel ChannelID) string { return groupVoicePrefix + string(channel) }

// IsSubscribableGroup reports whether clients may join the group themselves.
func IsSubscribableGroup(key string) bool {
	for _, p := range []string{groupCommunityPrefix, groupChannelPrefix, groupVoicePrefix} {
		if strings.HasPrefix(key, p) && len(key) > len(p) {
			return true
		}
	}
	return false
}
