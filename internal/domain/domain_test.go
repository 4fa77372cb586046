package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoomName(t *testing.T) {
	name, err := ParseRoomName("room-1")
	require.NoError(t, err)
	assert.Equal(t, RoomName("room-1"), name)

	_, err = ParseRoomName("")
	assert.ErrorIs(t, err, ErrEmptyRoomName)

	_, err = ParseRoomName(strings.Repeat("r", MaxRoomNameLen))
	assert.NoError(t, err)

	_, err = ParseRoomName(strings.Repeat("r", MaxRoomNameLen+1))
	assert.ErrorIs(t, err, ErrRoomNameTooLong)
}

func TestParseClientID(t *testing.T) {
	id, err := ParseClientID("alice")
	require.NoError(t, err)
	assert.Equal(t, ClientID("alice"), id)

	_, err = ParseClientID("")
	assert.ErrorIs(t, err, ErrEmptyClientID)

	_, err = ParseClientID(strings.Repeat("c", MaxClientIDLen+1))
	assert.ErrorIs(t, err, ErrClientIDTooLong)
}

func TestNewSessionIDIsUnique(t *testing.T) {
	seen := make(map[SessionID]struct{})
	for i := 0; i < 1000; i++ {
		sid := NewSessionID()
		_, dup := seen[sid]
		require.False(t, dup)
		seen[sid] = struct{}{}
	}
}

func TestDecodeMessage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		typ  MessageType
		tag  string
	}{
		{"offer", `{"type":"offer","sdp":"x"}`, TypeOffer, "offer"},
		{"answer", `{"type":"answer","sdp":"x"}`, TypeAnswer, "answer"},
		{"candidate", `{"type":"candidate","candidate":"c","sdpMLineIndex":0}`, TypeCandidate, "candidate"},
		{"join", `{"type":"join"}`, TypeJoin, "join"},
		{"chat", `{"type":"chat","text":"hi"}`, TypeChat, "chat"},
		{"unrecognized", `{"type":"hangup"}`, TypeUnknown, "hangup"},
		{"case sensitive", `{"type":"Offer"}`, TypeUnknown, "Offer"},
		{"missing type", `{"sdp":"x"}`, TypeUnknown, ""},
		{"numeric type", `{"type":7}`, TypeUnknown, "7"},
		{"null type", `{"type":null}`, TypeUnknown, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.typ, msg.Type)
			assert.Equal(t, tc.tag, msg.Tag)
			assert.Equal(t, tc.in, string(msg.Raw))
		})
	}
}

func TestDecodeMessageRejectsNonObjects(t *testing.T) {
	for _, in := range []string{``, `not json`, `[1,2]`, `"offer"`, `null`, `{"type":"offer"`} {
		_, err := DecodeMessage([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedMessage, in)
	}
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "unknown", TypeUnknown.String())
	assert.Equal(t, "offer", TypeOffer.String())
	assert.True(t, TypeChat.Known())
	assert.False(t, MessageType("hangup").Known())
}
