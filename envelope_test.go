package thoughtbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeIDShape(t *testing.T) {
	e := NewEnvelope(MethodSend, Room{ID: "r"}, User{ID: "u"})
	assert.Len(t, e.ID, 32)
}

func TestEnvelopeSayAppendsInOrder(t *testing.T) {
	e := NewEnvelope(MethodSend, Room{ID: "room1"}, User{ID: "u1"})
	e.Say("first").Say("second").Say("third")
	assert.Equal(t, []string{"first", "second", "third"}, e.Strings)
}

func TestEnvelopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     *Envelope
		wantErr bool
	}{
		{"send with room", NewEnvelope(MethodSend, Room{ID: "r"}, User{}), false},
		{"send with neither", NewEnvelope(MethodSend, Room{}, User{}), true},
		{"dm with user only", NewEnvelope(MethodDM, Room{}, User{ID: "u"}), false},
		{"reply without user", NewEnvelope(MethodReply, Room{ID: "r"}, User{}), true},
		{"reply with user", NewEnvelope(MethodReply, Room{ID: "r"}, User{ID: "u"}), false},
		{"react without target", NewEnvelope(MethodReact, Room{ID: "r"}, User{}), true},
		{"unknown method", NewEnvelope("poke", Room{ID: "r"}, User{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.env.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEnvelopeReactRequiresTargetID(t *testing.T) {
	e := NewEnvelope(MethodReact, Room{ID: "r"}, User{ID: "u"})
	e.TargetID = "msg-123"
	require.NoError(t, e.Validate())
}

func TestEnvelopeIsDirect(t *testing.T) {
	tests := []struct {
		name   string
		room   Room
		user   User
		direct bool
	}{
		{"room embeds user id", Room{ID: "dm-u1"}, User{ID: "u1"}, false},
		{"room does not embed user id", Room{ID: "general"}, User{ID: "u1"}, true},
		{"no room at all", Room{}, User{ID: "u1"}, true},
	}
	for _, tt := range tests {
		e := NewEnvelope(MethodReply, tt.room, tt.user)
		assert.Equal(t, tt.direct, e.IsDirect(), tt.name)
	}
}
