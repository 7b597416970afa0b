package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	thoughtbot "github.com/nevindra/thoughtbot"
)

type fakeChatter struct {
	response string
	err      error
}

func (f *fakeChatter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.response, f.err
}

func TestProcessParsesIntent(t *testing.T) {
	chatter := &fakeChatter{response: `{"intent":"greeting"}`}
	a := New(chatter, []string{"greeting", "farewell"})

	msg := thoughtbot.NewTextMessage(thoughtbot.User{ID: "u1"}, "hi there")
	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, result.Intents, 1)
	assert.Equal(t, "greeting", result.Intents[0].ID)
}

func TestProcessStripsCodeFence(t *testing.T) {
	chatter := &fakeChatter{response: "```json\n{\"intent\":\"farewell\"}\n```"}
	a := New(chatter, []string{"greeting", "farewell"})

	msg := thoughtbot.NewTextMessage(thoughtbot.User{ID: "u1"}, "bye")
	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, result.Intents, 1)
	assert.Equal(t, "farewell", result.Intents[0].ID)
}

func TestProcessUnknownLabelYieldsNoIntent(t *testing.T) {
	chatter := &fakeChatter{response: `{"intent":"unrelated"}`}
	a := New(chatter, []string{"greeting", "farewell"})

	msg := thoughtbot.NewTextMessage(thoughtbot.User{ID: "u1"}, "???")
	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, result.Intents)
}

func TestProcessChatterErrorDegradesGracefully(t *testing.T) {
	chatter := &fakeChatter{err: errors.New("boom")}
	a := New(chatter, []string{"greeting"})

	msg := thoughtbot.NewTextMessage(thoughtbot.User{ID: "u1"}, "hi")
	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, result.Intents)
}

func TestProcessMalformedJSONYieldsNoIntent(t *testing.T) {
	chatter := &fakeChatter{response: "not json at all"}
	a := New(chatter, []string{"greeting"})

	msg := thoughtbot.NewTextMessage(thoughtbot.User{ID: "u1"}, "hi")
	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, result.Intents)
}
