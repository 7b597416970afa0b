package testnlu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	thoughtbot "github.com/nevindra/thoughtbot"
)

func TestProcessMatchesFirstRule(t *testing.T) {
	a := New([]Rule{
		{Intent: "greeting", Keywords: []string{"hello", "hi"}},
		{Intent: "farewell", Keywords: []string{"bye"}},
	})

	user := thoughtbot.User{ID: "u1"}
	msg := thoughtbot.NewTextMessage(user, "Hi there!")

	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, result.Intents, 1)
	assert.Equal(t, "greeting", result.Intents[0].ID)
	assert.Equal(t, "en", result.Language)
}

func TestProcessNoMatchYieldsEmptyIntents(t *testing.T) {
	a := New([]Rule{{Intent: "greeting", Keywords: []string{"hello"}}})
	user := thoughtbot.User{ID: "u1"}
	msg := thoughtbot.NewTextMessage(user, "what time is it")

	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, result.Intents)
}

func TestProcessMatchesMultipleRules(t *testing.T) {
	a := New([]Rule{
		{Intent: "greeting", Keywords: []string{"hello"}},
		{Intent: "question", Keywords: []string{"?"}},
	})
	user := thoughtbot.User{ID: "u1"}
	msg := thoughtbot.NewTextMessage(user, "hello, how are you?")

	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, result.Intents, 2)
}

func TestWithLanguageOverride(t *testing.T) {
	a := New([]Rule{}, WithLanguage("id"))
	user := thoughtbot.User{ID: "u1"}
	msg := thoughtbot.NewTextMessage(user, "halo")

	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "id", result.Language)
}

func TestResultMatchHelper(t *testing.T) {
	a := New([]Rule{{Intent: "greeting", Keywords: []string{"hi"}, Score: 0.9}})
	user := thoughtbot.User{ID: "u1"}
	msg := thoughtbot.NewTextMessage(user, "hi")

	result, err := a.Process(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, result.Match("greeting", 0.5))
	assert.False(t, result.Match("greeting", 0.95))
	assert.False(t, result.Match("farewell", 0.0))
}
