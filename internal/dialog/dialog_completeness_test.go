package dialog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEveryStateHasHandler keeps the dispatch table in sync with the state
// enum: adding a state without wiring a handler fails here, not in chat.
func TestEveryStateHasHandler(t *testing.T) {
	for s := StateIdle; s < stateCount; s++ {
		assert.Contains(t, handlers, s, "state %d (%s) has no handler", s, s)
		assert.NotEqual(t, "unknown", s.String(), "state %d has no name", s)
	}
	assert.Len(t, handlers, int(stateCount))
}

// TestEveryStateToleratesAnyInputKind feeds a nonsense event of each kind
// into every state. None may error or panic; the worst allowed outcome is a
// re-prompt.
func TestEveryStateToleratesAnyInputKind(t *testing.T) {
	inputs := map[InputKind]Input{
		KindText:      {Kind: KindText, Text: "какой-то текст"},
		KindSelection: {Kind: KindSelection, Selection: "noise_token"},
		KindDocument:  {Kind: KindDocument, Document: []byte("not json")},
	}
	require.Len(t, inputs, int(kindCount))

	for state := StateIdle; state < stateCount; state++ {
		for kind, in := range inputs {
			t.Run(fmt.Sprintf("%s/kind_%d", state, kind), func(t *testing.T) {
				env := newTestEnv()
				env.transfer.importCount = 0
				if state != StateIdle {
					env.engine.store.Begin(env.user.TelegramID, state)
				}
				assert.NoError(t, env.engine.HandleInput(context.Background(), env.user, in))
			})
		}
	}
}

func TestStoreBeginDropsStaleScratch(t *testing.T) {
	store := NewStore()

	sess := store.Begin(7, StateAwaitingTitle)
	sess.Draft.Title = "недописанная"
	sess.TargetTaskID = 12

	fresh := store.Begin(7, StateAwaitingEditTitle)
	assert.Empty(t, fresh.Draft.Title)
	assert.Zero(t, fresh.TargetTaskID)
	assert.Equal(t, StateAwaitingEditTitle, fresh.State)

	store.Clear(7)
	_, ok := store.Get(7)
	assert.False(t, ok)
}
