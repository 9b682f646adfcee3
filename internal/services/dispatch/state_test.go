package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSONRoundTrip(t *testing.T) {
	for _, state := range []State{StateIdle, StateSending, StateSucceeded, StateFailed} {
		t.Run(state.String(), func(t *testing.T) {
			in := Event{
				State:   state,
				ChatID:  "chat-1",
				Loading: state == StateSending,
				Error:   "",
				At:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			}

			data, err := json.Marshal(in)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"state":"`+state.String()+`"`)

			var out Event
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, in.State, out.State)
			assert.Equal(t, in.ChatID, out.ChatID)
			assert.Equal(t, in.Loading, out.Loading)
			assert.True(t, in.At.Equal(out.At))
		})
	}
}

func TestStateUnmarshalRejectsUnknown(t *testing.T) {
	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
	assert.Error(t, json.Unmarshal([]byte(`{"state":"unknown"}`), &Event{}))
}
