package chat

import (
	"errors"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/landlord-client/pkg/types"
)

func page(from, to int64) []types.ChatMessage {
	var out []types.ChatMessage
	for t := from; t <= to; t++ {
		out = append(out, types.ChatMessage{Text: "m", Speaker: int(t % 3), Time: t})
	}
	return out
}

func requireStrictlyAscending(t *testing.T, msgs []types.ChatMessage) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		require.Less(t, msgs[i-1].Time, msgs[i].Time, "at index %d", i)
	}
}

func TestNew_FullPageHasMore(t *testing.T) {
	h := New(page(1, 50), 50)
	assert.True(t, h.HasMore())
	assert.Equal(t, 50, h.Len())

	short := New(page(1, 10), 50)
	assert.False(t, short.HasMore())
}

func TestBeginLoadOlder_RefusedWhileMounting(t *testing.T) {
	h := New(page(1, 50), 50)

	_, _, ok := h.BeginLoadOlder()
	assert.False(t, ok, "no fetch before the pane has mounted")

	h.Mounted()
	before, hasBefore, ok := h.BeginLoadOlder()
	require.True(t, ok)
	assert.True(t, hasBefore)
	assert.Equal(t, int64(1), before)
}

func TestBeginLoadOlder_SingleFlight(t *testing.T) {
	h := New(page(101, 150), 50)
	h.Mounted()

	_, _, ok := h.BeginLoadOlder()
	require.True(t, ok)
	_, _, again := h.BeginLoadOlder()
	assert.False(t, again, "second call while in flight must not fetch")

	require.NoError(t, h.CompleteLoadOlder(page(51, 100), nil))
	_, _, ok = h.BeginLoadOlder()
	assert.True(t, ok, "slot is free again after completion")
}

func TestCompleteLoadOlder_ShortPageExhausts(t *testing.T) {
	h := New(page(21, 70), 50)
	h.Mounted()

	_, _, ok := h.BeginLoadOlder()
	require.True(t, ok)
	err := h.CompleteLoadOlder(page(1, 20), nil)
	require.ErrorIs(t, err, ErrNoMoreHistory)

	assert.False(t, h.HasMore())
	assert.Equal(t, 70, h.Len())
	assert.Equal(t, int64(1), h.Messages()[0].Time)

	_, _, ok = h.BeginLoadOlder()
	assert.False(t, ok, "exhausted history never fetches")
}

func TestCompleteLoadOlder_FailureKeepsHasMore(t *testing.T) {
	h := New(page(51, 100), 50)
	h.Mounted()

	_, _, ok := h.BeginLoadOlder()
	require.True(t, ok)
	boom := errors.New("503")
	require.ErrorIs(t, h.CompleteLoadOlder(nil, boom), boom)

	assert.True(t, h.HasMore())
	assert.False(t, h.Loading())
	_, _, ok = h.BeginLoadOlder()
	assert.True(t, ok, "a later scroll can retry")
}

func TestCompleteLoadOlder_IgnoresOverlap(t *testing.T) {
	h := New(page(51, 100), 50)
	h.Mounted()
	h.BeginLoadOlder()

	// Server returned a page that overlaps what we hold; only strictly older lines count.
	require.NoError(t, h.CompleteLoadOlder(page(11, 60), nil))
	msgs := h.Messages()
	requireStrictlyAscending(t, msgs)
	assert.Equal(t, 90, len(msgs))
}

func TestAppendLive(t *testing.T) {
	h := New(page(1, 3), 50)

	assert.True(t, h.AppendLive(types.ChatMessage{Text: "new", Time: 10}))
	assert.False(t, h.AppendLive(types.ChatMessage{Text: "dup", Time: 10}))
	assert.True(t, h.AppendLive(types.ChatMessage{Text: "late", Time: 5}))

	msgs := h.Messages()
	requireStrictlyAscending(t, msgs)
	assert.Equal(t, "new", msgs[len(msgs)-1].Text)
}

func TestMessages_ReturnsCopy(t *testing.T) {
	h := New(page(1, 3), 50)
	msgs := h.Messages()
	msgs[0].Text = "changed"
	assert.Equal(t, "m", h.Messages()[0].Text)
}

func TestShouldFollow(t *testing.T) {
	h := New(nil, 50)
	assert.True(t, h.ShouldFollow())

	h.SetViewport(types.Viewport{ScrollHeight: 1000, ScrollTop: 560, ClientHeight: 400})
	assert.True(t, h.ShouldFollow(), "40px from the bottom")

	h.SetViewport(types.Viewport{ScrollHeight: 1000, ScrollTop: 300, ClientHeight: 400})
	assert.False(t, h.ShouldFollow(), "scrolled up reading history")
}

// Any interleaving of older-page completions and live appends stays strictly ascending
// without duplicates.
func TestOrderingUnderInterleaving(t *testing.T) {
	f := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		const size = 5
		h := New(page(1000, 1004), size)
		h.Mounted()

		oldest := int64(1000)
		live := int64(1004)
		for step := 0; step < 40; step++ {
			switch r.Intn(3) {
			case 0:
				if _, _, ok := h.BeginLoadOlder(); ok {
					n := int64(r.Intn(size + 1))
					older := page(oldest-n, oldest-1)
					oldest -= n
					// Completion happens later, possibly after live messages.
					for k := r.Intn(3); k > 0; k-- {
						live++
						h.AppendLive(types.ChatMessage{Time: live})
					}
					_ = h.CompleteLoadOlder(older, nil)
				}
			case 1:
				live++
				h.AppendLive(types.ChatMessage{Time: live})
			case 2:
				// Duplicate push of something already held.
				h.AppendLive(types.ChatMessage{Time: live - int64(r.Intn(3))})
			}
		}

		msgs := h.Messages()
		for i := 1; i < len(msgs); i++ {
			if msgs[i-1].Time >= msgs[i].Time {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}
