// Package chat keeps the lobby chat as one strictly time-ordered sequence built from the
// first page, older pages fetched on demand, and live pushes.
package chat

import (
	"errors"
	"slices"
	"sort"

	"github.com/DoyleJ11/landlord-client/pkg/types"
)

var ErrNoMoreHistory = errors.New("no more chat history")

const (
	DefaultPageSize = 50
	// FollowThreshold is how close (px) to the bottom the pane must be for live
	// messages to keep it pinned to the newest line.
	FollowThreshold = 50
)

// History is owned by the lobby loop goroutine; it is not safe for concurrent use.
type History struct {
	pageSize int
	messages []types.ChatMessage
	hasMore  bool
	loading  bool
	viewport *types.Viewport
}

// New seeds the history with the newest page, ordered oldest to newest. The history
// starts out mounting: loads are refused until Mounted is called.
func New(initial []types.ChatMessage, pageSize int) *History {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	h := &History{
		pageSize: pageSize,
		hasMore:  len(initial) >= pageSize,
		loading:  true,
	}
	h.messages = merge(nil, initial)
	return h
}

// Mounted ends the mounting phase once the pane has scrolled to the newest message.
func (h *History) Mounted() { h.loading = false }

func (h *History) Messages() []types.ChatMessage { return slices.Clone(h.messages) }
func (h *History) Len() int                      { return len(h.messages) }
func (h *History) HasMore() bool                 { return h.hasMore }
func (h *History) Loading() bool                 { return h.loading }

// BeginLoadOlder claims the single in-flight slot for a history fetch. ok is false when a
// load is already running or the history is exhausted; the caller must not fetch then.
// before is the oldest held timestamp, valid when hasBefore is true.
func (h *History) BeginLoadOlder() (before int64, hasBefore bool, ok bool) {
	if h.loading || !h.hasMore {
		return 0, false, false
	}
	h.loading = true
	if len(h.messages) > 0 {
		return h.messages[0].Time, true, true
	}
	return 0, false, true
}

// CompleteLoadOlder applies the result of the fetch started by BeginLoadOlder. Only
// messages strictly older than the current oldest are taken. A short page from the
// server marks the history exhausted and returns ErrNoMoreHistory after applying what arrived.
func (h *History) CompleteLoadOlder(older []types.ChatMessage, fetchErr error) error {
	h.loading = false
	if fetchErr != nil {
		return fetchErr
	}
	short := len(older) < h.pageSize

	if len(h.messages) > 0 {
		oldest := h.messages[0].Time
		older = slices.DeleteFunc(slices.Clone(older), func(m types.ChatMessage) bool {
			return m.Time >= oldest
		})
	}
	h.messages = merge(older, h.messages)

	if short {
		h.hasMore = false
		return ErrNoMoreHistory
	}
	return nil
}

// AppendLive adds a pushed message, keeping the sequence strictly ascending. A message
// whose timestamp is already held is dropped. Returns whether it was added.
func (h *History) AppendLive(m types.ChatMessage) bool {
	n := len(h.messages)
	if n == 0 || m.Time > h.messages[n-1].Time {
		h.messages = append(h.messages, m)
		return true
	}

	i := sort.Search(n, func(i int) bool { return h.messages[i].Time >= m.Time })
	if i < n && h.messages[i].Time == m.Time {
		return false
	}
	h.messages = slices.Insert(h.messages, i, m)
	return true
}

// SetViewport records the latest scroll position reported by the renderer.
func (h *History) SetViewport(v types.Viewport) {
	h.viewport = &v
}

// ShouldFollow reports whether the pane is near enough the bottom that a new live
// message should scroll it. Before any viewport report the pane counts as following.
func (h *History) ShouldFollow() bool {
	if h.viewport == nil {
		return true
	}
	return h.viewport.DistanceFromBottom() < FollowThreshold
}

// merge combines two sequences into one strictly ascending, duplicate-free slice.
func merge(a, b []types.ChatMessage) []types.ChatMessage {
	out := make([]types.ChatMessage, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return slices.CompactFunc(out, func(x, y types.ChatMessage) bool { return x.Time == y.Time })
}
