package types

import "github.com/DoyleJ11/landlord-client/pkg/types"

type BidOption struct {
	Value   int    `json:"value"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Controls lists the action controls a lobby view offers. A disabled control that is
// still shown (a bid below the current one) appears with Enabled=false.
type Controls struct {
	CanJoin    bool        `json:"can_join,omitempty"`
	CanStart   bool        `json:"can_start,omitempty"`
	StartLabel string      `json:"start_label,omitempty"` // "Start Game" | "Play Again"
	Bids       []BidOption `json:"bids,omitempty"`
	CanPlay    bool        `json:"can_play,omitempty"`
	CanPass    bool        `json:"can_pass,omitempty"`
	CanClear   bool        `json:"can_clear,omitempty"`
	CanChat    bool        `json:"can_chat,omitempty"`
}

// View is everything a renderer needs for one lobby, derived fresh after each change.
type View struct {
	Code       string              `json:"code"`
	State      types.LobbyState    `json:"state"`
	Selected   []int               `json:"selected"`
	Messages   []types.ChatMessage `json:"messages"`
	HasMore    bool                `json:"has_more"`
	Loading    bool                `json:"loading"`
	Connection string              `json:"connection"`

	Notification        string   `json:"notification,omitempty"`
	PhaseLabel          string   `json:"phase"`
	LastPlayDescription string   `json:"last_play,omitempty"`
	IsViewerTurn        bool     `json:"is_viewer_turn"`
	Controls            Controls `json:"controls"`

	// ScrollSeq increases whenever the chat pane should jump to the newest message.
	ScrollSeq int `json:"scroll_seq"`
}
