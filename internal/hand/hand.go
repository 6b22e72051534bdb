package hand

import "slices"

// Selection is the set of cards the viewer has picked from their hand. It is local UI
// state: the server only ever sees it as the card list of a Play.
//
// Gestures: Pick toggles a card and arms drag-select; DragOver while armed adds cards
// but never removes them; Release disarms.
type Selection struct {
	hand     map[int]bool
	selected map[int]bool
	dragging bool
}

func NewSelection(hand []int) *Selection {
	s := &Selection{selected: make(map[int]bool)}
	s.setHand(hand)
	return s
}

func (s *Selection) setHand(hand []int) {
	s.hand = make(map[int]bool, len(hand))
	for _, c := range hand {
		s.hand[c] = true
	}
}

// Sync adopts the authoritative hand and drops every selected card no longer in it.
func (s *Selection) Sync(hand []int) {
	s.setHand(hand)
	for c := range s.selected {
		if !s.hand[c] {
			delete(s.selected, c)
		}
	}
}

// Pick toggles card and arms drag-select. Cards not in the hand are ignored.
func (s *Selection) Pick(card int) {
	if !s.hand[card] {
		return
	}
	s.dragging = true
	if s.selected[card] {
		delete(s.selected, card)
	} else {
		s.selected[card] = true
	}
}

// DragOver adds card while a pick is held.
func (s *Selection) DragOver(card int) {
	if !s.dragging || !s.hand[card] {
		return
	}
	s.selected[card] = true
}

func (s *Selection) Release() { s.dragging = false }

func (s *Selection) Clear() {
	clear(s.selected)
}

func (s *Selection) Has(card int) bool { return s.selected[card] }
func (s *Selection) Len() int          { return len(s.selected) }
func (s *Selection) Dragging() bool    { return s.dragging }

// Sorted returns the selection in ascending card order, the order Play submits.
func (s *Selection) Sorted() []int {
	out := make([]int, 0, len(s.selected))
	for c := range s.selected {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
