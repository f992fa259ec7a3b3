// Package availability decides what the purchase and card views enable or
// hide, given counters already read from the ledger.
package availability

import "github.com/kirinyoku/nft-tix/internal/domain"

// IsSoldOut reports whether purchasing should be disabled.
//
// A template with no tickets at all (0, 0) counts as sold out: the ledger
// answers 0 for unknown templates too, and the two cases cannot be told apart.
func IsSoldOut(ticketsLeft, totalTickets uint64) bool {
	return ticketsLeft >= totalTickets
}

// Counts applies IsSoldOut to a ledger reading.
func Counts(c domain.TicketCounts) bool {
	return IsSoldOut(c.TicketsLeft, c.TotalTickets)
}

type Visibility struct {
	Visible bool `json:"visible"`
}

// HiddenAttr returns the HTML attribute value for the element, "hidden" or "".
func (v Visibility) HiddenAttr() string {
	if v.Visible {
		return ""
	}
	return "hidden"
}

// ForShareList decides whether the list of sharer accounts is rendered.
func ForShareList(shareLength int) Visibility {
	return Visibility{Visible: shareLength > 0}
}

// DisabledAttr returns "disabled" for a sold-out purchase button.
func DisabledAttr(soldOut bool) string {
	if soldOut {
		return "disabled"
	}
	return ""
}
