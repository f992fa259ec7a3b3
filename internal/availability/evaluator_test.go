package availability

import (
	"testing"

	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsSoldOut(t *testing.T) {
	tests := []struct {
		left, total uint64
		want        bool
	}{
		{0, 0, true},
		{5, 10, false},
		{10, 10, true},
		{11, 10, true},
		{3, 20, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSoldOut(tt.left, tt.total), "IsSoldOut(%d, %d)", tt.left, tt.total)
	}
}

func TestCounts(t *testing.T) {
	c := domain.TicketCounts{TemplateID: "movie_tickets", TicketsLeft: 3, TotalTickets: 20}
	assert.False(t, Counts(c))
}

func TestForShareList(t *testing.T) {
	assert.False(t, ForShareList(0).Visible)
	assert.True(t, ForShareList(1).Visible)
	assert.False(t, ForShareList(-1).Visible)
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, "hidden", ForShareList(0).HiddenAttr())
	assert.Equal(t, "", ForShareList(3).HiddenAttr())
	assert.Equal(t, "disabled", DisabledAttr(true))
	assert.Equal(t, "", DisabledAttr(false))
}
