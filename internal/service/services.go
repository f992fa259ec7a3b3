package service

import (
	"github.com/kirinyoku/nft-tix/internal/service/cards"
	"github.com/kirinyoku/nft-tix/internal/service/tickets"
	"github.com/kirinyoku/nft-tix/internal/service/users"
)

// Services is everything the transport layer calls into.
type Services struct {
	Tickets *tickets.Service
	Cards   *cards.Service
	Users   *users.Service
}
