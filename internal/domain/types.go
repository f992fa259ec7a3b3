package domain

import (
	"time"
)

// TemplateID identifies a class of ticket on the market contract
// (e.g. "movie_tickets"). It is an opaque key into the ledger.
type TemplateID string

// TokenID identifies one minted ticket/card on the NFT contract.
type TokenID string

type TicketCounts struct {
	TemplateID   TemplateID `json:"template_id"`
	TicketsLeft  uint64     `json:"tickets_left"`
	TotalTickets uint64     `json:"total_tickets"`
}

// Category is a purchasable ticket kind. Prefix is used for new token ids,
// TemplateID is the ledger template the category mints from.
type Category struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Prefix      string     `json:"prefix"`
	TemplateID  TemplateID `json:"template_id"`
	PriceNEAR   string     `json:"price_near"`
	Size        int        `json:"size"`
	Description string     `json:"description,omitempty"`
	Media       string     `json:"media,omitempty"`
}

type TokenMetadata struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Media       *string `json:"media"`
	MediaHash   *string `json:"media_hash"`
	Copies      *uint64 `json:"copies"`
	IssuedAt    *uint64 `json:"issued_at"`
	ExpiresAt   *uint64 `json:"expires_at"`
	StartsAt    *uint64 `json:"starts_at"`
	UpdatedAt   *uint64 `json:"updated_at"`
	Extra       *string `json:"extra"`
	Reference   *string `json:"reference"`
	// ReferenceHash is base64 encoded on chain.
	ReferenceHash *string `json:"reference_hash"`
}

// Token is the JSON view of an NFT returned by nft_token.
type Token struct {
	TokenID            TokenID           `json:"token_id"`
	OwnerID            string            `json:"owner_id"`
	SharedOwners       []string          `json:"shared_owners"`
	TicketUsed         []bool            `json:"ticket_used"`
	Metadata           TokenMetadata     `json:"metadata"`
	ApprovedAccountIDs map[string]uint64 `json:"approved_account_ids"`
	Royalty            map[string]uint16 `json:"royalty"`
}

type User struct {
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
