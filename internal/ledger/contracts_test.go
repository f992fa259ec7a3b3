package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	contract string
	method   string
	args     map[string]any
}

type fakeQuerier struct {
	mu      sync.Mutex
	calls   []call
	answers map[string]string
	errs    map[string]error
}

func (f *fakeQuerier) Query(_ context.Context, contractID, methodName string, args map[string]any) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{contract: contractID, method: methodName, args: args})

	if err := f.errs[methodName]; err != nil {
		return nil, err
	}

	return []byte(f.answers[methodName]), nil
}

const tokenJSON = `{
	"token_id": "movie_ticket_1663322234_5_abcde",
	"owner_id": "alice.testnet",
	"shared_owners": ["bob.testnet", "carol.testnet"],
	"ticket_used": [false, false, true],
	"metadata": {"title": "Movie night", "description": null, "media": "https://example.com/m.png", "media_hash": null, "copies": 1,
		"issued_at": null, "expires_at": null, "starts_at": null, "updated_at": null, "extra": null, "reference": null, "reference_hash": null},
	"approved_account_ids": {"market.testnet": 0},
	"royalty": {"alice.testnet": 1000}
}`

func TestContracts_TicketCounts(t *testing.T) {
	q := &fakeQuerier{answers: map[string]string{
		"get_tickets_left":  "3",
		"get_total_tickets": "20",
	}}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	counts, err := c.TicketCounts(context.Background(), "movie_tickets")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCounts{TemplateID: "movie_tickets", TicketsLeft: 3, TotalTickets: 20}, counts)

	require.Len(t, q.calls, 2)
	for _, cl := range q.calls {
		assert.Equal(t, "market.testnet", cl.contract)
		assert.Equal(t, "movie_tickets", cl.args["template_id"])
	}
}

func TestContracts_TicketCounts_Error(t *testing.T) {
	boom := errors.New("gateway down")
	q := &fakeQuerier{
		answers: map[string]string{"get_tickets_left": "3"},
		errs:    map[string]error{"get_total_tickets": boom},
	}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	_, err := c.TicketCounts(context.Background(), "movie_tickets")
	assert.ErrorIs(t, err, boom)
}

func TestContracts_TicketsLeft_QuotedAndMalformed(t *testing.T) {
	q := &fakeQuerier{answers: map[string]string{"get_tickets_left": `"42"`, "get_total_tickets": `{"x":1}`}}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	n, err := c.TicketsLeft(context.Background(), "entrance_tickets")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)

	_, err = c.TotalTickets(context.Background(), "entrance_tickets")
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestContracts_TokenByID(t *testing.T) {
	q := &fakeQuerier{answers: map[string]string{"nft_token": tokenJSON}}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	tok, err := c.TokenByID(context.Background(), "movie_ticket_1663322234_5_abcde")
	require.NoError(t, err)

	assert.Equal(t, domain.TokenID("movie_ticket_1663322234_5_abcde"), tok.TokenID)
	assert.Equal(t, "alice.testnet", tok.OwnerID)
	assert.Equal(t, []string{"bob.testnet", "carol.testnet"}, tok.SharedOwners)
	assert.Equal(t, []bool{false, false, true}, tok.TicketUsed)
	require.NotNil(t, tok.Metadata.Title)
	assert.Equal(t, "Movie night", *tok.Metadata.Title)
	assert.Nil(t, tok.Metadata.Description)
	assert.Equal(t, uint16(1000), tok.Royalty["alice.testnet"])

	assert.Equal(t, "nft.testnet", q.calls[0].contract)
}

func TestContracts_TokenByID_Null(t *testing.T) {
	q := &fakeQuerier{answers: map[string]string{"nft_token": "null"}}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	_, err := c.TokenByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestContracts_TokensForOwner(t *testing.T) {
	q := &fakeQuerier{answers: map[string]string{"nft_tokens_for_owner": "[" + tokenJSON + "]"}}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	tokens, err := c.TokensForOwner(context.Background(), "alice.testnet", 0)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, defaultTokensLimit, q.calls[0].args["limit"])
	assert.Equal(t, "alice.testnet", q.calls[0].args["account_id"])
}

func TestContracts_Greetings(t *testing.T) {
	q := &fakeQuerier{answers: map[string]string{
		"get_greeting":            `"Hello from alice"`,
		"get_others_set_greeting": `plain text`,
	}}
	c := NewContracts(q, "market.testnet", "nft.testnet")

	g, err := c.Greeting(context.Background(), "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, "Hello from alice", g)

	o, err := c.OthersSetGreeting(context.Background(), "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, "plain text", o)
}
