package txn

import (
	"testing"

	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder() *Builder {
	return NewBuilder(Config{
		MarketContract: "market.testnet",
		NFTContract:    "nft.testnet",
		SellerAccount:  "seller.testnet",
	})
}

var movie = domain.Category{
	Slug:       "movie",
	Title:      "Movie ticket",
	Prefix:     "movie_ticket",
	TemplateID: "movie_tickets",
	PriceNEAR:  "1.5",
	Size:       1,
}

func TestYocto(t *testing.T) {
	assert.Equal(t, "100000000000000000000000", Yocto(decimal.RequireFromString("0.1")))
	assert.Equal(t, "1000000000000000000000000", Yocto(decimal.RequireFromString("1")))
	assert.Equal(t, "0", Yocto(decimal.Zero))
	assert.Equal(t, "1", Yocto(decimal.RequireFromString("0.0000000000000000000000019")))
}

func TestPayAndMint(t *testing.T) {
	call, err := testBuilder().PayAndMint(movie, "movie_ticket_1663322234_5_abcde")
	require.NoError(t, err)

	assert.Equal(t, "market.testnet", call.ReceiverID)
	assert.Equal(t, "pay_and_mint_unsafe", call.MethodName)
	assert.Equal(t, "300000000000000", call.Gas)
	// 1.5 N price + 0.1 N storage reserve
	assert.Equal(t, "1600000000000000000000000", call.Deposit)

	assert.Equal(t, "movie_ticket_1663322234_5_abcde", call.Args["token_id"])
	assert.Equal(t, "nft.testnet", call.Args["nft_contract_id"])
	assert.Equal(t, "seller.testnet", call.Args["nft_seller_id"])
	assert.Equal(t, "1500000000000000000000000", call.Args["price"])
	assert.NotContains(t, call.Args, "size")

	meta, ok := call.Args["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Movie ticket", meta["title"])
}

func TestPayAndMint_SharedTicketCarriesSize(t *testing.T) {
	cat := movie
	cat.Size = 3

	call, err := testBuilder().PayAndMint(cat, "entrance_1_0_abcde")
	require.NoError(t, err)
	assert.Equal(t, 3, call.Args["size"])
}

func TestPayAndMint_Invalid(t *testing.T) {
	_, err := testBuilder().PayAndMint(movie, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bad := movie
	bad.PriceNEAR = "free"
	_, err = testBuilder().PayAndMint(bad, "x_1_0_abcde")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGenerateTemplate(t *testing.T) {
	call, err := testBuilder().GenerateTemplate("movie_tickets", 20, "2")
	require.NoError(t, err)

	assert.Equal(t, "market.testnet", call.ReceiverID)
	assert.Equal(t, "generate_template", call.MethodName)
	assert.Equal(t, "100000000000000000000000", call.Deposit)
	assert.Equal(t, uint64(20), call.Args["total_tickets"])
	assert.Equal(t, "2000000000000000000000000", call.Args["price"])

	_, err = testBuilder().GenerateTemplate("movie_tickets", 0, "2")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = testBuilder().GenerateTemplate("", 5, "2")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetAccounts(t *testing.T) {
	call, err := testBuilder().SetAccounts("entrance_1_0_abcde", []string{"bob.testnet", "carol.testnet"})
	require.NoError(t, err)

	assert.Equal(t, "nft.testnet", call.ReceiverID)
	assert.Equal(t, "set_accounts", call.MethodName)
	assert.Equal(t, []string{"bob.testnet", "carol.testnet"}, call.Args["share_accounts"])
	assert.NotContains(t, call.Args, "accounts")
	assert.Equal(t, "100000000000000000000000", call.Deposit)

	_, err = testBuilder().SetAccounts("entrance_1_0_abcde", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = testBuilder().SetAccounts("entrance_1_0_abcde", []string{""})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNFTApprove(t *testing.T) {
	call, err := testBuilder().NFTApprove("entrance_1_0_abcde", "market.testnet", `{"sale_conditions":"1"}`)
	require.NoError(t, err)

	assert.Equal(t, "nft.testnet", call.ReceiverID)
	assert.Equal(t, "nft_approve", call.MethodName)
	assert.Equal(t, "market.testnet", call.Args["account_id"])
	assert.Equal(t, `{"sale_conditions":"1"}`, call.Args["msg"])

	noMsg, err := testBuilder().NFTApprove("entrance_1_0_abcde", "market.testnet", "")
	require.NoError(t, err)
	assert.NotContains(t, noMsg.Args, "msg")

	_, err = testBuilder().NFTApprove("", "market.testnet", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
