package httpgin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/ledger"
	"github.com/kirinyoku/nft-tix/internal/repository"
	"github.com/kirinyoku/nft-tix/internal/service"
	"github.com/kirinyoku/nft-tix/internal/service/cards"
	"github.com/kirinyoku/nft-tix/internal/service/tickets"
	"github.com/kirinyoku/nft-tix/internal/service/users"
	"github.com/kirinyoku/nft-tix/internal/tokenid"
	"github.com/kirinyoku/nft-tix/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	counts map[domain.TemplateID]domain.TicketCounts
	tokens map[domain.TokenID]domain.Token
	err    error
}

func (f *fakeLedger) TicketCounts(_ context.Context, id domain.TemplateID) (domain.TicketCounts, error) {
	if f.err != nil {
		return domain.TicketCounts{}, f.err
	}
	return f.counts[id], nil
}

func (f *fakeLedger) TokenByID(_ context.Context, id domain.TokenID) (*domain.Token, error) {
	t, ok := f.tokens[id]
	if !ok {
		return nil, ledger.ErrTokenNotFound
	}
	return &t, nil
}

func (f *fakeLedger) Greeting(context.Context, string) (string, error) { return "hi", nil }

func (f *fakeLedger) OthersSetGreeting(context.Context, string) (string, error) { return "", nil }

func (f *fakeLedger) TokensForOwner(context.Context, string, int) ([]domain.Token, error) {
	return []domain.Token{}, nil
}

type denyLimiter struct{ retry time.Duration }

func (d denyLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, d.retry, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (m *memUsers) Create(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; ok {
		return domain.User{}, repository.ErrConflict
	}
	u := domain.User{AccountID: id, CreatedAt: time.Unix(1663322234, 0).UTC()}
	m.users[id] = u
	return u, nil
}

func (m *memUsers) Get(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) List(context.Context, int, int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func newTestRouter(t *testing.T, l *fakeLedger, limiter tickets.Limiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	calls := txn.NewBuilder(txn.Config{
		MarketContract: "market.testnet",
		NFTContract:    "nft.testnet",
		SellerAccount:  "seller.testnet",
	})

	movie := domain.Category{
		Slug:       "movie",
		Title:      "Movie ticket",
		Prefix:     "movie_ticket",
		TemplateID: "movie_tickets",
		PriceNEAR:  "1",
		Size:       1,
	}

	svcs := &service.Services{
		Tickets: tickets.New(l, tokenid.New(), calls, limiter, nil, logger,
			tickets.Config{Categories: []domain.Category{movie}}),
		Cards: cards.New(l, nil, calls, cards.Config{DefaultApprovee: "market.testnet"}),
		Users: users.New(&memUsers{users: map[string]domain.User{}}, l),
	}

	return NewRouter(svcs, logger, testAdminSecret)
}

const testAdminSecret = "test-admin-secret"

func adminToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops.testnet",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func availableLedger() *fakeLedger {
	return &fakeLedger{
		counts: map[domain.TemplateID]domain.TicketCounts{
			"movie_tickets": {TemplateID: "movie_tickets", TicketsLeft: 3, TotalTickets: 20},
		},
		tokens: map[domain.TokenID]domain.Token{
			"movie_ticket_1_0_abcde": {TokenID: "movie_ticket_1_0_abcde", OwnerID: "alice.testnet"},
			"entrance_1_0_abcde":     {TokenID: "entrance_1_0_abcde", OwnerID: "alice.testnet", SharedOwners: []string{"alice.testnet"}},
		},
	}
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(newTestRouter(t, availableLedger(), nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestAvailability_ETag(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)

	w := do(r, http.MethodGet, "/tickets/movie/availability", "")
	require.Equal(t, http.StatusOK, w.Code)

	var a tickets.Availability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.False(t, a.SoldOut)
	assert.Equal(t, uint64(3), a.Counts.TicketsLeft)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = do(r, http.MethodGet, "/tickets/movie/availability", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestAvailability_UnknownCategory(t *testing.T) {
	w := do(newTestRouter(t, availableLedger(), nil), http.MethodGet, "/tickets/concert/availability", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailability_LedgerDown(t *testing.T) {
	l := availableLedger()
	l.err = ledger.ErrUnavailable

	w := do(newTestRouter(t, l, nil), http.MethodGet, "/tickets", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPurchase(t *testing.T) {
	w := do(newTestRouter(t, availableLedger(), nil), http.MethodPost, "/tickets/movie/purchase", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var intent tickets.PurchaseIntent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))

	assert.True(t, strings.HasPrefix(string(intent.TokenID), "movie_ticket_"))
	assert.Equal(t, string(intent.TokenID), intent.Call.Args["token_id"])
	assert.Equal(t, "market.testnet", intent.Call.ReceiverID)
}

func TestPurchase_SoldOut(t *testing.T) {
	l := availableLedger()
	l.counts["movie_tickets"] = domain.TicketCounts{TemplateID: "movie_tickets", TicketsLeft: 20, TotalTickets: 20}

	w := do(newTestRouter(t, l, nil), http.MethodPost, "/tickets/movie/purchase", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPurchase_RateLimited(t *testing.T) {
	w := do(newTestRouter(t, availableLedger(), denyLimiter{retry: 1500 * time.Millisecond}),
		http.MethodPost, "/tickets/movie/purchase", "")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestGetCard(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)

	w := do(r, http.MethodGet, "/cards/movie_ticket_1_0_abcde?viewer=alice.testnet", "")
	require.Equal(t, http.StatusOK, w.Code)

	var card cards.Card
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, cards.RoleOwner, card.Role)
	assert.Equal(t, "hidden", card.ShareListHidden)

	w = do(r, http.MethodGet, "/cards/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShare_Validation(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)

	w := do(r, http.MethodPost, "/cards/entrance_1_0_abcde/share", `{"accounts":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/cards/movie_ticket_1_0_abcde/share", `{"accounts":["bob.testnet"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/cards/entrance_1_0_abcde/share", `{"accounts":["bob.testnet","carol.testnet"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/cards/entrance_1_0_abcde/share", `{"accounts":["bob.testnet"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CallResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "set_accounts", resp.Call.MethodName)
}

func TestApprove_EmptyBody(t *testing.T) {
	w := do(newTestRouter(t, availableLedger(), nil), http.MethodPost, "/cards/movie_ticket_1_0_abcde/approve", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp CallResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "market.testnet", resp.Call.Args["account_id"])
}

func TestUsers(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)

	w := do(r, http.MethodPost, "/users", `{"account_id":"alice.testnet"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/users", `{"account_id":"alice.testnet"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/users", `{"account_id":"Not Valid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/users/alice.testnet", "")
	require.Equal(t, http.StatusOK, w.Code)

	var p users.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "hi", p.Greeting)
	assert.Contains(t, p.GravatarURL, "?d=identicon&r=PG")

	w = do(r, http.MethodGet, "/users/bob.testnet", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTemplate(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)
	auth := adminToken(t, testAdminSecret, roleAdmin, time.Hour)

	w := do(r, http.MethodPost, "/admin/templates", `{"template_id":"movie_tickets","total_tickets":20,"price_near":"1"}`,
		"Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/admin/templates", `{"template_id":"movie_tickets","total_tickets":20,"price_near":"abc"}`,
		"Authorization", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminAuth(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)
	body := `{"template_id":"movie_tickets","total_tickets":20,"price_near":"1"}`

	w := do(r, http.MethodPost, "/admin/templates", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/admin/templates", body,
		"Authorization", adminToken(t, "other-secret", roleAdmin, time.Hour))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/admin/templates", body,
		"Authorization", adminToken(t, testAdminSecret, roleAdmin, -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/admin/templates", body,
		"Authorization", adminToken(t, testAdminSecret, "viewer", time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAuth_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/templates", AdminAuthMiddleware(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodPost, "/admin/templates", "",
		"Authorization", adminToken(t, testAdminSecret, roleAdmin, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCardQR(t *testing.T) {
	r := newTestRouter(t, availableLedger(), nil)

	w := do(r, http.MethodGet, "/cards/movie_ticket_1_0_abcde/qr?size=200", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))

	w = do(r, http.MethodGet, "/cards/unknown/qr", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestETagMatches(t *testing.T) {
	assert.True(t, etagMatches(`W/"abc"`, `W/"abc"`))
	assert.True(t, etagMatches(`"abc"`, `W/"abc"`))
	assert.True(t, etagMatches(`"x", W/"abc"`, `W/"abc"`))
	assert.True(t, etagMatches(`*`, `W/"abc"`))
	assert.False(t, etagMatches(``, `W/"abc"`))
	assert.False(t, etagMatches(`"abd"`, `W/"abc"`))
}
