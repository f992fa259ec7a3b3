package httpgin

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/nft-tix/internal/domain"
	"github.com/kirinyoku/nft-tix/internal/ledger"
	"github.com/kirinyoku/nft-tix/internal/metrics"
	"github.com/kirinyoku/nft-tix/internal/service"
	"github.com/kirinyoku/nft-tix/internal/service/cards"
	"github.com/kirinyoku/nft-tix/internal/service/tickets"
	"github.com/kirinyoku/nft-tix/internal/service/users"
	"github.com/kirinyoku/nft-tix/internal/tokenid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter mounts every route. adminSecret verifies the bearer tokens of
// the /admin group.
func NewRouter(
	svcs *service.Services,
	logger *slog.Logger,
	adminSecret string,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(), metrics.Middleware())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/tickets", handleCatalogue(svcs))
	r.GET("/tickets/:category", handlePurchasePage(svcs))
	r.GET("/tickets/:category/availability", handleAvailability(svcs))
	r.POST("/tickets/:category/purchase", handlePurchase(svcs))

	r.GET("/cards/:token_id", handleGetCard(svcs))
	r.POST("/cards/:token_id/share", handleShare(svcs))
	r.POST("/cards/:token_id/approve", handleApprove(svcs))
	r.POST("/cards/:token_id/refresh", handleRefresh(svcs))
	r.GET("/cards/:token_id/qr", handleCardQR(svcs))

	r.GET("/users", handleListUsers(svcs))
	r.POST("/users", handleRegisterUser(svcs))
	r.GET("/users/:account_id", handleProfile(svcs))

	admin := r.Group("/admin", AdminAuthMiddleware(adminSecret))
	{
		admin.POST("/templates", handleCreateTemplate(svcs))
	}

	return r
}

// @Summary  List ticket categories with availability
// @Success  200  {array}   tickets.Availability
// @Failure  502  {object}  ErrorResponse "ledger unavailable"
// @Router   /tickets [get]
func handleCatalogue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Tickets.Catalogue(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// counters are read fresh each time; clients must revalidate
		writeJSONWithCache(c, http.StatusOK, list, "no-cache", true)
	}
}

// @Summary  Purchase page data: availability and a fresh token id
// @Param    category  path  string  true  "Category slug"
// @Success  200  {object}  tickets.PurchasePage
// @Failure  404  {object}  ErrorResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /tickets/{category} [get]
func handlePurchasePage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svcs.Tickets.PurchasePage(c.Request.Context(), c.Param("category"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, page)
	}
}

// @Summary  Ticket counters of a category
// @Param    category  path  string  true  "Category slug"
// @Success  200  {object}  tickets.Availability
// @Failure  404  {object}  ErrorResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /tickets/{category}/availability [get]
func handleAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := svcs.Tickets.Availability(c.Request.Context(), c.Param("category"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, a, "no-cache", true)
	}
}

// @Summary  Create purchase intent (idempotent)
// @Param    category         path    string  true   "Category slug"
// @Param    Idempotency-Key  header  string  false  "retries with the same key get the same token id"
// @Success  201  {object}  tickets.PurchaseIntent
// @Success  200  {object}  tickets.PurchaseIntent "replayed"
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse "sold out / idempotency key in progress"
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Router   /tickets/{category}/purchase [post]
func handlePurchase(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))

		intent, replayed, err := svcs.Tickets.CreatePurchaseIntent(c.Request.Context(), tickets.PurchaseRequest{
			Category:       c.Param("category"),
			Client:         "ip:" + c.ClientIP(),
			IdempotencyKey: idemKey,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		if idemKey != "" {
			c.Header(headerIdempotencyKey, idemKey)
		}

		if replayed {
			c.Header(headerReplayed, "true")
			c.JSON(http.StatusOK, intent)
			return
		}

		c.JSON(http.StatusCreated, intent)
	}
}

// @Summary  Card view of a token
// @Param    token_id  path   string  true   "Token ID"
// @Param    viewer    query  string  false  "account id of the signed in user"
// @Success  200  {object}  cards.Card
// @Failure  404  {object}  ErrorResponse
// @Router   /cards/{token_id} [get]
func handleGetCard(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		card, err := svcs.Cards.GetCard(c.Request.Context(), domain.TokenID(c.Param("token_id")), c.Query("viewer"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, card, "private, max-age=15", true)
	}
}

// @Summary  Prepare set_accounts for a shared ticket
// @Param    token_id  path  string        true  "Token ID"
// @Param    req       body  ShareRequest  true  "payload"
// @Success  200  {object}  CallResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /cards/{token_id}/share [post]
func handleShare(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ShareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		tokenID := domain.TokenID(c.Param("token_id"))
		call, err := svcs.Cards.ShareCall(c.Request.Context(), tokenID, req.Accounts)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CallResponse{TokenID: tokenID, Call: call})
	}
}

// @Summary  Prepare nft_approve
// @Param    token_id  path  string          true   "Token ID"
// @Param    req       body  ApproveRequest  false  "payload"
// @Success  200  {object}  CallResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /cards/{token_id}/approve [post]
func handleApprove(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ApproveRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err.Error())
				return
			}
		}

		tokenID := domain.TokenID(c.Param("token_id"))
		call, err := svcs.Cards.ApproveCall(c.Request.Context(), tokenID, req.AccountID, req.Msg)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CallResponse{TokenID: tokenID, Call: call})
	}
}

// @Summary  Drop the cached token after a signed change
// @Param    token_id  path  string  true  "Token ID"
// @Success  204
// @Router   /cards/{token_id}/refresh [post]
func handleRefresh(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Cards.Refresh(c.Request.Context(), domain.TokenID(c.Param("token_id"))); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Check-in QR code of a card
// @Param    token_id  path   string  true   "Token ID"
// @Param    size      query  int     false  "edge length in pixels"
// @Produce  png
// @Success  200
// @Failure  404  {object}  ErrorResponse
// @Router   /cards/{token_id}/qr [get]
func handleCardQR(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		png, err := svcs.Cards.QRCode(
			c.Request.Context(),
			domain.TokenID(c.Param("token_id")),
			parseIntDefault(c.Query("size"), 0),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "private, max-age=60")
		c.Data(http.StatusOK, "image/png", png)
	}
}

// @Summary  List registered users
// @Param    limit   query  int  false  "page size"
// @Param    offset  query  int  false  "offset"
// @Success  200  {array}  domain.User
// @Router   /users [get]
func handleListUsers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Users.List(
			c.Request.Context(),
			parseIntDefault(c.Query("limit"), 0),
			parseIntDefault(c.Query("offset"), 0),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, list, "public, max-age=30", true)
	}
}

// @Summary  Register a user
// @Param    req  body  RegisterUserRequest  true  "payload"
// @Success  201  {object}  domain.User
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /users [post]
func handleRegisterUser(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		u, err := svcs.Users.Register(c.Request.Context(), strings.TrimSpace(req.AccountID))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// @Summary  User profile
// @Param    account_id  path  string  true  "Account ID"
// @Success  200  {object}  users.Profile
// @Failure  404  {object}  ErrorResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /users/{account_id} [get]
func handleProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svcs.Users.Profile(c.Request.Context(), c.Param("account_id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Prepare generate_template
// @Security BearerAuth
// @Param    req  body  CreateTemplateRequest  true  "payload"
// @Success  200  {object}  CallResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  401  {object}  ErrorResponse
// @Failure  403  {object}  ErrorResponse
// @Router   /admin/templates [post]
func handleCreateTemplate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		call, err := svcs.Tickets.TemplateCall(tickets.TemplateRequest{
			TemplateID:   domain.TemplateID(req.TemplateID),
			TotalTickets: req.TotalTickets,
			PriceNEAR:    req.PriceNEAR,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CallResponse{Call: call})
	}
}

// --- Helpers ---

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		rateErr *tickets.RateLimitError
		genErr  *tokenid.GenerationError
	)

	switch {
	// tickets service
	case errors.Is(err, tickets.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket category not found"})
	case errors.Is(err, tickets.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "sold out"})
	case errors.As(err, &rateErr):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rateErr.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	case errors.Is(err, tickets.ErrPurchaseInProgress):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
	case errors.Is(err, tickets.ErrInvalidTemplate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	// cards service
	case errors.Is(err, cards.ErrCardNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "card not found"})
	case errors.Is(err, cards.ErrInvalidCall):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	// users service
	case errors.Is(err, users.ErrInvalidAccount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid account id"})
	case errors.Is(err, users.ErrUserExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "user already registered"})
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
	// infrastructure
	case errors.As(err, &genErr):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "token id generation failed"})
	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, ledger.ErrMalformedResult):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "ledger unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
