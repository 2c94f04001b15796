package rest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/api/middleware"
	"github.com/truesource/storefront/internal/api/shared/constants"
	"github.com/truesource/storefront/internal/api/shared/dto"
	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/domain"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/provenance"
	"github.com/truesource/storefront/internal/providers/ethereum"
)

const healthCheckTimeout = 2 * time.Second

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetNFTHistory returns the ownership trail of a product NFT
	// GET /nft-history?tokenId=<id>
	// GET /api/v1/nft-history?tokenId=<id>
	GetNFTHistory(c *gin.Context)

	// GetClaim returns the on-chain state of a claim code
	// GET /api/v1/claims/:code
	GetClaim(c *gin.Context)

	// CreateCart allocates a new cart id
	// POST /api/v1/carts
	CreateCart(c *gin.Context)

	// GetCart returns a cart, empty if it was never saved
	// GET /api/v1/carts/:cart_id
	// GET /api/v1/me/cart
	GetCart(c *gin.Context)

	// AddCartItem adds one unit of a product to a cart
	// POST /api/v1/carts/:cart_id/items
	// POST /api/v1/me/cart/items
	AddCartItem(c *gin.Context)

	// UpdateCartItem sets the quantity of a cart item, clamped to its available inventory
	// PATCH /api/v1/carts/:cart_id/items/:product_id
	// PATCH /api/v1/me/cart/items/:product_id
	UpdateCartItem(c *gin.Context)

	// IncrementCartItem adds one unit of a cart item
	// POST /api/v1/carts/:cart_id/items/:product_id/increment
	// POST /api/v1/me/cart/items/:product_id/increment
	IncrementCartItem(c *gin.Context)

	// DecrementCartItem removes one unit of a cart item, removing the item at zero
	// POST /api/v1/carts/:cart_id/items/:product_id/decrement
	// POST /api/v1/me/cart/items/:product_id/decrement
	DecrementCartItem(c *gin.Context)

	// RemoveCartItem removes a cart item
	// DELETE /api/v1/carts/:cart_id/items/:product_id
	// DELETE /api/v1/me/cart/items/:product_id
	RemoveCartItem(c *gin.Context)

	// ClearCart removes every item of a cart
	// DELETE /api/v1/carts/:cart_id/items
	// DELETE /api/v1/me/cart/items
	ClearCart(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// HealthChecker is a dependency whose reachability is reported by the health check
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// handler implements the Handler interface
type handler struct {
	resolver provenance.Resolver
	ethereum ethereum.Client
	carts    *cart.Store
	jcs      adapter.JCS
	checks   map[string]HealthChecker
}

// NewHandler creates a new REST API handler
func NewHandler(resolver provenance.Resolver, ethereumClient ethereum.Client, carts *cart.Store, jcs adapter.JCS, checks map[string]HealthChecker) Handler {
	return &handler{
		resolver: resolver,
		ethereum: ethereumClient,
		carts:    carts,
		jcs:      jcs,
		checks:   checks,
	}
}

// GetNFTHistory returns the provenance summary of a token
func (h *handler) GetNFTHistory(c *gin.Context) {
	tokenID := strings.TrimSpace(c.Query("tokenId"))
	if tokenID == "" {
		respondBadRequest(c, "Token ID is required")
		return
	}

	// Reject malformed ids before touching the chain
	if _, err := domain.ParseTokenID(tokenID); err != nil {
		respondBadRequest(c, "Invalid token ID", tokenID)
		return
	}

	ctx := c.Request.Context()
	summary, err := h.resolver.Resolve(ctx, tokenID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTokenID):
			respondBadRequest(c, "Invalid token ID", tokenID)
		case errors.Is(err, domain.ErrTokenNotFound):
			respondNotFound(c, "Token not found")
		case errors.Is(err, domain.ErrUpstream):
			logger.ErrorCtx(ctx, err, zap.String("tokenId", tokenID))
			respondUpstreamError(c, "Failed to fetch NFT history")
		default:
			logger.ErrorCtx(ctx, err, zap.String("tokenId", tokenID))
			respondInternalError(c, "Failed to fetch NFT history")
		}
		return
	}

	// A partial answer must not be revalidated as if it were complete
	if provenance.IsDegraded(summary) {
		logger.WarnCtx(ctx, "Serving current owner only", zap.String("tokenId", tokenID))
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, summary)
		return
	}

	etag, err := h.summaryETag(summary)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to compute summary ETag", zap.Error(err))
		c.JSON(http.StatusOK, summary)
		return
	}

	c.Header("ETag", etag)
	if matchesETag(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// summaryETag hashes the canonical JSON form of a summary
func (h *handler) summaryETag(summary *domain.ProvenanceSummary) (string, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	canonical, err := h.jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize summary: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// matchesETag reports whether an If-None-Match header value contains etag
func matchesETag(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// GetClaim reads the state of a claim code from the claim contract
func (h *handler) GetClaim(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondBadRequest(c, "Claim code is required")
		return
	}
	if len(code) > constants.MAX_CLAIM_CODE_LENGTH {
		respondBadRequest(c, "Invalid claim code", fmt.Sprintf("maximum %d characters allowed", constants.MAX_CLAIM_CODE_LENGTH))
		return
	}

	ctx := c.Request.Context()
	status, err := h.ethereum.CheckClaim(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrClaimContractNotConfigured) {
			respondServiceUnavailable(c, "Claim lookups are not available")
			return
		}
		logger.ErrorCtx(ctx, err, zap.String("code", code))
		respondUpstreamError(c, "Failed to check claim code")
		return
	}

	c.JSON(http.StatusOK, status)
}

// CreateCart allocates a new empty cart
func (h *handler) CreateCart(c *gin.Context) {
	id := uuid.NewString()

	if err := h.carts.Save(c.Request.Context(), cart.New(id)); err != nil {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("cartId", id))
		respondInternalError(c, "Failed to create cart")
		return
	}

	c.JSON(http.StatusCreated, dto.CreateCartResponse{ID: id})
}

// GetCart returns a cart with its totals
func (h *handler) GetCart(c *gin.Context) {
	id, ok := cartID(c)
	if !ok {
		return
	}

	result, err := h.carts.Load(c.Request.Context(), id)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("cartId", id))
		respondInternalError(c, "Failed to get cart")
		return
	}

	c.JSON(http.StatusOK, dto.NewCartResponse(result))
}

// AddCartItem adds one unit of a product to a cart
func (h *handler) AddCartItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	h.mutateCart(c, func(ct *cart.Cart) error {
		ct.Add(req.Product, req.ProductBatchID, req.AvailableInventory)
		return nil
	})
}

// UpdateCartItem sets the quantity of a cart item
func (h *handler) UpdateCartItem(c *gin.Context) {
	productID, ok := productID(c)
	if !ok {
		return
	}

	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	h.mutateCart(c, func(ct *cart.Cart) error {
		return ct.UpdateQuantity(productID, *req.Quantity)
	})
}

// IncrementCartItem adds one unit of a cart item
func (h *handler) IncrementCartItem(c *gin.Context) {
	productID, ok := productID(c)
	if !ok {
		return
	}

	h.mutateCart(c, func(ct *cart.Cart) error {
		return ct.Increment(productID)
	})
}

// DecrementCartItem removes one unit of a cart item
func (h *handler) DecrementCartItem(c *gin.Context) {
	productID, ok := productID(c)
	if !ok {
		return
	}

	h.mutateCart(c, func(ct *cart.Cart) error {
		return ct.Decrement(productID)
	})
}

// RemoveCartItem removes a cart item
func (h *handler) RemoveCartItem(c *gin.Context) {
	productID, ok := productID(c)
	if !ok {
		return
	}

	h.mutateCart(c, func(ct *cart.Cart) error {
		return ct.Remove(productID)
	})
}

// ClearCart removes every item of a cart
func (h *handler) ClearCart(c *gin.Context) {
	h.mutateCart(c, func(ct *cart.Cart) error {
		ct.Clear()
		return nil
	})
}

// mutateCart applies fn to the cart addressed by the request and responds with the result
func (h *handler) mutateCart(c *gin.Context, fn func(ct *cart.Cart) error) {
	id, ok := cartID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.carts.Mutate(ctx, id, fn)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondNotFound(c, "Cart item not found")
			return
		}
		logger.ErrorCtx(ctx, err, zap.String("cartId", id))
		respondInternalError(c, "Failed to update cart")
		return
	}

	c.JSON(http.StatusOK, dto.NewCartResponse(result))
}

// cartID returns the cart addressed by the request. Open routes take a cart id
// issued by CreateCart; /me routes use the authenticated subject.
func cartID(c *gin.Context) (string, bool) {
	if raw, ok := c.Params.Get("cart_id"); ok {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			respondBadRequest(c, "Invalid cart ID", "cart ID must be a UUID")
			return "", false
		}
		return id.String(), true
	}

	subject := middleware.Subject(c)
	if subject == "" {
		respondBadRequest(c, "Cart ID is required")
		return "", false
	}
	if len(subject) > constants.MAX_CART_ID_LENGTH {
		respondBadRequest(c, "Invalid cart ID", fmt.Sprintf("maximum %d characters allowed", constants.MAX_CART_ID_LENGTH))
		return "", false
	}

	return constants.USER_CART_PREFIX + subject, true
}

// productID parses the product_id path parameter
func productID(c *gin.Context) (int64, bool) {
	raw := c.Param("product_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Invalid product ID", raw)
		return 0, false
	}
	return id, true
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:  "ok",
		Service: constants.SERVICE_NAME,
	}

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, checker := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := checker.Ping(ctx)
		cancel()

		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
