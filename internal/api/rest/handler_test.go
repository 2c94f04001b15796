package rest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/api/middleware"
	"github.com/truesource/storefront/internal/api/shared/dto"
	apierrors "github.com/truesource/storefront/internal/api/shared/errors"
	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/domain"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/mocks"
	"github.com/truesource/storefront/internal/provenance"
	"github.com/truesource/storefront/internal/ratelimit"
)

const testOwner = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

type testAPI struct {
	router   *gin.Engine
	resolver *mocks.MockProvenanceResolver
	ethereum *mocks.MockEthereumClient
	limiter  *mocks.MockRateLimiter
	carts    *cart.Store
	jwtKey   *rsa.PrivateKey
}

type failingChecker struct{}

func (failingChecker) Ping(context.Context) error {
	return errors.New("connection refused")
}

func newTestAPI(t *testing.T, withLimiter bool, checks map[string]HealthChecker) *testAPI {
	ctrl := gomock.NewController(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	api := &testAPI{
		router:   gin.New(),
		resolver: mocks.NewMockProvenanceResolver(ctrl),
		ethereum: mocks.NewMockEthereumClient(ctrl),
		carts:    cart.NewStore(cart.NewMemoryPersister(cart.MemoryConfig{}, adapter.NewClock()), adapter.NewClock()),
		jwtKey:   key,
	}

	cfg := RouteConfig{
		Auth: middleware.AuthConfig{
			JWTPublicKey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		},
	}
	if withLimiter {
		api.limiter = mocks.NewMockRateLimiter(ctrl)
		cfg.Limiter = api.limiter
	}

	h := NewHandler(api.resolver, api.ethereum, api.carts, adapter.NewJCS(), checks)
	SetupRoutes(api.router, h, cfg)

	return api
}

func (a *testAPI) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) bearer(t *testing.T, subject string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{Subject: subject}).SignedString(a.jwtKey)
	require.NoError(t, err)
	return "Bearer " + token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *apierrors.APIError {
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) dto.CartResponse {
	var resp dto.CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func testSummary() *domain.ProvenanceSummary {
	return &domain.ProvenanceSummary{
		TokenID:        "1",
		CurrentOwner:   testOwner,
		PreviousOwners: []string{},
		AllOwners:      []string{testOwner},
		TotalTransfers: 1,
		Transfers: []domain.TransferEvent{{
			From:            domain.ETHEREUM_ZERO_ADDRESS,
			To:              testOwner,
			BlockNumber:     100,
			TransactionHash: "0xaa",
		}},
	}
}

func TestGetNFTHistory(t *testing.T) {
	api := newTestAPI(t, false, nil)
	api.resolver.EXPECT().Resolve(gomock.Any(), "1").Return(testSummary(), nil).Times(2)

	for _, path := range []string{"/nft-history?tokenId=1", "/api/v1/nft-history?tokenId=1"} {
		w := api.do(http.MethodGet, path, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("ETag"))

		var summary domain.ProvenanceSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		assert.Equal(t, *testSummary(), summary)
	}
}

func TestGetNFTHistory_ETag(t *testing.T) {
	api := newTestAPI(t, false, nil)
	api.resolver.EXPECT().Resolve(gomock.Any(), "1").Return(testSummary(), nil).Times(3)

	first := api.do(http.MethodGet, "/nft-history?tokenId=1", "")
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := api.do(http.MethodGet, "/nft-history?tokenId=1", "")
	assert.Equal(t, etag, second.Header().Get("ETag"))

	cached := api.do(http.MethodGet, "/nft-history?tokenId=1", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Empty(t, cached.Body.String())
}

func TestGetNFTHistory_InvalidInput(t *testing.T) {
	api := newTestAPI(t, false, nil)

	// No chain calls are made for rejected ids
	api.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Times(0)

	for _, path := range []string{
		"/nft-history",
		"/nft-history?tokenId=",
		"/nft-history?tokenId=%20%20",
		"/nft-history?tokenId=abc",
		"/nft-history?tokenId=-1",
	} {
		w := api.do(http.MethodGet, path, "")

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, apierrors.ErrCodeBadRequest, decodeError(t, w).Code, path)
	}
}

func TestGetNFTHistory_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apierrors.ErrorCode
	}{
		{
			name:   "token not found",
			err:    domain.ErrTokenNotFound,
			status: http.StatusNotFound,
			code:   apierrors.ErrCodeNotFound,
		},
		{
			name:   "upstream failure",
			err:    fmt.Errorf("%w: failed to get current owner: %w", domain.ErrUpstream, errors.New("timeout")),
			status: http.StatusInternalServerError,
			code:   apierrors.ErrCodeUpstreamError,
		},
		{
			name:   "unexpected failure",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   apierrors.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, false, nil)
			api.resolver.EXPECT().Resolve(gomock.Any(), "7").Return(nil, tt.err)

			w := api.do(http.MethodGet, "/nft-history?tokenId=7", "")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestGetNFTHistory_Degraded(t *testing.T) {
	api := newTestAPI(t, false, nil)
	api.resolver.EXPECT().Resolve(gomock.Any(), "0x1").Return(&domain.ProvenanceSummary{
		TokenID:        "0x1",
		CurrentOwner:   testOwner,
		PreviousOwners: []string{},
		AllOwners:      []string{},
		Transfers:      []domain.TransferEvent{},
		Note:           provenance.DegradedNote,
	}, nil).Times(2)

	w := api.do(http.MethodGet, "/nft-history?tokenId=0x1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Could not fetch transfer history")
	assert.Contains(t, w.Body.String(), `"transfers":[]`)
	assert.Empty(t, w.Header().Get("ETag"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	// A degraded answer is never reported as not modified
	w = api.do(http.MethodGet, "/nft-history?tokenId=0x1", "", "If-None-Match", "*")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetNFTHistory_RateLimited(t *testing.T) {
	api := newTestAPI(t, true, nil)
	gomock.InOrder(
		api.limiter.EXPECT().Allow(gomock.Any(), gomock.Any()).Return(ratelimit.Decision{Allowed: true, Limit: 1, Remaining: 0}, nil),
		api.limiter.EXPECT().Allow(gomock.Any(), gomock.Any()).Return(ratelimit.Decision{Allowed: false, Limit: 1, RetryAfter: 0}, nil),
	)
	api.resolver.EXPECT().Resolve(gomock.Any(), "1").Return(testSummary(), nil).Times(1)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/nft-history?tokenId=1", "").Code)

	w := api.do(http.MethodGet, "/api/v1/nft-history?tokenId=1", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, apierrors.ErrCodeTooManyRequests, decodeError(t, w).Code)
}

func TestCartWrites_RateLimited(t *testing.T) {
	api := newTestAPI(t, true, nil)
	denied := ratelimit.Decision{Allowed: false, Limit: 5, RetryAfter: 3 * time.Second}

	api.limiter.EXPECT().Allow(gomock.Any(), "carts:192.0.2.1").Return(denied, nil).Times(2)

	w := api.do(http.MethodPost, "/api/v1/carts", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))

	w = api.do(http.MethodPost, "/api/v1/carts/"+testCartID+"/items", addJacket)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are not throttled
	w = api.do(http.MethodGet, "/api/v1/carts/"+testCartID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetClaim(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := newTestAPI(t, false, nil)
		status := &domain.ClaimStatus{Code: "ABC-123", Valid: true, TokenID: "12", Retailer: testOwner}
		api.ethereum.EXPECT().CheckClaim(gomock.Any(), "ABC-123").Return(status, nil)

		w := api.do(http.MethodGet, "/api/v1/claims/ABC-123", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp domain.ClaimStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, *status, resp)
	})

	t.Run("blank code", func(t *testing.T) {
		api := newTestAPI(t, false, nil)

		w := api.do(http.MethodGet, "/api/v1/claims/%20", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		api := newTestAPI(t, false, nil)
		api.ethereum.EXPECT().CheckClaim(gomock.Any(), "ABC").Return(nil, domain.ErrClaimContractNotConfigured)

		w := api.do(http.MethodGet, "/api/v1/claims/ABC", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, apierrors.ErrCodeServiceUnavailable, decodeError(t, w).Code)
	})

	t.Run("chain failure", func(t *testing.T) {
		api := newTestAPI(t, false, nil)
		api.ethereum.EXPECT().CheckClaim(gomock.Any(), "ABC").Return(nil, errors.New("timeout"))

		w := api.do(http.MethodGet, "/api/v1/claims/ABC", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

const addJacket = `{"product":{"id":1,"title":"Jacket","brand":"Acme","price":120.5},"product_batch_id":9,"available_inventory":2}`

func TestCartFlow(t *testing.T) {
	api := newTestAPI(t, false, nil)

	w := api.do(http.MethodPost, "/api/v1/carts", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.CreateCartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	base := "/api/v1/carts/" + created.ID

	w = api.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)

	// Adding twice increments up to the available inventory
	api.do(http.MethodPost, base+"/items", addJacket)
	api.do(http.MethodPost, base+"/items", addJacket)
	w = api.do(http.MethodPost, base+"/items", addJacket)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeCart(t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, int64(9), resp.Items[0].ProductBatchID)
	assert.Equal(t, 2, resp.TotalItems)
	assert.InDelta(t, 241.0, resp.TotalPrice, 0.001)

	w = api.do(http.MethodPost, base+"/items/1/decrement", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeCart(t, w).TotalItems)

	w = api.do(http.MethodPost, base+"/items/1/increment", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeCart(t, w).TotalItems)

	// Quantity is clamped to the available inventory
	w = api.do(http.MethodPatch, base+"/items/1", `{"quantity":50}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeCart(t, w).TotalItems)

	w = api.do(http.MethodPatch, base+"/items/1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)

	api.do(http.MethodPost, base+"/items", addJacket)
	w = api.do(http.MethodDelete, base+"/items/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)

	api.do(http.MethodPost, base+"/items", addJacket)
	w = api.do(http.MethodDelete, base+"/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)
	assert.Equal(t, 0.0, decodeCart(t, w).TotalPrice)
}

const testCartID = "0b9e2d4c-5f1a-4c3e-9a7b-2d6f8e1c3a5b"

func TestCartErrors(t *testing.T) {
	api := newTestAPI(t, false, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   apierrors.ErrorCode
	}{
		{"missing item", http.MethodPost, "/api/v1/carts/" + testCartID + "/items/99/increment", "", http.StatusNotFound, apierrors.ErrCodeNotFound},
		{"missing item update", http.MethodPatch, "/api/v1/carts/" + testCartID + "/items/99", `{"quantity":1}`, http.StatusNotFound, apierrors.ErrCodeNotFound},
		{"invalid product id", http.MethodDelete, "/api/v1/carts/" + testCartID + "/items/abc", "", http.StatusBadRequest, apierrors.ErrCodeBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/carts/" + testCartID + "/items", `{"product":`, http.StatusBadRequest, apierrors.ErrCodeBadRequest},
		{"out of stock", http.MethodPost, "/api/v1/carts/" + testCartID + "/items", `{"product":{"id":1},"available_inventory":0}`, http.StatusBadRequest, apierrors.ErrCodeValidationFailed},
		{"missing quantity", http.MethodPatch, "/api/v1/carts/" + testCartID + "/items/1", `{}`, http.StatusBadRequest, apierrors.ErrCodeValidationFailed},
		{"cart id not issued", http.MethodGet, "/api/v1/carts/c1", "", http.StatusBadRequest, apierrors.ErrCodeBadRequest},
		{"user cart key", http.MethodGet, "/api/v1/carts/user:user-1", "", http.StatusBadRequest, apierrors.ErrCodeBadRequest},
		{"cart id too long", http.MethodGet, "/api/v1/carts/" + strings.Repeat("a", 129), "", http.StatusBadRequest, apierrors.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestMyCart(t *testing.T) {
	api := newTestAPI(t, false, nil)

	w := api.do(http.MethodGet, "/api/v1/me/cart", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	auth := api.bearer(t, "user-1")
	w = api.do(http.MethodPost, "/api/v1/me/cart/items", addJacket, "Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user:user-1", decodeCart(t, w).ID)

	// Open cart routes cannot reach a user cart without credentials
	for _, path := range []string{"/api/v1/carts/user-1/items", "/api/v1/carts/user:user-1/items"} {
		w = api.do(http.MethodDelete, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w = api.do(http.MethodGet, "/api/v1/me/cart", "", "Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeCart(t, w).TotalItems)

	w = api.do(http.MethodGet, "/api/v1/me/cart", "", "Authorization", api.bearer(t, "user-2"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeCart(t, w).Items)
}

func TestHealthCheck(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		api := newTestAPI(t, false, nil)

		w := api.do(http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","service":"truesource-storefront-api"}`, w.Body.String())
	})

	t.Run("failing dependency", func(t *testing.T) {
		api := newTestAPI(t, false, map[string]HealthChecker{"database": failingChecker{}})

		w := api.do(http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp dto.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["database"])
	})
}

func TestMatchesETag(t *testing.T) {
	assert.False(t, matchesETag("", `"a"`))
	assert.True(t, matchesETag(`"a"`, `"a"`))
	assert.True(t, matchesETag(`"b", W/"a"`, `"a"`))
	assert.True(t, matchesETag("*", `"a"`))
	assert.False(t, matchesETag(`"b"`, `"a"`))
}
