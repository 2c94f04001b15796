package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func TestServer_Router(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := New(Config{}, Dependencies{
		Resolver: mocks.NewMockProvenanceResolver(ctrl),
		Ethereum: mocks.NewMockEthereumClient(ctrl),
		Carts:    cart.NewStore(cart.NewMemoryPersister(cart.MemoryConfig{}, adapter.NewClock()), adapter.NewClock()),
	})
	router := srv.Router()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/nft-history?tokenId=1", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := New(Config{}, Dependencies{})

	assert.NoError(t, srv.Shutdown(t.Context()))
}
