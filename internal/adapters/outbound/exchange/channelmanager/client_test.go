//go:build !integration

package channelmanager

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangeengine/internal/adapters/outbound/exchange/auth"
	"exchangeengine/internal/adapters/outbound/exchange/transport"
	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/domain/entities"
	valueobjects "exchangeengine/internal/domain/value_objects"
	apperrors "exchangeengine/internal/shared_kernel/errors"
)

type memoryTokenStore struct {
	tokens map[string]string
}

func (s *memoryTokenStore) SaveToken(_ context.Context, configID string, token string, _ time.Time) *apperrors.AppError {
	s.tokens[configID] = token
	return nil
}

type fakeChannelManager struct {
	tokenCalls  atomic.Int32
	rejectCalls int32
	server      *httptest.Server
}

func newFakeChannelManager(t *testing.T) *fakeChannelManager {
	t.Helper()
	fake := &fakeChannelManager{}
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var request tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}
		if request.ClientID != "client" || request.ClientSecret != "secret" || request.GrantType != "client_credentials" {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		n := fake.tokenCalls.Add(1)
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "token-" + string(rune('0'+n)), ExpiresIn: 3600})
	})
	mux.HandleFunc("/api/v2/reservations/bulk", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if fake.rejectCalls > 0 {
			fake.rejectCalls--
			w.WriteHeader(nethttp.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token expired"}`))
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"ref":"0","status":"created","reservation_id":"CM-1","token":"` + r.Header.Get("Authorization") + `"}]}`))
	})
	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func newTestClient(store *memoryTokenStore) *Client {
	httpTransport := transport.New(transport.Config{Timeout: time.Second})
	tokens := auth.NewTokenCache(auth.TokenCacheConfig{
		Fetcher: NewTokenFetcher(httpTransport, nil),
		Store:   store,
	})
	return NewClient(httpTransport, tokens)
}

func pushMappingFor(server *httptest.Server) dto.MappingResult {
	return dto.MappingResult{
		Method:  valueobjects.HTTPMethodPost,
		URL:     server.URL + "/api/v2/reservations/bulk",
		Payload: []byte(`{"reservations":[{"ref":"0"}]}`),
		Config: entities.ChannelConfig{
			ID:          "cfg_cm",
			Provider:    dto.ProviderChannelManager,
			BaseURL:     server.URL,
			Credentials: entities.ChannelCredentials{ClientID: "client", ClientSecret: "secret"},
			Active:      true,
		},
		Correlation: map[string]string{"0": "qi_1"},
	}
}

func TestClientFetchesTokenOnceAndReusesIt(t *testing.T) {
	fake := newFakeChannelManager(t)
	store := &memoryTokenStore{tokens: map[string]string{}}
	client := newTestClient(store)
	mapping := pushMappingFor(fake.server)

	for range 3 {
		response, appErr := client.Send(context.Background(), mapping)
		require.Nil(t, appErr)
		assert.Equal(t, nethttp.StatusOK, response.StatusCode)
		assert.Contains(t, response.RawBody, "Bearer token-1")
	}

	assert.EqualValues(t, 1, fake.tokenCalls.Load())
	assert.Equal(t, "token-1", store.tokens["cfg_cm"])
	assert.Equal(t, dto.ProviderChannelManager, client.Provider())
}

func TestClientUnauthorizedResponseInvalidatesToken(t *testing.T) {
	fake := newFakeChannelManager(t)
	fake.rejectCalls = 1
	store := &memoryTokenStore{tokens: map[string]string{}}
	client := newTestClient(store)
	mapping := pushMappingFor(fake.server)

	response, appErr := client.Send(context.Background(), mapping)
	require.Nil(t, appErr)
	assert.Equal(t, nethttp.StatusUnauthorized, response.StatusCode)
	assert.Empty(t, store.tokens["cfg_cm"])

	response, appErr = client.Send(context.Background(), mapping)
	require.Nil(t, appErr)
	assert.Equal(t, nethttp.StatusOK, response.StatusCode)
	assert.EqualValues(t, 2, fake.tokenCalls.Load())
}

func TestClientBadCredentialsFailTheExchange(t *testing.T) {
	fake := newFakeChannelManager(t)
	client := newTestClient(&memoryTokenStore{tokens: map[string]string{}})
	mapping := pushMappingFor(fake.server)
	mapping.Config.Credentials.ClientSecret = "wrong"

	_, appErr := client.Send(context.Background(), mapping)

	require.NotNil(t, appErr)
	assert.Equal(t, "channelmanager_auth_failed", appErr.Code)
	assert.Equal(t, apperrors.TypeUnavailable, appErr.Type)
}

func TestTokenFetcherRequiresCredentials(t *testing.T) {
	fetch := NewTokenFetcher(transport.New(transport.Config{}), nil)

	_, appErr := fetch(context.Background(), entities.ChannelConfig{ID: "cfg_cm", BaseURL: "http://unused.test"})

	require.NotNil(t, appErr)
	assert.Equal(t, "channelmanager_credentials_missing", appErr.Code)
}
