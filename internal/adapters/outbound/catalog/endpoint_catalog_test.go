//go:build !integration

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	valueobjects "exchangeengine/internal/domain/value_objects"
)

func TestParseCatalog(t *testing.T) {
	endpoints, err := Parse([]byte(`
endpoints:
  - provider: WhatsApp
    operation: send_messages
    method: post
    path: /v1/messages/batch
  - id: ep_pull
    provider: channelmanager
    operation: pull_reservations
    method: GET
    path: /api/v2/reservations
`))

	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "ep_whatsapp_send_messages", endpoints[0].ID)
	assert.Equal(t, "whatsapp", endpoints[0].Provider)
	assert.Equal(t, valueobjects.HTTPMethodPost, endpoints[0].Method)
	assert.Equal(t, "ep_pull", endpoints[1].ID)
	assert.True(t, endpoints[1].Method.IsRead())
}

func TestParseCatalogRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field": "endpoints:\n  - provider: a\n    operation: b\n    method: GET\n    path: /x\n    verb: GET\n",
		"empty":         "endpoints: []\n",
		"bad method":    "endpoints:\n  - provider: a\n    operation: b\n    method: TRACE\n    path: /x\n",
		"missing path":  "endpoints:\n  - provider: a\n    operation: b\n    method: GET\n",
		"duplicate":     "endpoints:\n  - {provider: a, operation: b, method: GET, path: /x}\n  - {provider: A, operation: B, method: POST, path: /y}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestFileEndpointCatalogLoadsShippedCatalog(t *testing.T) {
	endpoints, appErr := NewFileEndpointCatalog(filepath.Join("..", "..", "..", "..", "config", "endpoints.yaml")).Load(context.Background())

	require.Nil(t, appErr)
	operations := map[string]bool{}
	for _, endpoint := range endpoints {
		operations[endpoint.Provider+"/"+endpoint.Operation] = true
	}
	assert.True(t, operations["whatsapp/send_messages"])
	assert.True(t, operations["channelmanager/push_reservations"])
	assert.True(t, operations["channelmanager/pull_reservations"])
}

func TestFileEndpointCatalogMissingFile(t *testing.T) {
	_, appErr := NewFileEndpointCatalog(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())

	require.NotNil(t, appErr)
	assert.Equal(t, "endpoint_catalog_read_failed", appErr.Code)
}

func TestFileEndpointCatalogInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoints: nope"), 0o600))

	_, appErr := NewFileEndpointCatalog(path).Load(context.Background())

	require.NotNil(t, appErr)
	assert.Equal(t, "endpoint_catalog_invalid", appErr.Code)
}
