// Package integration runs the HTTP API end to end against a fully assembled container.
// The database scenarios are skipped when the test databases are unreachable.
package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/parquet-keytools/internal/app"
	"github.com/allisson/parquet-keytools/internal/config"
	"github.com/allisson/parquet-keytools/internal/crypto/http/dto"
	"github.com/allisson/parquet-keytools/internal/testutil"
)

const dataFile = "warehouse/orders/part-0.parquet"

type integrationTestContext struct {
	container *app.Container
	server    *httptest.Server
}

func newIntegrationTestContext(t *testing.T, mutate func(cfg *config.Config)) *integrationTestContext {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	cfg := &config.Config{
		ServerHost:               "127.0.0.1",
		ServerPort:               8080,
		LogLevel:                 "error",
		DBMaxOpenConnections:     5,
		DBMaxIdleConnections:     2,
		DBConnMaxLifetime:        time.Minute,
		MetricsNamespace:         "keytools_integration",
		KMSClient:                "local",
		KeyAccessToken:           "DEFAULT",
		DoubleWrapping:           true,
		CacheLifetime:            time.Minute,
		KeyMaterialInternal:      false,
		DataKeyLengthBits:        128,
		KEKLengthBits:            128,
		KeyWrapAlgorithm:         "aes-gcm",
		RotationCacheCleanPeriod: time.Hour,
		KeyMaterialStore:         config.KeyMaterialStoreBlob,
		BucketURL:                "mem://",
		MasterKeys:               "footer-key:" + key + ",orders-key:" + key,
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	container := app.NewContainer(cfg)
	server, err := container.HTTPServer()
	require.NoError(t, err)

	bucket, err := container.Bucket()
	require.NoError(t, err)
	require.NoError(t, bucket.WriteAll(context.Background(), dataFile, []byte("PAR1"), nil))

	ts := httptest.NewServer(server.GetHandler())
	t.Cleanup(func() {
		ts.Close()
		assert.NoError(t, container.Shutdown(context.Background()))
	})
	return &integrationTestContext{container: container, server: ts}
}

func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body any,
	token string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ctx.server.Client().Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func runKeyLifecycle(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	// generate
	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/files/keys", dto.GenerateFileKeysRequest{
		FileLocation:       dataFile,
		FooterMasterKeyID:  "footer-key",
		ColumnMasterKeyIDs: map[string]string{"customer_id": "orders-key", "amount": "orders-key"},
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var generated dto.GenerateFileKeysResponse
	require.NoError(t, json.Unmarshal(body, &generated))
	require.Len(t, generated.FooterKey.DataKey, 16)
	require.Len(t, generated.ColumnKeys, 2)
	assert.Contains(t, generated.FooterKey.KeyMetadata, `"internalStorage":false`)

	unwrapRequest := dto.UnwrapFileKeysRequest{
		FileLocation:      dataFile,
		FooterKeyMetadata: generated.FooterKey.KeyMetadata,
		ColumnKeyMetadata: map[string]string{
			"customer_id": generated.ColumnKeys["customer_id"].KeyMetadata,
			"amount":      generated.ColumnKeys["amount"].KeyMetadata,
		},
	}

	// unwrap
	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/files/keys/unwrap", unwrapRequest, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var unwrapped dto.UnwrapFileKeysResponse
	require.NoError(t, json.Unmarshal(body, &unwrapped))
	assert.Equal(t, generated.FooterKey.DataKey, unwrapped.FooterKey.DataKey)
	assert.Equal(t, "footer-key", unwrapped.FooterKey.MasterKeyID)
	assert.Equal(t, generated.ColumnKeys["amount"].DataKey, unwrapped.ColumnKeys["amount"].DataKey)
	assert.Equal(t, "orders-key", unwrapped.ColumnKeys["customer_id"].MasterKeyID)

	// rotate
	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/rotations", dto.RotateMasterKeysRequest{
		Folder: "warehouse/orders",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var rotation dto.RotationResponse
	require.NoError(t, json.Unmarshal(body, &rotation))
	assert.Equal(t, []string{dataFile}, rotation.RotatedFiles)
	assert.Empty(t, rotation.Failures)

	// the same metadata still unwraps to the same keys after rotation
	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/files/keys/unwrap", unwrapRequest, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var afterRotation dto.UnwrapFileKeysResponse
	require.NoError(t, json.Unmarshal(body, &afterRotation))
	assert.Equal(t, generated.FooterKey.DataKey, afterRotation.FooterKey.DataKey)
	assert.Equal(t, generated.ColumnKeys["customer_id"].DataKey, afterRotation.ColumnKeys["customer_id"].DataKey)

	// cache revocation
	resp, _ = ctx.makeRequest(t, http.MethodDelete, "/v1/cache/tokens/self", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ctx.makeRequest(t, http.MethodDelete, "/v1/cache", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/files/keys/unwrap", unwrapRequest, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestIntegration_BlobKeyMaterial(t *testing.T) {
	ctx := newIntegrationTestContext(t, nil)
	runKeyLifecycle(t, ctx)

	bucket, err := ctx.container.Bucket()
	require.NoError(t, err)
	exists, err := bucket.Exists(context.Background(), "warehouse/orders/_KEY_MATERIAL_FOR_part-0.parquet.json")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = bucket.Exists(context.Background(), "warehouse/orders/_TMP_KEY_MATERIAL_FOR_part-0.parquet.json")
	require.NoError(t, err)
	assert.False(t, exists, "temporary material is moved over the original")
}

func TestIntegration_InternalKeyMaterial(t *testing.T) {
	ctx := newIntegrationTestContext(t, func(cfg *config.Config) {
		cfg.KeyMaterialInternal = true
	})

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/files/keys", dto.GenerateFileKeysRequest{
		FooterMasterKeyID: "footer-key",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var generated dto.GenerateFileKeysResponse
	require.NoError(t, json.Unmarshal(body, &generated))

	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/files/keys/unwrap", dto.UnwrapFileKeysRequest{
		FooterKeyMetadata: generated.FooterKey.KeyMetadata,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var unwrapped dto.UnwrapFileKeysResponse
	require.NoError(t, json.Unmarshal(body, &unwrapped))
	assert.Equal(t, generated.FooterKey.DataKey, unwrapped.FooterKey.DataKey)

	// internal key material cannot be rotated in place
	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/rotations", dto.RotateMasterKeysRequest{
		Folder: "warehouse/orders",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
}

func TestIntegration_SingleWrapping(t *testing.T) {
	ctx := newIntegrationTestContext(t, func(cfg *config.Config) {
		cfg.DoubleWrapping = false
	})
	runKeyLifecycle(t, ctx)
}

func TestIntegration_Errors(t *testing.T) {
	ctx := newIntegrationTestContext(t, nil)

	t.Run("unknown master key", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/files/keys", dto.GenerateFileKeysRequest{
			FileLocation:      dataFile,
			FooterMasterKeyID: "missing-key",
		}, "")
		assert.GreaterOrEqual(t, resp.StatusCode, 400, string(body))
	})

	t.Run("validation error", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/files/keys", dto.GenerateFileKeysRequest{
			FileLocation: dataFile,
		}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("malformed json", func(t *testing.T) {
		req, err := http.NewRequest(
			http.MethodPost,
			ctx.server.URL+"/v1/files/keys/unwrap",
			bytes.NewBufferString("{"),
		)
		require.NoError(t, err)
		resp, err := ctx.server.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("readiness", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	})
}

func TestIntegration_DatabaseKeyMaterial(t *testing.T) {
	databases := []struct {
		name   string
		driver string
		skip   func(t *testing.T)
		setup  func(t *testing.T) (dsn string)
	}{
		{
			name:   "postgresql",
			driver: "postgres",
			skip:   testutil.SkipIfNoPostgres,
			setup: func(t *testing.T) string {
				testutil.TeardownDB(t, testutil.SetupPostgresDB(t))
				return testutil.GetPostgresTestDSN()
			},
		},
		{
			name:   "mysql",
			driver: "mysql",
			skip:   testutil.SkipIfNoMySQL,
			setup: func(t *testing.T) string {
				testutil.TeardownDB(t, testutil.SetupMySQLDB(t))
				return testutil.GetMySQLTestDSN()
			},
		},
	}

	for _, db := range databases {
		t.Run(db.name, func(t *testing.T) {
			db.skip(t)
			dsn := db.setup(t)

			ctx := newIntegrationTestContext(t, func(cfg *config.Config) {
				cfg.KeyMaterialStore = config.KeyMaterialStoreDatabase
				cfg.DBDriver = db.driver
				cfg.DBConnectionString = dsn
			})
			runKeyLifecycle(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
			assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		})
	}
}
