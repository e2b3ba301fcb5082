//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"AgriConnect/internal/app"
	"AgriConnect/internal/consumers"
	"AgriConnect/internal/controller/rest"
	"AgriConnect/internal/controller/rest/handlers"
	"AgriConnect/internal/domain/order"
	agriredis "AgriConnect/internal/external/redis"
	"AgriConnect/internal/messaging"
	"AgriConnect/internal/queue"
	order_repo "AgriConnect/internal/repo/order"
	profile_repo "AgriConnect/internal/repo/profile"
	"AgriConnect/internal/testinfra"
	"AgriConnect/internal/webhook"

	"github.com/google/go-querystring/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_integration"

var (
	pg    *testinfra.PostgresContainer
	cache *testinfra.RedisContainer
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	suite, err := testinfra.NewTestSuite(ctx, testinfra.SuiteOptions{AppliedCache: true})
	if err != nil {
		panic(fmt.Sprintf("Failed to start test suite: %v", err))
	}
	pg = suite.Postgres
	cache = suite.Redis

	code := m.Run()

	suite.Cleanup(ctx)
	os.Exit(code)
}

type ordersQuery struct {
	BuyerID           string `url:"buyer_id,omitempty"`
	ProviderOrderID   string `url:"provider_order_id,omitempty"`
	ProviderPaymentID string `url:"provider_payment_id,omitempty"`
	PaymentStatus     string `url:"payment_status,omitempty"`
	Limit             int    `url:"limit,omitempty"`
}

func setupTestServer(t *testing.T) (*httptest.Server, *queue.Queue) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pg.Truncate(ctx))

	rdb, err := agriredis.NewClient(ctx, cache.URL)
	require.NoError(t, err)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	orderRepo := order_repo.NewPgOrderRepo(pg.Pool)
	reconciler := order.NewReconcileService(orderRepo,
		order.WithPostCommitHook(profile_repo.NewProfileLinker(pg.Pool)),
		order.WithAppliedCache(agriredis.NewAppliedCache(rdb, time.Hour)))
	orderService := order.NewOrderService(orderRepo)

	q := queue.New(0)
	controller := consumers.NewPaymentMessageController(reconciler)
	runner := messaging.NewRunner(q.Workers(4), controller.HandleMessage)
	workerCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Start(workerCtx) }()

	router := rest.NewRouter(
		handlers.NewWebhookHandler(webhook.NewVerifier(secret), webhook.NewDispatcher(q)),
		handlers.NewOrderHandler(orderService),
		handlers.NewPaymentHandler(orderService, nil),
	)
	engine := app.NewGinEngine()
	router.SetUp(engine)
	server := httptest.NewServer(engine)

	t.Cleanup(func() {
		server.Close()
		_ = q.Close()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
		}
		stop()
		_ = rdb.Close()
	})
	return server, q
}

func capturedBody(t *testing.T, eventType, providerOrderID, providerPaymentID, buyerID string, cart []map[string]any) []byte {
	t.Helper()
	cartData, err := json.Marshal(cart)
	require.NoError(t, err)

	notes := map[string]any{"type": "product_purchase", "cartData": string(cartData)}
	if buyerID != "" {
		notes["buyerId"] = buyerID
	}
	body, err := json.Marshal(map[string]any{
		"entity": "event",
		"event":  eventType,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       providerPaymentID,
					"order_id": providerOrderID,
					"method":   "netbanking",
					"notes":    notes,
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func sendWebhook(t *testing.T, server *httptest.Server, body []byte, signature string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/webhooks/razorpay", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, signature)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func GET[T any](t *testing.T, baseUrl, path string, queryPayload any, expectedStatus int) T {
	t.Helper()

	var res T

	u, _ := url.Parse(baseUrl)
	u.Path = path
	if queryPayload != nil {
		v, _ := query.Values(queryPayload)
		u.RawQuery = v.Encode()
	}

	resp, err := http.Get(u.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, expectedStatus, resp.StatusCode)

	err = json.NewDecoder(resp.Body).Decode(&res)
	require.NoError(t, err)
	return res
}

// waitDrained blocks until every queued webhook has been reconciled.
func waitDrained(t *testing.T, q *queue.Queue) {
	t.Helper()
	require.Eventually(t, func() bool {
		enqueued, processed := q.Stats()
		return enqueued == processed
	}, 10*time.Second, 20*time.Millisecond)
}

func stockOf(t *testing.T, productID string) int {
	t.Helper()
	quantity, err := pg.Stock(context.Background(), productID)
	require.NoError(t, err)
	return quantity
}

func TestWebhookReconciliation(t *testing.T) {
	ctx := context.Background()
	server, q := setupTestServer(t)
	require.NoError(t, pg.SeedProduct(ctx, "tomatoes", 10))
	require.NoError(t, pg.SeedProduct(ctx, "onions", 4))

	body := capturedBody(t, "payment.captured", "order_1", "pay_1", "buyer-1", []map[string]any{
		{"product_id": "tomatoes", "quantity": 3, "total_amount": 450},
		{"product_id": "onions", "quantity": 1, "total_amount": "80"},
	})

	t.Run("verified capture creates orders and decrements stock", func(t *testing.T) {
		require.Equal(t, http.StatusOK, sendWebhook(t, server, body, webhook.Sign(body, secret)))
		waitDrained(t, q)

		orders := GET[[]order.Order](t, server.URL, "/orders", ordersQuery{ProviderPaymentID: "pay_1"}, http.StatusOK)
		require.Len(t, orders, 2)
		for _, o := range orders {
			assert.Equal(t, order.PaymentCompleted, o.PaymentStatus)
			assert.Equal(t, "buyer-1", o.BuyerID)
			assert.Equal(t, "Net Banking", o.PaymentMethod)
		}
		assert.Equal(t, 7, stockOf(t, "tomatoes"))
		assert.Equal(t, 3, stockOf(t, "onions"))

		record := GET[order.PaymentRecord](t, server.URL, "/payments/order_1/pay_1", nil, http.StatusOK)
		assert.Equal(t, order.PaymentCompleted, record.Status)
	})

	t.Run("redelivery is acknowledged and changes nothing", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, sendWebhook(t, server, body, webhook.Sign(body, secret)))
		}
		waitDrained(t, q)

		orders := GET[[]order.Order](t, server.URL, "/orders", ordersQuery{ProviderOrderID: "order_1"}, http.StatusOK)
		assert.Len(t, orders, 2)
		assert.Equal(t, 7, stockOf(t, "tomatoes"))
		assert.Equal(t, 3, stockOf(t, "onions"))
	})

	t.Run("bad signature is rejected before any work", func(t *testing.T) {
		other := capturedBody(t, "payment.captured", "order_9", "pay_9", "buyer-9", []map[string]any{
			{"product_id": "tomatoes", "quantity": 1, "total_amount": 150},
		})
		enqueuedBefore, _ := q.Stats()

		assert.Equal(t, http.StatusBadRequest, sendWebhook(t, server, other, "deadbeef"))

		enqueuedAfter, _ := q.Stats()
		assert.Equal(t, enqueuedBefore, enqueuedAfter)
		assert.Equal(t, 7, stockOf(t, "tomatoes"))
	})

	t.Run("failed payment writes no orders", func(t *testing.T) {
		failed := capturedBody(t, "payment.failed", "order_2", "pay_2", "buyer-2", []map[string]any{
			{"product_id": "tomatoes", "quantity": 2, "total_amount": 300},
		})

		require.Equal(t, http.StatusOK, sendWebhook(t, server, failed, webhook.Sign(failed, secret)))
		waitDrained(t, q)

		orders := GET[[]order.Order](t, server.URL, "/orders", ordersQuery{ProviderOrderID: "order_2"}, http.StatusOK)
		assert.Empty(t, orders)
		assert.Equal(t, 7, stockOf(t, "tomatoes"))

		record := GET[order.PaymentRecord](t, server.URL, "/payments/order_2/pay_2", nil, http.StatusOK)
		assert.Equal(t, order.PaymentFailed, record.Status)
	})

	t.Run("missing buyer is acknowledged and dropped", func(t *testing.T) {
		noBuyer := capturedBody(t, "payment.captured", "order_3", "pay_3", "", []map[string]any{
			{"product_id": "tomatoes", "quantity": 1, "total_amount": 150},
		})

		require.Equal(t, http.StatusOK, sendWebhook(t, server, noBuyer, webhook.Sign(noBuyer, secret)))
		waitDrained(t, q)

		orders := GET[[]order.Order](t, server.URL, "/orders", ordersQuery{ProviderOrderID: "order_3"}, http.StatusOK)
		assert.Empty(t, orders)
		assert.Equal(t, 7, stockOf(t, "tomatoes"))
	})

	t.Run("insufficient stock rejects the whole cart", func(t *testing.T) {
		tooMany := capturedBody(t, "payment.captured", "order_4", "pay_4", "buyer-4", []map[string]any{
			{"product_id": "tomatoes", "quantity": 1, "total_amount": 150},
			{"product_id": "onions", "quantity": 50, "total_amount": 4000},
		})

		require.Equal(t, http.StatusOK, sendWebhook(t, server, tooMany, webhook.Sign(tooMany, secret)))
		waitDrained(t, q)

		orders := GET[[]order.Order](t, server.URL, "/orders", ordersQuery{ProviderOrderID: "order_4"}, http.StatusOK)
		assert.Empty(t, orders)
		assert.Equal(t, 7, stockOf(t, "tomatoes"))
		assert.Equal(t, 3, stockOf(t, "onions"))
	})
}
