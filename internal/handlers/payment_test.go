package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/salidas/internal/models"
	"github.com/example/salidas/internal/repository"
	"github.com/example/salidas/internal/services"
)

// mockPaymentStore is an in-memory PaymentStore with call counters and error
// injection.
type mockPaymentStore struct {
	mu             sync.Mutex
	txns           map[string]*models.PaymentTransaction
	paidActivities map[string]bool
	couponUses     map[string]int

	FinalizeCalls  int
	CancelledCalls int
	FailedCalls    int

	FinalizeError error
	GetError      error
}

func newMockPaymentStore() *mockPaymentStore {
	return &mockPaymentStore{
		txns:           make(map[string]*models.PaymentTransaction),
		paidActivities: make(map[string]bool),
		couponUses:     make(map[string]int),
	}
}

func (m *mockPaymentStore) addTransaction(txn *models.PaymentTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.ID.String()] = txn
}

func (m *mockPaymentStore) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	m.addTransaction(txn)
	return nil
}

func (m *mockPaymentStore) GetTransaction(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[sessionID]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return txn, nil
}

func (m *mockPaymentStore) MarkCancelled(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelledCalls++
	txn, ok := m.txns[sessionID]
	if !ok || txn.Status != models.TransactionStatusPending {
		return repository.ErrTransactionNotFound
	}
	txn.Status = models.TransactionStatusCancelledByUser
	return nil
}

func (m *mockPaymentStore) MarkFailed(ctx context.Context, sessionID string, gatewayResponse []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedCalls++
	txn, ok := m.txns[sessionID]
	if !ok || txn.Status != models.TransactionStatusPending {
		return repository.ErrTransactionNotFound
	}
	txn.Status = models.TransactionStatusFailed
	txn.GatewayResponse = gatewayResponse
	return nil
}

func (m *mockPaymentStore) FinalizeSuccess(ctx context.Context, txn *models.PaymentTransaction, gatewayResponse []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinalizeCalls++
	if m.FinalizeError != nil {
		return m.FinalizeError
	}

	stored, ok := m.txns[txn.ID.String()]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	if stored.Status != models.TransactionStatusPending {
		return repository.ErrAlreadyFinalized
	}

	// The three effects are applied together, as the real store does in one
	// database transaction.
	stored.Status = models.TransactionStatusSuccessful
	stored.GatewayResponse = gatewayResponse
	for _, id := range stored.ActivityIDs {
		m.paidActivities[id] = true
	}
	if stored.CouponCode != "" {
		m.couponUses[stored.CouponCode]++
	}
	return nil
}

func (m *mockPaymentStore) GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return nil, repository.ErrCouponNotFound
}

// mockGateway records commit tokens and returns canned responses.
type mockGateway struct {
	commitResp  *services.WebpayCommitResponse
	commitErr   error
	commitCalls int
	lastToken   string
}

func (g *mockGateway) Create(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (*services.WebpayCreateResponse, error) {
	return &services.WebpayCreateResponse{Token: "tok", URL: "https://gateway.example/form"}, nil
}

func (g *mockGateway) Commit(ctx context.Context, token string) (*services.WebpayCommitResponse, error) {
	g.commitCalls++
	g.lastToken = token
	if g.commitErr != nil {
		return nil, g.commitErr
	}
	return g.commitResp, nil
}

const frontendURL = "https://app.example"

func setupCommitTest(store *mockPaymentStore, gateway *mockGateway) *fiber.App {
	handler := NewPaymentHandler(nil, store, gateway, nil, nil, frontendURL)

	app := fiber.New()
	app.Get("/api/payment/commit", handler.Commit)
	app.Post("/api/payment/commit", handler.Commit)
	return app
}

func pendingTransaction(couponCode string) *models.PaymentTransaction {
	txn := &models.PaymentTransaction{
		UserID:      uuid.New(),
		OutingID:    uuid.New(),
		BuyOrder:    "ord-123",
		Amount:      10000,
		ActivityIDs: []string{uuid.NewString(), uuid.NewString()},
		CouponCode:  couponCode,
		Status:      models.TransactionStatusPending,
	}
	txn.ID = uuid.New()
	return txn
}

func postForm(t *testing.T, app *fiber.App, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payment/commit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func assertRedirect(t *testing.T, resp *http.Response, wantPath string, wantQuery map[string]string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location header: %v", err)
	}
	if location.Path != wantPath {
		t.Errorf("expected redirect to %s, got %s", wantPath, location.Path)
	}
	query := location.Query()
	for key, want := range wantQuery {
		if got := query.Get(key); got != want {
			t.Errorf("expected %s=%q in redirect, got %q", key, want, got)
		}
	}
}

func TestCommit_AuthorizedAppliesBatchOnce(t *testing.T) {
	store := newMockPaymentStore()
	txn := pendingTransaction("DESC20")
	store.addTransaction(txn)

	gateway := &mockGateway{commitResp: &services.WebpayCommitResponse{
		Status:    services.CommitStatusAuthorized,
		BuyOrder:  txn.BuyOrder,
		SessionID: txn.ID.String(),
		Amount:    float64(txn.Amount),
		Raw:       []byte(`{"status":"AUTHORIZED"}`),
	}}
	app := setupCommitTest(store, gateway)

	resp := postForm(t, app, url.Values{"token_ws": {"tok-1"}})
	assertRedirect(t, resp, "/payment/success", map[string]string{
		"order":    txn.BuyOrder,
		"amount":   "10000",
		"salidaId": txn.OutingID.String(),
	})

	if txn.Status != models.TransactionStatusSuccessful {
		t.Errorf("expected successful status, got %s", txn.Status)
	}
	if len(txn.GatewayResponse) == 0 {
		t.Error("expected gateway response to be stored")
	}
	for _, id := range txn.ActivityIDs {
		if !store.paidActivities[id] {
			t.Errorf("activity %s not marked paid", id)
		}
	}
	if store.couponUses["DESC20"] != 1 {
		t.Errorf("expected coupon incremented once, got %d", store.couponUses["DESC20"])
	}
	if store.FinalizeCalls != 1 {
		t.Errorf("expected one finalize call, got %d", store.FinalizeCalls)
	}
}

func TestCommit_ReplayedRequestDoesNotReapply(t *testing.T) {
	store := newMockPaymentStore()
	txn := pendingTransaction("DESC20")
	store.addTransaction(txn)

	gateway := &mockGateway{commitResp: &services.WebpayCommitResponse{
		Status:    services.CommitStatusAuthorized,
		SessionID: txn.ID.String(),
		BuyOrder:  txn.BuyOrder,
		Raw:       []byte(`{}`),
	}}
	app := setupCommitTest(store, gateway)

	first := postForm(t, app, url.Values{"token_ws": {"tok-1"}})
	assertRedirect(t, first, "/payment/success", nil)

	second := postForm(t, app, url.Values{"token_ws": {"tok-1"}})
	assertRedirect(t, second, "/payment/success", map[string]string{"order": txn.BuyOrder})

	if store.couponUses["DESC20"] != 1 {
		t.Errorf("replay must not re-increment coupon: got %d", store.couponUses["DESC20"])
	}
	if store.FinalizeCalls != 2 {
		t.Errorf("expected finalize attempted twice, got %d", store.FinalizeCalls)
	}
}

func TestCommit_NotAuthorizedMarksFailed(t *testing.T) {
	store := newMockPaymentStore()
	txn := pendingTransaction("DESC20")
	store.addTransaction(txn)

	gateway := &mockGateway{commitResp: &services.WebpayCommitResponse{
		Status:    "FAILED",
		SessionID: txn.ID.String(),
		BuyOrder:  txn.BuyOrder,
		Raw:       []byte(`{"status":"FAILED"}`),
	}}
	app := setupCommitTest(store, gateway)

	resp := postForm(t, app, url.Values{"token_ws": {"tok-1"}})
	assertRedirect(t, resp, "/payment/error", map[string]string{
		"reason": "commit_failed",
		"order":  txn.BuyOrder,
	})

	if txn.Status != models.TransactionStatusFailed {
		t.Errorf("expected failed status, got %s", txn.Status)
	}
	for _, id := range txn.ActivityIDs {
		if store.paidActivities[id] {
			t.Errorf("activity %s must not be paid on failed commit", id)
		}
	}
	if store.couponUses["DESC20"] != 0 {
		t.Error("coupon must not be incremented on failed commit")
	}
}

func TestCommit_UserCancelled(t *testing.T) {
	store := newMockPaymentStore()
	txn := pendingTransaction("")
	store.addTransaction(txn)

	app := setupCommitTest(store, &mockGateway{})

	resp := postForm(t, app, url.Values{
		"TBK_TOKEN":        {"abc"},
		"TBK_ORDEN_COMPRA": {txn.BuyOrder},
		"TBK_ID_SESION":    {txn.ID.String()},
	})
	assertRedirect(t, resp, "/payment/error", map[string]string{
		"reason": "cancelled",
		"order":  txn.BuyOrder,
	})

	if txn.Status != models.TransactionStatusCancelledByUser {
		t.Errorf("expected cancelled_by_user status, got %s", txn.Status)
	}
}

func TestCommit_CancelledUnknownSessionStillRedirects(t *testing.T) {
	store := newMockPaymentStore()
	app := setupCommitTest(store, &mockGateway{})

	resp := postForm(t, app, url.Values{
		"TBK_TOKEN":        {"abc"},
		"TBK_ORDEN_COMPRA": {"ORDER1"},
		"TBK_ID_SESION":    {"sess1"},
	})
	assertRedirect(t, resp, "/payment/error", map[string]string{
		"reason": "cancelled",
		"order":  "ORDER1",
	})
}

func TestCommit_NoTokens(t *testing.T) {
	app := setupCommitTest(newMockPaymentStore(), &mockGateway{})

	resp := postForm(t, app, url.Values{})
	assertRedirect(t, resp, "/payment/error", map[string]string{"reason": "invalid_request"})
}

func TestCommit_GatewayException(t *testing.T) {
	gateway := &mockGateway{commitErr: errors.New("gateway timeout")}
	app := setupCommitTest(newMockPaymentStore(), gateway)

	resp := postForm(t, app, url.Values{"token_ws": {"tok-1"}})
	assertRedirect(t, resp, "/payment/error", map[string]string{"reason": "commit_exception"})

	if gateway.commitCalls != 1 {
		t.Errorf("commit must not be retried, got %d calls", gateway.commitCalls)
	}
}

func TestCommit_SessionNotFound(t *testing.T) {
	gateway := &mockGateway{commitResp: &services.WebpayCommitResponse{
		Status:    services.CommitStatusAuthorized,
		SessionID: uuid.NewString(),
		BuyOrder:  "ord-999",
		Raw:       []byte(`{}`),
	}}
	app := setupCommitTest(newMockPaymentStore(), gateway)

	resp := postForm(t, app, url.Values{"token_ws": {"tok-1"}})
	assertRedirect(t, resp, "/payment/error", map[string]string{
		"reason": "session_not_found",
		"order":  "ord-999",
	})
}

func TestCommit_AcceptsGETWithQueryParams(t *testing.T) {
	store := newMockPaymentStore()
	txn := pendingTransaction("")
	store.addTransaction(txn)

	gateway := &mockGateway{commitResp: &services.WebpayCommitResponse{
		Status:    services.CommitStatusAuthorized,
		SessionID: txn.ID.String(),
		BuyOrder:  txn.BuyOrder,
		Raw:       []byte(`{}`),
	}}
	app := setupCommitTest(store, gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/payment/commit?token_ws=tok-query", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertRedirect(t, resp, "/payment/success", nil)

	if gateway.lastToken != "tok-query" {
		t.Errorf("expected query token, gateway saw %q", gateway.lastToken)
	}
}

func TestCommit_FormBodyTakesPrecedenceOverQuery(t *testing.T) {
	store := newMockPaymentStore()
	txn := pendingTransaction("")
	store.addTransaction(txn)

	gateway := &mockGateway{commitResp: &services.WebpayCommitResponse{
		Status:    services.CommitStatusAuthorized,
		SessionID: txn.ID.String(),
		BuyOrder:  txn.BuyOrder,
		Raw:       []byte(`{}`),
	}}
	app := setupCommitTest(store, gateway)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/commit?token_ws=tok-query",
		strings.NewReader("token_ws=tok-form"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertRedirect(t, resp, "/payment/success", nil)

	if gateway.lastToken != "tok-form" {
		t.Errorf("form token must win, gateway saw %q", gateway.lastToken)
	}
}
