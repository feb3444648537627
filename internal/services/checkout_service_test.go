package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/example/salidas/internal/models"
)

// stubGateway is a canned-response WebpayGateway.
type stubGateway struct {
	createResp *WebpayCreateResponse
	createErr  error

	commitResp *WebpayCommitResponse
	commitErr  error

	createCalls int
}

func (g *stubGateway) Create(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (*WebpayCreateResponse, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createResp, nil
}

func (g *stubGateway) Commit(ctx context.Context, token string) (*WebpayCommitResponse, error) {
	if g.commitErr != nil {
		return nil, g.commitErr
	}
	return g.commitResp, nil
}

func TestInitiate_CreatesOnePendingTransaction(t *testing.T) {
	store := newStubStore()
	gateway := &stubGateway{createResp: &WebpayCreateResponse{Token: "tok-1", URL: "https://gateway.example/form"}}
	svc := NewCheckoutService(store, gateway, "https://app.example/api/payment/commit")

	result := svc.Initiate(context.Background(), uuid.New(), uuid.New(), 10000, []string{uuid.NewString()}, "desc20")
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.Token != "tok-1" || result.URL != "https://gateway.example/form" {
		t.Errorf("unexpected result: %+v", result)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(store.created))
	}
	txn := store.created[0]
	if txn.Status != models.TransactionStatusPending {
		t.Errorf("expected pending status, got %s", txn.Status)
	}
	if len(txn.BuyOrder) == 0 || len(txn.BuyOrder) > 26 {
		t.Errorf("buy order must be 1..26 chars, got %q (%d)", txn.BuyOrder, len(txn.BuyOrder))
	}
	if txn.CouponCode != "DESC20" {
		t.Errorf("expected normalized coupon code, got %q", txn.CouponCode)
	}
}

func TestInitiate_RejectsInvalidInput(t *testing.T) {
	store := newStubStore()
	gateway := &stubGateway{createResp: &WebpayCreateResponse{Token: "t", URL: "u"}}
	svc := NewCheckoutService(store, gateway, "https://app.example/api/payment/commit")

	if r := svc.Initiate(context.Background(), uuid.New(), uuid.New(), 0, []string{"a"}, ""); r.Success {
		t.Error("expected zero amount to fail")
	}
	if r := svc.Initiate(context.Background(), uuid.New(), uuid.New(), 100, nil, ""); r.Success {
		t.Error("expected empty activity list to fail")
	}
	if len(store.created) != 0 {
		t.Errorf("no transaction should be created on validation failure, got %d", len(store.created))
	}
}

func TestInitiate_MissingReturnURLFailsFast(t *testing.T) {
	store := newStubStore()
	gateway := &stubGateway{createResp: &WebpayCreateResponse{Token: "t", URL: "u"}}
	svc := NewCheckoutService(store, gateway, "")

	result := svc.Initiate(context.Background(), uuid.New(), uuid.New(), 100, []string{"a"}, "")
	if result.Success {
		t.Fatal("expected configuration failure")
	}
	if len(store.created) != 0 {
		t.Error("no transaction should be created when the return URL is unknown")
	}
	if gateway.createCalls != 0 {
		t.Error("gateway must not be called when the return URL is unknown")
	}
}

func TestInitiate_GatewayErrorSurfacedNotRetried(t *testing.T) {
	store := newStubStore()
	gateway := &stubGateway{createErr: errors.New("connection refused")}
	svc := NewCheckoutService(store, gateway, "https://app.example/api/payment/commit")

	result := svc.Initiate(context.Background(), uuid.New(), uuid.New(), 100, []string{"a"}, "")
	if result.Success {
		t.Fatal("expected gateway failure")
	}
	if result.Message == "" {
		t.Error("expected a failure message")
	}
	if gateway.createCalls != 1 {
		t.Errorf("gateway create must not be retried, got %d calls", gateway.createCalls)
	}
}

func TestInitiate_IncompleteGatewayResponse(t *testing.T) {
	store := newStubStore()
	gateway := &stubGateway{createResp: &WebpayCreateResponse{Token: "tok-only"}}
	svc := NewCheckoutService(store, gateway, "https://app.example/api/payment/commit")

	result := svc.Initiate(context.Background(), uuid.New(), uuid.New(), 100, []string{"a"}, "")
	if result.Success {
		t.Fatal("expected failure when the gateway omits the url")
	}
}

func TestNewBuyOrder_BoundedAndUnique(t *testing.T) {
	outingID := uuid.New()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		order := NewBuyOrder(outingID)
		if len(order) == 0 || len(order) > 26 {
			t.Fatalf("buy order out of bounds: %q (%d)", order, len(order))
		}
		if seen[order] {
			t.Fatalf("duplicate buy order generated: %q", order)
		}
		seen[order] = true
	}
}
