package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const webpayTransactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

// CommitStatusAuthorized is the gateway status for an approved payment.
const CommitStatusAuthorized = "AUTHORIZED"

// WebpayGateway is the payment gateway port used by the checkout and commit
// flows. Commit must never be retried: the gateway consumes the token on the
// first attempt.
type WebpayGateway interface {
	Create(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (*WebpayCreateResponse, error)
	Commit(ctx context.Context, token string) (*WebpayCommitResponse, error)
}

// WebpayCreateResponse is the gateway's answer to a transaction creation.
type WebpayCreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// WebpayCommitResponse is the gateway's answer to a transaction commit.
type WebpayCommitResponse struct {
	VCI                string  `json:"vci"`
	Amount             float64 `json:"amount"`
	Status             string  `json:"status"`
	BuyOrder           string  `json:"buy_order"`
	SessionID          string  `json:"session_id"`
	AccountingDate     string  `json:"accounting_date"`
	TransactionDate    string  `json:"transaction_date"`
	AuthorizationCode  string  `json:"authorization_code"`
	PaymentTypeCode    string  `json:"payment_type_code"`
	ResponseCode       int     `json:"response_code"`
	InstallmentsNumber int     `json:"installments_number"`

	// Raw keeps the gateway body for write-once persistence.
	Raw []byte `json:"-"`
}

// Authorized reports whether the commit was approved by the gateway.
func (r *WebpayCommitResponse) Authorized() bool {
	return r.Status == CommitStatusAuthorized
}

// WebpayService talks to the Webpay REST API.
type WebpayService struct {
	baseURL      string
	commerceCode string
	apiKey       string
	client       *http.Client
}

// NewWebpayService constructs WebpayService.
func NewWebpayService(baseURL, commerceCode, apiKey string) *WebpayService {
	return &WebpayService{
		baseURL:      baseURL,
		commerceCode: commerceCode,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

type webpayCreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

// Create registers a new transaction with the gateway and returns the token
// and redirect URL for the payment form.
func (s *WebpayService) Create(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (*WebpayCreateResponse, error) {
	body, err := s.do(ctx, http.MethodPost, webpayTransactionsPath, webpayCreateRequest{
		BuyOrder:  buyOrder,
		SessionID: sessionID,
		Amount:    amount,
		ReturnURL: returnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("webpay create: %w", err)
	}

	var result WebpayCreateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("webpay create unmarshal: %w", err)
	}
	return &result, nil
}

// Commit finalizes the transaction identified by token and returns the
// authorization outcome. A consumed token cannot be committed twice.
func (s *WebpayService) Commit(ctx context.Context, token string) (*WebpayCommitResponse, error) {
	if token == "" {
		return nil, errors.New("webpay commit: empty token")
	}

	body, err := s.do(ctx, http.MethodPut, webpayTransactionsPath+"/"+token, nil)
	if err != nil {
		return nil, fmt.Errorf("webpay commit: %w", err)
	}

	var result WebpayCommitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("webpay commit unmarshal: %w", err)
	}
	result.Raw = body
	return &result, nil
}

func (s *WebpayService) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Tbk-Api-Key-Id", s.commerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
