package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ruteri/enclave-kms/interfaces"
)

// Client is an HTTP client for the enclave KMS API. The zero value is
// not usable; construct with NewClient.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new API client for the server at baseURL. If
// httpClient is nil, http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

// Generate requests a new account and returns its address.
func (c *Client) Generate(ctx context.Context) (interfaces.Address, error) {
	var resp GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/generate", nil, &resp); err != nil {
		return interfaces.Address{}, err
	}
	return resp.Address, nil
}

// Addresses returns all addresses known to the server.
func (c *Client) Addresses(ctx context.Context) ([]interfaces.Address, error) {
	var resp AddressesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/addresses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// Sign signs a personal message with the key behind addr.
func (c *Client) Sign(ctx context.Context, addr interfaces.Address, message string) (interfaces.Signature, error) {
	var resp SignResponse
	req := SignRequest{Address: addr.String(), Message: message}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sign", req, &resp); err != nil {
		return interfaces.Signature{}, err
	}
	return resp.Signature, nil
}

// Verify checks a personal-message signature against a claimed address.
func (c *Client) Verify(ctx context.Context, addr interfaces.Address, message, signature string) (bool, error) {
	var resp VerifyResponse
	req := VerifyRequest{Address: addr.String(), Message: message, Signature: signature}
	if err := c.do(ctx, http.MethodPost, "/api/v1/verify", req, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// SignTransaction signs an EIP-155 legacy transaction with the key
// behind the request's address.
func (c *Client) SignTransaction(ctx context.Context, req SignTransactionRequest) (*SignTransactionResponse, error) {
	var resp SignTransactionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/sign_transaction", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not request kms: %w", err)
	}

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read kms response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("kms returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("kms returned %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, respBody); err != nil {
		return fmt.Errorf("could not parse kms response: %w", err)
	}
	return nil
}
