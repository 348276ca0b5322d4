package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// клиент TON API (tonapi.io v2), нужен только для чтения транзакций
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(network Network, apiKey string) *Client {
	baseURL := TonAPIMainnet
	if network == NetworkTestnet {
		baseURL = TonAPITestnet
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type AccountAddress struct {
	Address  string `json:"address"`
	IsScam   bool   `json:"is_scam"`
	IsWallet bool   `json:"is_wallet"`
}

// Transaction - нужные нам поля транзакции tonapi
type Transaction struct {
	Hash    string          `json:"hash"`
	Lt      int64           `json:"lt"`
	Account *AccountAddress `json:"account"`
	Utime   int64           `json:"utime"`
	InMsg   *Message        `json:"in_msg"`
	Success bool            `json:"success"`
	Aborted bool            `json:"aborted"`
}

type Message struct {
	MsgType     string          `json:"msg_type"`
	Bounced     bool            `json:"bounced"`
	Value       int64           `json:"value"`
	Destination *AccountAddress `json:"destination"`
	Source      *AccountAddress `json:"source"`
	OpCode      string          `json:"op_code"`
	Hash        string          `json:"hash"`
}

// GetTransaction возвращает nil, nil если транзакция еще не видна
func (c *Client) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	reqURL := fmt.Sprintf("%s/blockchain/transactions/%s", c.baseURL, hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tonapi: %s - %s", resp.Status, string(body))
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

// WaitForTransaction опрашивает API пока транзакция не появится
func (c *Client) WaitForTransaction(ctx context.Context, hash string, timeout, interval time.Duration) (*Transaction, error) {
	deadline := time.Now().Add(timeout)

	for {
		tx, err := c.GetTransaction(ctx, hash)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			return tx, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// setAuthHeader - ключи tonapi начинаются с AF/AG или это длинные JWT
func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	if strings.HasPrefix(c.apiKey, "AF") || strings.HasPrefix(c.apiKey, "AG") || len(c.apiKey) > 100 {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
