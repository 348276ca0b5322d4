package ton

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTonAPI(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(NetworkTestnet, "")
	c.baseURL = srv.URL
	return c
}

func stakeTx(value string, dest, src string, success bool) string {
	ok := "false"
	if success {
		ok = "true"
	}
	return `{"hash":"h","success":` + ok + `,"in_msg":{"value":` + value +
		`,"destination":{"address":"` + dest + `"},"source":{"address":"` + src + `"}}}`
}

func TestVerifyStake(t *testing.T) {
	contract := RawAddress(testAddr(0xC0))
	payer := RawAddress(testAddr(0x01))

	client := newTonAPI(t, map[string]string{
		"/blockchain/transactions/good":     stakeTx("1000000000", contract, payer, true),
		"/blockchain/transactions/short":    stakeTx("10", contract, payer, true),
		"/blockchain/transactions/failed":   stakeTx("1000000000", contract, payer, false),
		"/blockchain/transactions/wrongdst": stakeTx("1000000000", payer, payer, true),
	})

	v, err := NewStakeVerifier(client, testAddr(0xC0).String())
	require.NoError(t, err)
	v.timeout = 0
	v.interval = time.Millisecond
	ctx := context.Background()

	// адрес плательщика приходит в user-friendly виде
	assert.NoError(t, v.VerifyStake(ctx, "good", testAddr(0x01).String(), NanoTON))
	assert.NoError(t, v.VerifyStake(ctx, "good", "", NanoTON))

	assert.ErrorIs(t, v.VerifyStake(ctx, "short", payer, NanoTON), ErrStakeMismatch)
	assert.ErrorIs(t, v.VerifyStake(ctx, "failed", payer, NanoTON), ErrStakeFailed)
	assert.ErrorIs(t, v.VerifyStake(ctx, "wrongdst", payer, NanoTON), ErrStakeMismatch)
	assert.ErrorIs(t, v.VerifyStake(ctx, "good", RawAddress(testAddr(0x02)), NanoTON), ErrStakeMismatch)
	assert.ErrorIs(t, v.VerifyStake(ctx, "missing", payer, NanoTON), ErrStakeNotFound)
	assert.ErrorIs(t, v.VerifyStake(ctx, "", payer, NanoTON), ErrStakeNotFound)
}

func TestClientAuthHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(NetworkMainnet, "AFkey")
	c.baseURL = srv.URL
	tx, err := c.GetTransaction(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, tx)
	assert.Equal(t, "Bearer AFkey", got)
}
