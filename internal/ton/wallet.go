package ton

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"squabble_server/internal/logger"
)

// Wallet - кошелек сервера, от имени которого идут сообщения контракту
type Wallet struct {
	client  *ton.APIClient
	wallet  *wallet.Wallet
	network Network
	log     *slog.Logger
}

// NewWallet подключается к лайтсерверам и поднимает V5R1 кошелек из мнемоники
func NewWallet(ctx context.Context, mnemonic string, network Network) (*Wallet, error) {
	configURL := globalConfigMainnet
	if network == NetworkTestnet {
		configURL = globalConfigTestnet
	}

	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("connect lite servers: %w", err)
	}
	api := ton.NewAPIClient(pool)

	words := strings.Fields(strings.TrimSpace(mnemonic))
	if len(words) != 24 {
		return nil, fmt.Errorf("invalid mnemonic: expected 24 words, got %d", len(words))
	}

	// NetworkGlobalID: -239 для mainnet, -3 для testnet
	networkID := int32(-239)
	if network == NetworkTestnet {
		networkID = -3
	}
	w, err := wallet.FromSeed(api, words, wallet.ConfigV5R1Final{
		NetworkGlobalID: networkID,
		Workchain:       0,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet from seed: %w", err)
	}

	return &Wallet{
		client:  api,
		wallet:  w,
		network: network,
		log:     logger.Component("ton_wallet"),
	}, nil
}

func (w *Wallet) Address() string {
	return w.wallet.WalletAddress().String()
}

// Send отправляет внутреннее сообщение с телом и ждет транзакцию, возвращает ее хеш
func (w *Wallet) Send(ctx context.Context, to *address.Address, amount tlb.Coins, body *cell.Cell) (string, error) {
	msg := &wallet.Message{
		Mode: wallet.PayGasSeparately + wallet.IgnoreErrors,
		InternalMessage: &tlb.InternalMessage{
			IHRDisabled: true,
			Bounce:      true,
			DstAddr:     to,
			Amount:      amount,
			Body:        body,
		},
	}

	tx, _, err := w.wallet.SendWaitTransaction(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	hash := fmt.Sprintf("%x", tx.Hash)
	w.log.Debug("message sent", "to", to.String(), "tx", hash, "network", w.network)
	return hash, nil
}
