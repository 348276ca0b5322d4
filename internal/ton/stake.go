package ton

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStakeNotFound = errors.New("stake transaction not found")
	ErrStakeFailed   = errors.New("stake transaction failed")
	ErrStakeMismatch = errors.New("stake transaction does not match")
)

type transactionSource interface {
	WaitForTransaction(ctx context.Context, hash string, timeout, interval time.Duration) (*Transaction, error)
}

// StakeVerifier проверяет, что по хешу лежит успешный перевод ставки на контракт игры
type StakeVerifier struct {
	txs      transactionSource
	contract string
	timeout  time.Duration
	interval time.Duration
}

func NewStakeVerifier(client *Client, contractAddr string) (*StakeVerifier, error) {
	if _, err := ParseAddress(contractAddr); err != nil {
		return nil, fmt.Errorf("stake contract: %w", err)
	}
	return &StakeVerifier{
		txs:      client,
		contract: contractAddr,
		timeout:  StakeLookupTimeout,
		interval: stakePollInterval,
	}, nil
}

func (v *StakeVerifier) VerifyStake(ctx context.Context, paymentHash, payerAddress string, amount int64) error {
	if paymentHash == "" {
		return fmt.Errorf("%w: empty payment hash", ErrStakeNotFound)
	}

	tx, err := v.txs.WaitForTransaction(ctx, paymentHash, v.timeout, v.interval)
	if err != nil {
		return fmt.Errorf("lookup stake %s: %w", paymentHash, err)
	}
	if tx == nil {
		return fmt.Errorf("%w: %s", ErrStakeNotFound, paymentHash)
	}
	if !tx.Success || tx.Aborted {
		return fmt.Errorf("%w: %s", ErrStakeFailed, paymentHash)
	}

	in := tx.InMsg
	if in == nil || in.Bounced {
		return fmt.Errorf("%w: no inbound transfer", ErrStakeMismatch)
	}
	if in.Destination == nil || !SameAddress(in.Destination.Address, v.contract) {
		return fmt.Errorf("%w: wrong recipient", ErrStakeMismatch)
	}
	if payerAddress != "" && (in.Source == nil || !SameAddress(in.Source.Address, payerAddress)) {
		return fmt.Errorf("%w: wrong payer", ErrStakeMismatch)
	}
	if in.Value < amount {
		return fmt.Errorf("%w: paid %.4f TON, bet is %.4f TON", ErrStakeMismatch, NanoToTON(in.Value), NanoToTON(amount))
	}
	return nil
}
