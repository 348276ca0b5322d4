package ton

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

var ErrBadAddress = errors.New("invalid ton address")

// ParseAddress принимает raw (0:hex) и user-friendly (EQ.../UQ...) форматы
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0:") || strings.HasPrefix(s, "-1:") {
		return parseRawAddress(s)
	}
	addr, err := address.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAddress, s, err)
	}
	return addr, nil
}

// NormalizeAddress приводит адрес к raw виду для сравнения
func NormalizeAddress(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return RawAddress(addr), nil
}

func RawAddress(addr *address.Address) string {
	return fmt.Sprintf("%d:%s", addr.Workchain(), hex.EncodeToString(addr.Data()))
}

// SameAddress сравнивает адреса независимо от формата и флагов
func SameAddress(a, b string) bool {
	na, err := NormalizeAddress(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeAddress(b)
	if err != nil {
		return false
	}
	return na == nb
}

// parseRawAddress парсит raw адрес формата "0:hex" или "-1:hex"
func parseRawAddress(raw string) (*address.Address, error) {
	var workchain int32
	var hashHex string

	switch {
	case strings.HasPrefix(raw, "0:"):
		hashHex = raw[2:]
	case strings.HasPrefix(raw, "-1:"):
		workchain = -1
		hashHex = raw[3:]
	default:
		return nil, fmt.Errorf("%w: unknown raw format %q", ErrBadAddress, raw)
	}

	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return nil, fmt.Errorf("%w: bad hex: %v", ErrBadAddress, err)
	}
	if len(hash) != 32 {
		return nil, fmt.Errorf("%w: hash length %d", ErrBadAddress, len(hash))
	}
	return address.NewAddress(0, byte(workchain), hash), nil
}
