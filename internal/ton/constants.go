package ton

import "time"

// наименьшая единица TON (1 TON = 10^9 наноTON)
const NanoTON = 1_000_000_000

// представляет тип сети TON
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// ParseNetwork - все кроме testnet считаем mainnet
func ParseNetwork(s string) Network {
	if s == string(NetworkTestnet) {
		return NetworkTestnet
	}
	return NetworkMainnet
}

// конечные точки TON API
const (
	TonAPIMainnet = "https://tonapi.io/v2"
	TonAPITestnet = "https://testnet.tonapi.io/v2"

	globalConfigMainnet = "https://ton.org/global.config.json"
	globalConfigTestnet = "https://ton.org/testnet-global.config.json"
)

// коды операций контракта игры
const (
	OpStartGame     uint32 = 0x53a1e001
	OpSetGameResult uint32 = 0x53a1e002
	OpJoinGame      uint32 = 0x53a1e003
)

const (
	// газ на сообщение контракту, остаток возвращается
	ContractMessageValue = "0.05"

	// сколько ждем появления транзакции ставки
	StakeLookupTimeout = 20 * time.Second
	stakePollInterval  = 2 * time.Second
)

// конвертирует наноTON в TON
func NanoToTON(nano int64) float64 {
	return float64(nano) / NanoTON
}
