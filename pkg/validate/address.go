package validate

import "regexp"

var (
	evmAddress  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	tronAddress = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
	anyAddress  = regexp.MustCompile(`^[0-9A-Za-z]{20,128}$`)
)

// IsAddress performs a format sanity check on a destination address for the
// given network code. It does not verify checksums or on-chain existence.
func IsAddress(network, address string) bool {
	switch network {
	case "TRON":
		return tronAddress.MatchString(address)
	case "ETH", "BSC", "POLYGON":
		return evmAddress.MatchString(address)
	default:
		return anyAddress.MatchString(address)
	}
}
