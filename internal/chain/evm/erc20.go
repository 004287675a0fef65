package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// decimalsSelector is the 4-byte selector for the ERC-20 decimals() call.
var decimalsSelector = []byte{0x31, 0x3c, 0xe5, 0x67}

// Decimals calls decimals() on an ERC-20 token contract. Callers should
// default to 6 if this returns an error, per the monitor's documented
// fallback for unreadable token metadata.
func (c *Client) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	result, err := c.call(ctx, "erc20_decimals", func() (any, error) {
		return c.client.CallContract(ctx, ethereum.CallMsg{
			To:   &token,
			Data: decimalsSelector,
		}, nil)
	})
	if err != nil {
		return 0, err
	}

	data := result.([]byte)
	if len(data) < 32 {
		return 0, fmt.Errorf("evm: decimals() returned %d bytes, want >= 32", len(data))
	}
	return data[31], nil
}
