// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

package execution

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "execution")

// Client retrieves withdrawal vault data from an execution node.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the execution node RPC endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial execution node %s", url)
	}
	return NewClient(c), nil
}

// NewClient wraps an existing RPC connection.
func NewClient(c *rpc.Client) *Client {
	return &Client{rpc: c}
}

// Close tears down the RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// accountResult is the subset of the eth_getProof response the vault needs.
type accountResult struct {
	Address      common.Address  `json:"address"`
	AccountProof []hexutil.Bytes `json:"accountProof"`
	Balance      *hexutil.Big    `json:"balance"`
}

// WithdrawalVaultData fetches the balance and account proof of the vault at
// the execution block with the given hash.
func (c *Client) WithdrawalVaultData(ctx context.Context, address common.Address, blockHash common.Hash) (*WithdrawalVaultData, error) {
	var res accountResult
	block := rpc.BlockNumberOrHashWithHash(blockHash, false)
	if err := c.rpc.CallContext(ctx, &res, "eth_getProof", address, []string{}, block); err != nil {
		return nil, errors.Wrapf(err, "could not get proof of account %s at block %s", address, blockHash)
	}
	if res.Balance == nil {
		return nil, errors.Errorf("missing balance of account %s", address)
	}
	balance, overflow := uint256.FromBig(res.Balance.ToInt())
	if overflow {
		return nil, errors.Errorf("balance of account %s overflows 256 bits", address)
	}
	proof := make([][]byte, len(res.AccountProof))
	for i, node := range res.AccountProof {
		proof[i] = node
	}
	log.WithFields(logrus.Fields{
		"address": address,
		"block":   blockHash,
		"balance": balance,
		"nodes":   len(proof),
	}).Debug("Fetched withdrawal vault data")

	return &WithdrawalVaultData{
		VaultAddress: address,
		Balance:      balance,
		AccountProof: proof,
	}, nil
}
