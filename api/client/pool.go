package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/mixer-z-sandbox/api"
	"github.com/vocdoni/mixer-z-sandbox/types"
)

// Deposit submits a commitment with the pool denomination attached and
// returns the assigned leaf index and resulting root.
func (c *HTTPclient) Deposit(commitment, amount *types.BigInt) (*api.DepositResponse, error) {
	req := &api.DepositRequest{Commitment: commitment, Amount: amount}
	res := &api.DepositResponse{}
	if err := c.jsonRequest(HTTPPOST, req, res, api.DepositsEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

// Withdraw submits a withdrawal proof. A nil error means the nullifier was
// recorded and the payout executed.
func (c *HTTPclient) Withdraw(root, nullifierHash *types.BigInt, recipient common.Address,
	fee *types.BigInt, proof []byte,
) error {
	req := &api.WithdrawalRequest{
		Root:          root,
		NullifierHash: nullifierHash,
		Recipient:     recipient,
		Fee:           fee,
		Proof:         proof,
	}
	data, status, err := c.Request(HTTPPOST, req, nil, api.WithdrawalsEndpoint)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, data)
	}
	return nil
}

// Root fetches the current accumulator root and next leaf index.
func (c *HTTPclient) Root() (*api.RootResponse, error) {
	res := &api.RootResponse{}
	if err := c.jsonRequest(HTTPGET, nil, res, api.RootEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

// IsKnownRoot reports whether the pool still accepts proofs against root.
func (c *HTTPclient) IsKnownRoot(root *types.BigInt) (bool, error) {
	res := &api.RootStatusResponse{}
	if err := c.jsonRequest(HTTPGET, nil, res, "roots", root.String()); err != nil {
		return false, err
	}
	return res.Known, nil
}

// IsSpent reports whether a nullifier hash has been used.
func (c *HTTPclient) IsSpent(nullifierHash *types.BigInt) (bool, error) {
	res := &api.NullifierStatusResponse{}
	if err := c.jsonRequest(HTTPGET, nil, res, "nullifiers", nullifierHash.String()); err != nil {
		return false, err
	}
	return res.Spent, nil
}

// Info fetches the immutable pool configuration.
func (c *HTTPclient) Info() (*api.InfoResponse, error) {
	res := &api.InfoResponse{}
	if err := c.jsonRequest(HTTPGET, nil, res, api.InfoEndpoint); err != nil {
		return nil, err
	}
	return res, nil
}

// Leaves fetches every deposited commitment in insertion order.
func (c *HTTPclient) Leaves() ([]*types.BigInt, error) {
	res := &api.LeavesResponse{}
	if err := c.jsonRequest(HTTPGET, nil, res, api.LeavesEndpoint); err != nil {
		return nil, err
	}
	return res.Leaves, nil
}

func (c *HTTPclient) jsonRequest(method string, body, result any, urlPath ...string) error {
	data, status, err := c.Request(method, body, nil, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, data)
	}
	return json.Unmarshal(data, result)
}

// apiError decodes the stable {error, code} body the pool API writes on
// failures, falling back to the raw body for non-API responses.
func apiError(status int, data []byte) error {
	decoded := struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}{}
	if err := json.Unmarshal(data, &decoded); err == nil && decoded.Code != 0 {
		return fmt.Errorf("%s: %d (code %d: %s)", errCodeNot200, status, decoded.Code, decoded.Error)
	}
	return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
}
