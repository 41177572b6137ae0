package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/mixer-z-sandbox/crypto/hash"
	"github.com/vocdoni/mixer-z-sandbox/merkletree"
	"github.com/vocdoni/mixer-z-sandbox/mixer"
	"github.com/vocdoni/mixer-z-sandbox/types"
)

// deposit handles POST /deposits. It inserts the commitment into the
// accumulator and returns the assigned leaf index and new root.
func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	req := &DepositRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.Commitment == nil || req.Amount == nil {
		ErrMalformedBody.With("missing commitment or amount").Write(w)
		return
	}
	receipt, err := a.mixer.Deposit(req.Commitment, req.Amount)
	if err != nil {
		writeMixerError(w, err)
		return
	}
	httpWriteJSON(w, &DepositResponse{Index: receipt.Index, Root: receipt.Root})
}

// withdraw handles POST /withdrawals. On success the response body is empty;
// payout happens through the pool's configured payment capability.
func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	req := &WithdrawalRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.Root == nil || req.NullifierHash == nil || len(req.Proof) == 0 {
		ErrMalformedBody.With("missing root, nullifier hash or proof").Write(w)
		return
	}
	err := a.mixer.Withdraw(&mixer.WithdrawalRequest{
		Root:          req.Root,
		NullifierHash: req.NullifierHash,
		Recipient:     req.Recipient,
		Fee:           req.Fee,
		Proof:         req.Proof,
	})
	if err != nil {
		writeMixerError(w, err)
		return
	}
	httpWriteOK(w)
}

// root handles GET /root.
func (a *API) root(w http.ResponseWriter, _ *http.Request) {
	httpWriteJSON(w, &RootResponse{
		Root:      a.mixer.Root(),
		NextIndex: a.mixer.NextIndex(),
	})
}

// rootStatus handles GET /roots/{root}.
func (a *API) rootStatus(w http.ResponseWriter, r *http.Request) {
	root, ok := urlParamBigInt(w, r, RootURLParam)
	if !ok {
		return
	}
	httpWriteJSON(w, &RootStatusResponse{
		Root:  root,
		Known: a.mixer.IsKnownRoot(root),
	})
}

// nullifierStatus handles GET /nullifiers/{nullifierHash}.
func (a *API) nullifierStatus(w http.ResponseWriter, r *http.Request) {
	nullifierHash, ok := urlParamBigInt(w, r, NullifierURLParam)
	if !ok {
		return
	}
	spent, err := a.mixer.IsSpent(nullifierHash)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &NullifierStatusResponse{
		NullifierHash: nullifierHash,
		Spent:         spent,
	})
}

// info handles GET /info.
func (a *API) info(w http.ResponseWriter, _ *http.Request) {
	cfg := a.mixer.Config()
	httpWriteJSON(w, &InfoResponse{
		Depth:           cfg.Depth,
		Denomination:    cfg.Denomination,
		RootHistorySize: cfg.RootHistorySize,
		Relayer:         cfg.Relayer,
		HashFunction:    cfg.HashFunction,
		NextIndex:       a.mixer.NextIndex(),
		Capacity:        uint64(1) << cfg.Depth,
	})
}

// leaves handles GET /leaves.
func (a *API) leaves(w http.ResponseWriter, _ *http.Request) {
	leaves, err := a.mixer.Leaves()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if leaves == nil {
		leaves = []*types.BigInt{}
	}
	httpWriteJSON(w, &LeavesResponse{Leaves: leaves})
}

// urlParamBigInt parses a decimal big integer URL parameter, writing a
// malformed-parameter error on failure.
func urlParamBigInt(w http.ResponseWriter, r *http.Request, name string) (*types.BigInt, bool) {
	raw := chi.URLParam(r, name)
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		ErrMalformedParam.Withf("%s is not a decimal integer", name).Write(w)
		return nil, false
	}
	return types.BigIntFrom(v), true
}

// writeMixerError maps the mixer error taxonomy onto stable API error codes.
func writeMixerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hash.ErrNotInField):
		ErrValueNotInField.WithErr(err).Write(w)
	case errors.Is(err, mixer.ErrInvalidAmount):
		ErrInvalidAmount.WithErr(err).Write(w)
	case errors.Is(err, merkletree.ErrTreeFull):
		ErrPoolFull.WithErr(err).Write(w)
	case errors.Is(err, mixer.ErrUnknownRoot):
		ErrUnknownRoot.WithErr(err).Write(w)
	case errors.Is(err, mixer.ErrAlreadySpent):
		ErrNullifierSpent.WithErr(err).Write(w)
	case errors.Is(err, mixer.ErrInvalidProof):
		ErrInvalidProof.WithErr(err).Write(w)
	case errors.Is(err, mixer.ErrPaymentFailed):
		ErrPaymentFailed.WithErr(err).Write(w)
	default:
		ErrGenericInternalServerError.WithErr(err).Write(w)
	}
}
