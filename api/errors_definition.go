//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, DON'T fill it in; that code was used in the past and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound    = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody       = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedParam      = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed URL parameter")}
	ErrValueNotInField     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("value outside the scalar field")}
	ErrInvalidAmount       = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid amount")}
	ErrPoolFull            = Error{Code: 40008, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("pool is at capacity")}
	ErrUnknownRoot         = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unknown merkle root")}
	ErrNullifierSpent      = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier already spent")}
	ErrInvalidProof        = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid withdrawal proof")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrPaymentFailed              = Error{Code: 50003, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("payment failed, withdrawal not recorded")}
)
