package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/privacy-pool/crypto/ethereum"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/types"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data any) {
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// decodeBody decodes the JSON body of the request into v. On failure the
// error response is written and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return false
	}
	return true
}

// signer recovers the address that signed msg. On failure the error
// response is written and false is returned.
func signer(w http.ResponseWriter, msg, signature []byte) (common.Address, bool) {
	if len(signature) == 0 {
		ErrInvalidSignature.With("missing signature").Write(w)
		return common.Address{}, false
	}
	addr, err := ethereum.AddrFromSignature(msg, signature)
	if err != nil {
		ErrInvalidSignature.Withf("could not extract address from signature: %v", err).Write(w)
		return common.Address{}, false
	}
	return addr, true
}

// bigIntParam parses the URL parameter name as a decimal or 0x-prefixed
// hexadecimal number.
func bigIntParam(r *http.Request, name string) (*big.Int, error) {
	v := new(types.BigInt)
	if err := v.UnmarshalText([]byte(chi.URLParam(r, name))); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v.MathBigInt(), nil
}

// uint64Query parses the query parameter name, returning def when absent.
func uint64Query(r *http.Request, name string, def uint64) (uint64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func bigInts(in []*big.Int) []*types.BigInt {
	out := make([]*types.BigInt, len(in))
	for i, v := range in {
		out[i] = types.NewInt(v)
	}
	return out
}
