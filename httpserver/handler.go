package httpserver

import (
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/enclave-kms/interfaces"
	"github.com/ruteri/enclave-kms/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// GenerateResponse is returned by the generate endpoint.
type GenerateResponse struct {
	Address interfaces.Address `json:"address"`
	Message string             `json:"message"`
}

// AddressesResponse is returned by the addresses endpoint.
type AddressesResponse struct {
	Addresses []interfaces.Address `json:"addresses"`
	Count     int                  `json:"count"`
}

// SignRequest is the body of the sign endpoint.
type SignRequest struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

// SignResponse is returned by the sign endpoint.
type SignResponse struct {
	Address   interfaces.Address   `json:"address"`
	Signature interfaces.Signature `json:"signature"`
}

// VerifyRequest is the body of the verify endpoint.
type VerifyRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// VerifyResponse is returned by the verify endpoint.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// SignTransactionRequest is the body of the sign_transaction endpoint.
// GasPrice and Value are decimal strings; Data is 0x-prefixed hex.
type SignTransactionRequest struct {
	Address  string `json:"address"`
	Nonce    uint64 `json:"nonce"`
	GasPrice string `json:"gas_price"`
	Gas      uint64 `json:"gas"`
	To       string `json:"to,omitempty"`
	Value    string `json:"value"`
	Data     string `json:"data,omitempty"`
	ChainID  uint64 `json:"chain_id"`
}

// SignTransactionResponse is returned by the sign_transaction endpoint.
type SignTransactionResponse struct {
	Address        interfaces.Address `json:"address"`
	RawTransaction string             `json:"raw_transaction"`
	Hash           string             `json:"hash"`
}

// errorResponse carries a failure with its stable kind so clients can
// react without parsing the message.
type errorResponse struct {
	Error string               `json:"error"`
	Kind  interfaces.ErrorKind `json:"kind,omitempty"`
}

// Handler processes HTTP requests for the enclave KMS.
type Handler struct {
	kms interfaces.KMS
	log *slog.Logger
}

// NewHandler creates a new HTTP request handler around a KMS
// implementation.
func NewHandler(kms interfaces.KMS, log *slog.Logger) *Handler {
	return &Handler{kms: kms, log: log}
}

// HandleGenerate creates a new account and stores its sealed key.
//
// URL format: POST /api/v1/generate
//
// Response: JSON containing the checksum-cased address of the new
// account. The private key is never part of any response.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	addr, err := h.kms.GenerateAccount(r.Context())
	if err != nil {
		h.log.Error("Account generation failed", "err", err)
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, GenerateResponse{
		Address: addr,
		Message: "Account generated and stored in enclave",
	})
}

// HandleAddresses lists all stored addresses.
//
// URL format: GET /api/v1/addresses
func (h *Handler) HandleAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.kms.ListAddresses(r.Context())
	if err != nil {
		h.log.Error("Address listing failed", "err", err)
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, AddressesResponse{Addresses: addrs, Count: len(addrs)})
}

// HandleSign signs a personal message with a stored key.
//
// URL format: POST /api/v1/sign
// Request body: {"address": "0x...", "message": "..."}
//
// The key is unsealed with the process secret only; no secret is
// accepted from the request. Unknown addresses map to 404, unsealing
// failures to 500.
func (h *Handler) HandleSign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "invalid request body", err))
		return
	}

	if req.Address == "" || req.Message == "" {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "address and message are required", nil))
		return
	}

	addr, err := interfaces.NewAddressFromHex(req.Address)
	if err != nil {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "invalid address", err))
		return
	}

	sig, err := h.kms.SignMessage(r.Context(), addr, []byte(req.Message))
	if err != nil {
		h.log.Error("Message signing failed", "err", err, "address", addr.String())
		metrics.SigningOperationsTotal.WithLabelValues("message", string(interfaces.KindOf(err))).Inc()
		h.writeError(w, err)
		return
	}

	metrics.SigningOperationsTotal.WithLabelValues("message", "ok").Inc()
	h.writeJSON(w, SignResponse{Address: addr, Signature: sig})
}

// HandleVerify checks a personal-message signature against a claimed
// address.
//
// URL format: POST /api/v1/verify
// Request body: {"address": "0x...", "message": "...", "signature": "0x..."}
//
// Verification is a predicate: a malformed signature yields
// {"valid": false}, not an error. Only missing fields or a malformed
// address are the caller's fault (400).
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "invalid request body", err))
		return
	}

	if req.Address == "" || req.Message == "" || req.Signature == "" {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "address, message and signature are required", nil))
		return
	}

	addr, err := interfaces.NewAddressFromHex(req.Address)
	if err != nil {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "invalid address", err))
		return
	}

	sigBytes, err := hexutil.Decode(req.Signature)
	if err != nil {
		// Malformed signature: verification fails, it doesn't error.
		h.writeJSON(w, VerifyResponse{Valid: false})
		return
	}

	valid := h.kms.VerifyMessage(r.Context(), addr, []byte(req.Message), sigBytes)
	h.writeJSON(w, VerifyResponse{Valid: valid})
}

// HandleSignTransaction signs an EIP-155 legacy transaction with a
// stored key.
//
// URL format: POST /api/v1/sign_transaction
//
// Response: the RLP-encoded signed transaction and its hash, both as
// 0x-prefixed hex.
func (h *Handler) HandleSignTransaction(w http.ResponseWriter, r *http.Request) {
	var req SignTransactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "invalid request body", err))
		return
	}

	if req.Address == "" {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "address is required", nil))
		return
	}

	addr, err := interfaces.NewAddressFromHex(req.Address)
	if err != nil {
		h.writeError(w, interfaces.E(interfaces.KindValidation, "invalid address", err))
		return
	}

	txReq, err := parseTransactionRequest(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	signed, err := h.kms.SignTransaction(r.Context(), addr, txReq)
	if err != nil {
		h.log.Error("Transaction signing failed", "err", err, "address", addr.String())
		metrics.SigningOperationsTotal.WithLabelValues("transaction", string(interfaces.KindOf(err))).Inc()
		h.writeError(w, err)
		return
	}

	metrics.SigningOperationsTotal.WithLabelValues("transaction", "ok").Inc()
	h.writeJSON(w, SignTransactionResponse{
		Address:        addr,
		RawTransaction: hexutil.Encode(signed.Raw),
		Hash:           hexutil.Encode(signed.Hash[:]),
	})
}

// parseTransactionRequest converts the wire form into the KMS contract
// form, validating the numeric fields.
func parseTransactionRequest(req *SignTransactionRequest) (*interfaces.TransactionRequest, error) {
	if req.ChainID == 0 {
		return nil, interfaces.E(interfaces.KindValidation, "chain_id is required", nil)
	}

	gasPrice, ok := new(big.Int).SetString(req.GasPrice, 10)
	if !ok || gasPrice.Sign() < 0 {
		return nil, interfaces.E(interfaces.KindValidation, "gas_price must be a non-negative decimal string", nil)
	}

	value, ok := new(big.Int).SetString(req.Value, 10)
	if !ok || value.Sign() < 0 {
		return nil, interfaces.E(interfaces.KindValidation, "value must be a non-negative decimal string", nil)
	}

	var to *interfaces.Address
	if req.To != "" {
		toAddr, err := interfaces.NewAddressFromHex(req.To)
		if err != nil {
			return nil, interfaces.E(interfaces.KindValidation, "invalid to address", err)
		}
		to = &toAddr
	}

	var data []byte
	if req.Data != "" {
		var err error
		data, err = hexutil.Decode(req.Data)
		if err != nil {
			return nil, interfaces.E(interfaces.KindValidation, "data must be 0x-prefixed hex", err)
		}
	}

	return &interfaces.TransactionRequest{
		Nonce:    req.Nonce,
		GasPrice: gasPrice,
		Gas:      req.Gas,
		To:       to,
		Value:    value,
		Data:     data,
		ChainID:  new(big.Int).SetUint64(req.ChainID),
	}, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError maps the error kind to a status code. Unclassified errors
// are internal failures.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := interfaces.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case interfaces.KindValidation:
		status = http.StatusBadRequest
	case interfaces.KindNotFound:
		status = http.StatusNotFound
	case interfaces.KindDecryption, interfaces.KindPersistence:
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Kind: kind})
}
