package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureStatus_Reached(t *testing.T) {
	zero, one := 0, 1

	for _, tc := range []struct {
		name      string
		status    SignatureStatus
		confirmed bool
		finalized bool
	}{
		{name: "unconfirmed", status: SignatureStatus{Confirmations: &zero}},
		{name: "unknown status", status: SignatureStatus{Confirmations: &zero, ConfirmationStatus: "random"}},
		{name: "processed", status: SignatureStatus{Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed}},
		{name: "one confirmation", status: SignatureStatus{Confirmations: &one}, confirmed: true},
		{name: "confirmed", status: SignatureStatus{Confirmations: &zero, ConfirmationStatus: confirmationStatusConfirmed}, confirmed: true},
		{name: "finalized", status: SignatureStatus{Confirmations: &zero, ConfirmationStatus: confirmationStatusFinalized}, confirmed: true, finalized: true},
		{name: "rooted", status: SignatureStatus{}, confirmed: true, finalized: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.status.Reached(CommitmentProcessed))
			assert.Equal(t, tc.confirmed, tc.status.Reached(CommitmentConfirmed))
			assert.Equal(t, tc.finalized, tc.status.Reached(CommitmentFinalized))
		})
	}
}

func TestCommitmentFromString(t *testing.T) {
	for name, expected := range map[string]Commitment{
		"processed": CommitmentProcessed,
		"confirmed": CommitmentConfirmed,
		"finalized": CommitmentFinalized,
	} {
		actual, err := CommitmentFromString(name)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	_, err := CommitmentFromString("max")
	assert.Error(t, err)
}

func TestAccountFilter_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]AccountFilter{
		DataSizeFilter(184),
		MemcmpAt(32, []byte{1, 2, 3}),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"dataSize":184},{"memcmp":{"offset":32,"bytes":"Ldp"}}]`, string(b))

	_, err = json.Marshal(AccountFilter{})
	assert.Error(t, err)
}

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	Id     int               `json:"id"`
}

// newRPCServer answers each request with the result returned by handle.
func newRPCServer(t *testing.T, handle func(req rpcRequest) interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"result":  handle(req),
		}))
	}))
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner := make([]byte, 32)
	owner[0] = 7
	data := []byte{1, 2, 3, 4}
	known := base58.Encode(make([]byte, 32))

	server := newRPCServer(t, func(req rpcRequest) interface{} {
		assert.Equal(t, "getAccountInfo", req.Method)
		if !assert.Len(t, req.Params, 2) {
			return nil
		}

		var config accountConfig
		assert.NoError(t, json.Unmarshal(req.Params[1], &config))
		assert.Equal(t, "base64", config.Encoding)
		assert.Equal(t, "confirmed", config.Commitment)

		var address string
		assert.NoError(t, json.Unmarshal(req.Params[0], &address))
		if address != known {
			return map[string]interface{}{"value": nil}
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports": 1_000,
				"owner":    base58.Encode(owner),
				"data":     []string{base64.StdEncoding.EncodeToString(data), "base64"},
			},
		}
	})
	defer server.Close()

	sc := New(server.URL)

	info, err := sc.GetAccountInfo(context.Background(), make([]byte, 32), CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, info.Lamports)
	assert.EqualValues(t, owner, info.Owner)
	assert.Equal(t, data, info.Data)

	missing := make([]byte, 32)
	missing[31] = 1
	_, err = sc.GetAccountInfo(context.Background(), missing, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetProgramAccounts(t *testing.T) {
	program := make([]byte, 32)
	program[0] = 9
	address := make([]byte, 32)
	address[0] = 3

	server := newRPCServer(t, func(req rpcRequest) interface{} {
		assert.Equal(t, "getProgramAccounts", req.Method)
		if !assert.Len(t, req.Params, 2) {
			return nil
		}
		assert.JSONEq(t, `{"commitment":"finalized","encoding":"base64","filters":[{"dataSize":80}]}`, string(req.Params[1]))

		return []interface{}{
			map[string]interface{}{
				"pubkey": base58.Encode(address),
				"account": map[string]interface{}{
					"lamports": 5,
					"owner":    base58.Encode(program),
					"data":     []string{base64.StdEncoding.EncodeToString([]byte{42}), "base64"},
				},
			},
		}
	})
	defer server.Close()

	accounts, err := New(server.URL).GetProgramAccounts(context.Background(), program, CommitmentFinalized, DataSizeFilter(80))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.EqualValues(t, address, accounts[0].PublicKey)
	assert.EqualValues(t, program, accounts[0].Account.Owner)
	assert.Equal(t, []byte{42}, accounts[0].Account.Data)
}
