package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotterynft/lottery-client/pkg/currency"
	"github.com/lotterynft/lottery-client/pkg/testutil"
)

type staticRates map[string]float64

func (r staticRates) GetCurrentRates(_ context.Context, base string) (*currency.ExchangeData, error) {
	usd, ok := r[base]
	if !ok {
		return nil, currency.ErrInvalidBase
	}
	return &currency.ExchangeData{Base: base, Rates: map[string]float64{currency.USD: usd}}, nil
}

func TestFile_Hash(t *testing.T) {
	f := File{Name: "a.txt", Data: []byte("abc")}
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", f.Hash())
}

func TestCostToStore(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := strings.TrimPrefix(r.URL.Path, "/price/")
		requested = append(requested, size)
		switch size {
		case "0":
			fmt.Fprint(w, "1000000000")
		case "30":
			fmt.Fprint(w, "3000000000")
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	quoter := NewQuoter(
		WithEndpoints(server.URL, server.URL+"/price", server.URL),
		staticRates{currency.Arweave: 30, currency.Solana: 150},
	)

	files := []File{
		{Name: "0.png", Data: make([]byte, 20)},
		{Name: ManifestFileName, Data: make([]byte, 10)},
	}

	// (2 * 1e9 + 3e9) winston = 0.005 AR = 0.001 SOL
	lamports, err := quoter.CostToStore(context.Background(), files)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, lamports)
	assert.Equal(t, []string{"0", "30"}, requested)

	lamports, err = quoter.CostToStore(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, lamports)
}

func TestCostToStore_MissingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "10")
	}))
	defer server.Close()

	quoter := NewQuoter(WithEndpoints(server.URL, server.URL, server.URL), staticRates{currency.Solana: 150})

	_, err := quoter.CostToStore(context.Background(), []File{{Name: "0.png", Data: []byte{1}}})
	assert.ErrorIs(t, err, currency.ErrInvalidBase)
}

func TestUpload(t *testing.T) {
	mint := testutil.GenerateSolanaKeys(t, 1)[0]

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get(requestIdHeader))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "payment-sig", r.FormValue("transaction"))

		var tags map[string][]Tag
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("tags")), &tags))
		require.Len(t, tags, 2)
		for _, name := range []string{"0.png", ManifestFileName} {
			assert.Equal(t, []Tag{{Name: "mint", Value: base58.Encode(mint)}}, tags[name])
		}

		parts := r.MultipartForm.File["file[]"]
		require.Len(t, parts, 2)
		f, err := parts[1].Open()
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"n"}`, string(data))

		json.NewEncoder(w).Encode(Result{
			Messages: []Message{
				{Filename: "0.png", Status: "success", TransactionId: "image-txid"},
				{Filename: ManifestFileName, Status: "success", TransactionId: "manifest-txid"},
			},
		})
	}))
	defer server.Close()

	uploader := NewUploader(WithEndpoints(server.URL, server.URL, "https://gateway.test"))

	result, err := uploader.Upload(context.Background(), "payment-sig", mint, []File{
		{Name: "0.png", Data: []byte{1, 2, 3}},
		{Name: ManifestFileName, Data: []byte(`{"name":"n"}`)},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Failed())

	manifest, ok := result.Manifest()
	require.True(t, ok)
	assert.Equal(t, "manifest-txid", manifest.TransactionId)
	assert.Equal(t, "https://gateway.test/manifest-txid", uploader.URI(context.Background(), manifest.TransactionId))
}

func TestUpload_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{
			Messages: []Message{{Filename: ManifestFileName, Status: "error", Error: "unpaid"}},
		})
	}))
	defer server.Close()

	uploader := NewUploader(WithEndpoints(server.URL, server.URL, server.URL))

	result, err := uploader.Upload(context.Background(), "sig", testutil.GenerateSolanaKeys(t, 1)[0], []File{
		{Name: ManifestFileName, Data: []byte("{}")},
	})
	require.NoError(t, err)
	_, ok := result.Manifest()
	assert.False(t, ok)
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, "unpaid", result.Failed()[0].Error)

	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"bad transaction"}`)
	}))
	defer server2.Close()

	uploader = NewUploader(WithEndpoints(server2.URL, server2.URL, server2.URL))
	_, err = uploader.Upload(context.Background(), "sig", testutil.GenerateSolanaKeys(t, 1)[0], nil)
	assert.Error(t, err)
}
