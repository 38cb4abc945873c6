package upload

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/currency"
	"github.com/lotterynft/lottery-client/pkg/metrics"
)

const (
	quoterMetricsName = "upload.quoter"

	winstonPerAr     = 1e12
	lamportsPerSol   = 1e9
	maxPriceBodySize = 64
)

// Quoter prices storage of files in lamports.
type Quoter struct {
	conf       *conf
	httpClient *http.Client
	rates      currency.Client
}

func NewQuoter(configProvider ConfigProvider, rates currency.Client) *Quoter {
	return &Quoter{
		conf: configProvider(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		rates: rates,
	}
}

// CostToStore returns the lamports to pay for storing files: one
// transaction fee per file plus the byte cost of all files, converted from
// AR to SOL at the current rate.
func (q *Quoter) CostToStore(ctx context.Context, files []File) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, quoterMetricsName, "CostToStore")
	defer tracer.End()

	lamports, err := q.costToStore(ctx, files)
	if err != nil {
		tracer.OnError(err)
	}
	return lamports, err
}

func (q *Quoter) costToStore(ctx context.Context, files []File) (uint64, error) {
	if len(files) == 0 {
		return 0, nil
	}

	txnFee, err := q.winstonPrice(ctx, 0)
	if err != nil {
		return 0, err
	}
	byteCost, err := q.winstonPrice(ctx, totalSize(files))
	if err != nil {
		return 0, err
	}

	arPerSol, err := currency.CrossRate(ctx, q.rates, currency.Arweave, currency.Solana)
	if err != nil {
		return 0, err
	}

	totalWinston := txnFee*float64(len(files)) + byteCost
	return uint64(math.Ceil(totalWinston * arPerSol / (winstonPerAr / lamportsPerSol))), nil
}

func (q *Quoter) winstonPrice(ctx context.Context, size uint64) (float64, error) {
	endpoint := q.conf.priceEndpoint.Get(ctx)
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+strconv.FormatUint(size, 10), http.NoBody)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "failed to make request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPriceBodySize))
	if err != nil {
		return 0, errors.Wrap(err, "failed to read price")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid price %q", body)
	}
	return price, nil
}
