// Package action composes instruction builders into the user facing flows of
// the store and lottery programs. Every flow builds one or more submission
// units, submits them and re-reads the accounts it touched.
package action

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/submission"
	"github.com/lotterynft/lottery-client/pkg/upload"
)

const (
	metricsStructName = "action.client"
)

var (
	ErrLotteryExists       = errors.New("store already has a lottery")
	ErrLotteryNotStartable = errors.New("lottery cannot be started")
	ErrLotteryEnded        = errors.New("lottery has ended")
	ErrLotteryClosed       = errors.New("lottery is not selling tickets")
	ErrNotTicketOwner      = errors.New("ticket is owned by another wallet")
	ErrNoPrize             = errors.New("ticket did not win an nft")
	ErrStorageUnavailable  = errors.New("storage is not configured")
	ErrNoFiles             = errors.New("no files to upload")
)

// Uploader stores NFT assets, tagged with the NFT they belong to.
type Uploader interface {
	Upload(ctx context.Context, payment string, mint ed25519.PublicKey, files []upload.File) (*upload.Result, error)
	URI(ctx context.Context, transactionId string) string
}

// Quoter prices the storage of files in lamports.
type Quoter interface {
	CostToStore(ctx context.Context, files []upload.File) (uint64, error)
}

type Client struct {
	log       *logrus.Entry
	conf      *conf
	data      *data.BlockchainProvider
	submitter *submission.Submitter

	uploader Uploader
	quoter   Quoter

	now func() time.Time
}

func NewClient(dp *data.BlockchainProvider, submitter *submission.Submitter, configProvider ConfigProvider) *Client {
	return &Client{
		log:       logrus.StandardLogger().WithField("type", "action/client"),
		conf:      configProvider(),
		data:      dp,
		submitter: submitter,
		now:       time.Now,
	}
}

// WithStorage enables MintNft, which uploads assets before registering them.
func (c *Client) WithStorage(uploader Uploader, quoter Quoter) *Client {
	c.uploader = uploader
	c.quoter = quoter
	return c
}

func (c *Client) programs() data.Programs {
	return c.data.Programs()
}
