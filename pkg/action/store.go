package action

import (
	"context"
	"crypto/ed25519"
	"encoding/json"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/solana/lotterystore"
	"github.com/lotterynft/lottery-client/pkg/solana/memo"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
	"github.com/lotterynft/lottery-client/pkg/submission"
	"github.com/lotterynft/lottery-client/pkg/upload"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

type MakeStoreResult struct {
	Submission *submission.Result
	Store      ed25519.PublicKey
	Record     *lotterystore.StoreAccount
}

// MakeStore creates a store owned by owner.
func (c *Client) MakeStore(ctx context.Context, owner wallet.Wallet) (*MakeStoreResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeStore")
	defer tracer.End()

	res, err := c.makeStore(ctx, owner)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) makeStore(ctx context.Context, owner wallet.Wallet) (*MakeStoreResult, error) {
	program := c.programs().Store

	store, err := wallet.NewRandomAccount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate store account")
	}
	authority, err := lotterystore.GetStoreAuthorityAddress(program, store.PublicKey())
	if err != nil {
		return nil, err
	}

	instruction, err := lotterystore.NewCreateStoreInstruction(
		program,
		&lotterystore.CreateStoreInstructionAccounts{
			Creator:   owner.PublicKey(),
			Store:     store.PublicKey(),
			Authority: authority.Address,
		},
		&lotterystore.CreateStoreInstructionArgs{Bump: authority.Bump},
	)
	if err != nil {
		return nil, err
	}

	log := c.log.WithFields(logrus.Fields{
		"method": "MakeStore",
		"store":  base58.Encode(store.PublicKey()),
	})

	b := submission.NewBuilder(owner).Add(instruction).AddSigner(store)
	sub, err := c.submitter.Execute(ctx, b)
	res := &MakeStoreResult{Submission: sub, Store: store.PublicKey()}
	if err != nil {
		return res, err
	}

	res.Record, err = c.data.GetStore(ctx, store.PublicKey())
	if err != nil {
		log.WithError(err).Warn("created store is not yet readable")
		return res, nil
	}
	log.Info("store created")
	return res, nil
}

type MintNftArgs struct {
	Name   string
	Symbol string
	// Uri is recorded until the upload completes.
	Uri string
}

type MintNftResult struct {
	Submission *submission.Result
	NftMeta    ed25519.PublicKey
	Mint       ed25519.PublicKey
	TokenPool  ed25519.PublicKey

	// Upload is nil when the upload was not attempted.
	Upload *upload.Result
	// Update is the submission that pointed the NFT at its manifest. It is
	// nil when no manifest was stored.
	Update *submission.Result
	Record *data.NftMeta
}

// MintNft mints a single token NFT into the store's lottery pool and
// uploads its assets. The first unit pays for storage, creates the mint and
// registers the NFT with the store. Once the assets are stored, a second
// unit updates the NFT's uri to the stored manifest.
//
// A failed upload leaves the NFT registered with args.Uri. The error is
// returned along with the result.
func (c *Client) MintNft(ctx context.Context, creator wallet.Wallet, store ed25519.PublicKey, args *MintNftArgs, files []upload.File) (*MintNftResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MintNft")
	defer tracer.End()

	res, err := c.mintNft(ctx, creator, store, args, files)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) mintNft(ctx context.Context, creator wallet.Wallet, store ed25519.PublicKey, args *MintNftArgs, files []upload.File) (*MintNftResult, error) {
	if c.uploader == nil || c.quoter == nil {
		return nil, ErrStorageUnavailable
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	programs := c.programs()
	owner := creator.PublicKey()

	mintArgs := &lotterystore.MintNftInstructionArgs{
		Name:   args.Name,
		Symbol: args.Symbol,
		Uri:    args.Uri,
	}
	if err := mintArgs.Validate(); err != nil {
		return nil, err
	}

	if _, err := c.data.GetStore(ctx, store); err != nil {
		return nil, err
	}
	authority, err := lotterystore.GetStoreAuthorityAddress(programs.Store, store)
	if err != nil {
		return nil, err
	}
	pool, err := lottery.GetLotteryAddress(programs.Lottery, store)
	if err != nil {
		return nil, err
	}

	allFiles, err := c.withMetadataFile(ctx, args, files)
	if err != nil {
		return nil, err
	}

	b := submission.NewBuilder(creator)
	if err := c.addStoragePayment(ctx, b, owner, allFiles); err != nil {
		return nil, err
	}

	mintRent, err := c.data.GetBlockchainMinimumBalanceForRentExemption(ctx, token.MintSize)
	if err != nil {
		return nil, err
	}
	mint, err := wallet.NewRandomAccount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mint")
	}
	nftMeta, err := wallet.NewRandomAccount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate nft meta account")
	}
	metaSigner, err := lotterystore.GetNftMetaSignerAddress(programs.Store, nftMeta.PublicKey())
	if err != nil {
		return nil, err
	}
	mintArgs.Bump = metaSigner.Bump

	b.AddSetup(
		system.CreateAccount(owner, mint.PublicKey(), token.ProgramKey, mintRent, token.MintSize),
		token.InitializeMint(mint.PublicKey(), owner, owner, 0),
	).AddSigner(mint)

	// The lottery holds the NFT until a winning ticket claims it.
	tokenPool, err := c.addTokenAccount(ctx, b, owner, mint.PublicKey(), pool.Address, 0)
	if err != nil {
		return nil, err
	}

	register, err := lotterystore.NewMintNftInstruction(
		programs.Store,
		&lotterystore.MintNftInstructionAccounts{
			Creator:   owner,
			NftMeta:   nftMeta.PublicKey(),
			Authority: authority.Address,
			Store:     store,
			Mint:      mint.PublicKey(),
			TokenPool: tokenPool.PublicKey(),
		},
		mintArgs,
	)
	if err != nil {
		return nil, err
	}

	b.Add(
		token.MintTo(mint.PublicKey(), tokenPool.PublicKey(), owner, 1),
		token.SetAuthority(mint.PublicKey(), owner, nil, token.AuthorityTypeMintTokens),
		register,
	).AddSigner(nftMeta)

	log := c.log.WithFields(logrus.Fields{
		"method":   "MintNft",
		"store":    base58.Encode(store),
		"nft_meta": base58.Encode(nftMeta.PublicKey()),
		"mint":     base58.Encode(mint.PublicKey()),
	})

	sub, err := c.submitter.Execute(ctx, b)
	res := &MintNftResult{
		Submission: sub,
		NftMeta:    nftMeta.PublicKey(),
		Mint:       mint.PublicKey(),
		TokenPool:  tokenPool.PublicKey(),
	}
	if err != nil {
		return res, err
	}
	log.Info("nft minted")

	res.Upload, err = c.uploader.Upload(ctx, base58.Encode(sub.Signature[:]), nftMeta.PublicKey(), allFiles)
	if err != nil {
		log.WithError(err).Warn("failed to upload nft assets")
		return res, errors.Wrap(err, "nft minted but assets were not uploaded")
	}

	if manifest, ok := res.Upload.Manifest(); ok {
		mintArgs.Uri = c.uploader.URI(ctx, manifest.TransactionId)
		update, err := lotterystore.NewUpdateMintInstruction(
			programs.Store,
			&lotterystore.UpdateMintInstructionAccounts{
				Payer:   owner,
				NftMeta: nftMeta.PublicKey(),
			},
			mintArgs,
		)
		if err != nil {
			return res, err
		}

		res.Update, err = c.submitter.Execute(ctx, submission.NewBuilder(creator).Add(update))
		if err != nil {
			return res, err
		}
		log.WithField("uri", mintArgs.Uri).Info("nft uri updated")
	} else {
		log.Warn("manifest was not stored, keeping original uri")
	}

	res.Record, err = c.data.GetNftMeta(ctx, nftMeta.PublicKey())
	if err != nil {
		log.WithError(err).Warn("minted nft is not yet readable")
	}
	return res, nil
}

type nftMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  string `json:"image"`
}

// withMetadataFile appends the generated metadata document. The first file
// is the NFT's image.
func (c *Client) withMetadataFile(ctx context.Context, args *MintNftArgs, files []upload.File) ([]upload.File, error) {
	encoded, err := json.Marshal(nftMetadata{
		Name:   args.Name,
		Symbol: args.Symbol,
		Image:  files[0].Name,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode metadata")
	}

	all := make([]upload.File, 0, len(files)+1)
	all = append(all, files...)
	return append(all, upload.File{
		Name: c.conf.metadataFileName.Get(ctx),
		Data: encoded,
	}), nil
}

// addStoragePayment stages the transfer that pays for storing files, with a
// memo of each file's hash as the receipt the upload function verifies.
func (c *Client) addStoragePayment(ctx context.Context, b *submission.Builder, payer ed25519.PublicKey, files []upload.File) error {
	payee, err := base58.Decode(c.conf.storagePayee.Get(ctx))
	if err != nil || len(payee) != ed25519.PublicKeySize {
		return errors.Errorf("invalid storage payee %q", c.conf.storagePayee.Get(ctx))
	}

	cost, err := c.quoter.CostToStore(ctx, files)
	if err != nil {
		return errors.Wrap(err, "failed to quote storage")
	}

	b.AddSetup(system.Transfer(payer, payee, cost))
	for _, f := range files {
		b.AddSetup(memo.Instruction(f.Hash()))
	}
	return nil
}
