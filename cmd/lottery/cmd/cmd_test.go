package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotterynft/lottery-client/pkg/app"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/testutil"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

func TestKeygen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"keygen", path})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	account, err := wallet.LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, account.String(), strings.TrimSpace(out.String()))

	rootCmd.SetArgs([]string{"keygen", path})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}

func TestDeadline(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	defer func() {
		lotteryEndAt = ""
		lotteryDuration = 0
	}()

	endAt, err := deadline(now)
	require.NoError(t, err)
	assert.True(t, endAt.IsZero())

	lotteryDuration = time.Hour
	endAt, err = deadline(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), endAt)

	lotteryEndAt = "2030-01-02T03:04:05Z"
	_, err = deadline(now)
	assert.Error(t, err)

	lotteryDuration = 0
	endAt, err = deadline(now)
	require.NoError(t, err)
	assert.EqualValues(t, 1893553445, endAt.Unix())

	lotteryEndAt = "tomorrow"
	_, err = deadline(now)
	assert.Error(t, err)
}

type cliEnv struct {
	config string
	node   *testutil.Node
	sim    *testutil.Programs
	owner  *wallet.Account
}

// setupCli points the commands at an in-memory node running the store and
// lottery programs.
func setupCli(t *testing.T) *cliEnv {
	dir := t.TempDir()
	keys := testutil.GenerateSolanaKeys(t, 2)

	owner := testutil.NewRandomAccount(t)
	keypair := filepath.Join(dir, "id.json")
	require.NoError(t, owner.WriteKeypairFile(keypair))

	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte(
		"store_program: "+base58.Encode(keys[0])+"\n"+
			"lottery_program: "+base58.Encode(keys[1])+"\n"+
			"keypair: "+keypair+"\n",
	), 0600))

	sim := &testutil.Programs{Store: keys[0], Lottery: keys[1], Now: uint64(time.Now().Unix())}
	node := testutil.NewNode()
	node.Execute = sim.Execute

	initEnv = func(config app.BaseConfig) (*app.Env, error) {
		return app.NewEnv(config, node)
	}
	t.Cleanup(func() {
		initEnv = app.Init
		configPath = "config.yaml"
		lotteryDuration = 0
		lotteryEndAt = ""
		ticketOwner = ""
		ticketLottery = ""
		lotteryStore = ""
	})

	return &cliEnv{config: config, node: node, sim: sim, owner: owner}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", e.config))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

// field returns the value of the first output line labelled name.
func field(t *testing.T, out, name string) string {
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, name+":") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, name+":"))
		}
	}
	require.Failf(t, "missing output field", "%s in %q", name, out)
	return ""
}

func TestStoreAndLotteryCommands(t *testing.T) {
	env := setupCli(t)

	out := env.mustRun(t, "store", "create")
	assert.Equal(t, "confirmed after 1 attempt(s)", field(t, out, "Outcome"))
	store := field(t, out, "Store")
	assert.Equal(t, env.owner.String(), field(t, out, "Owner"))
	assert.Equal(t, "0", field(t, out, "NFTs"))

	out = env.mustRun(t, "store", "show", store)
	assert.Equal(t, store, field(t, out, "Store"))

	out = env.mustRun(t, "lottery", "create", store, "--price", "1000", "--tickets", "2", "--prizes", "0", "--duration", "1h")
	lotteryAddress := field(t, out, "Lottery")
	assert.Equal(t, store, field(t, out, "Store"))
	assert.Equal(t, "created", field(t, out, "State"))

	expected, err := lottery.GetLotteryAddress(env.sim.Lottery, base58Decode(t, store))
	require.NoError(t, err)
	assert.Equal(t, expected.String(), lotteryAddress)

	_, err = env.run(t, "lottery", "create", store, "--price", "1000", "--tickets", "2", "--prizes", "0")
	assert.Error(t, err)

	env.mustRun(t, "lottery", "start", store)

	out = env.mustRun(t, "lottery", "show", lotteryAddress)
	assert.Equal(t, "started", field(t, out, "State"))
	assert.Equal(t, "0/2 sold at 1000", field(t, out, "Tickets"))
	assert.Contains(t, field(t, out, "Ends"), "left")

	out = env.mustRun(t, "lottery", "list", "--store", store)
	assert.Equal(t, lotteryAddress, field(t, out, "Lottery"))
}

func TestTicketCommands(t *testing.T) {
	env := setupCli(t)

	store := field(t, env.mustRun(t, "store", "create"), "Store")
	out := env.mustRun(t, "lottery", "create", store, "--price", "1000", "--tickets", "1", "--prizes", "0")
	lotteryAddress := field(t, out, "Lottery")
	env.mustRun(t, "lottery", "start", store)

	out = env.mustRun(t, "ticket", "buy", lotteryAddress)
	ticket := field(t, out, "Ticket")
	assert.Equal(t, lotteryAddress, field(t, out, "Lottery"))

	// Sold out
	_, err := env.run(t, "ticket", "buy", lotteryAddress)
	assert.Error(t, err)

	out = env.mustRun(t, "ticket", "list")
	assert.Equal(t, ticket, field(t, out, "Ticket"))
	assert.Equal(t, "not_won", field(t, out, "State"))

	authority, err := lottery.GetTicketAuthorityAddress(env.sim.Lottery, base58Decode(t, ticket))
	require.NoError(t, err)
	assert.Equal(t, authority.String(), field(t, out, "Authority"))

	payment, err := lottery.GetTokenAuthorityAddress(env.sim.Lottery, base58Decode(t, lotteryAddress), env.owner.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, payment.String(), field(t, out, "Payment"))

	out = env.mustRun(t, "ticket", "claim-token", ticket)
	assert.Equal(t, "claimed", field(t, out, "State"))

	_, err = env.run(t, "ticket", "claim-token", ticket)
	assert.Error(t, err)

	out = env.mustRun(t, "ticket", "list", "--owner", testutil.NewRandomAccount(t).String())
	assert.Empty(t, out)
}

func base58Decode(t *testing.T, value string) []byte {
	decoded, err := app.ParsePublicKey(value)
	require.NoError(t, err)
	return decoded
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, "over", remaining(lottery.Countdown{}))
	assert.Equal(t, "1d 02:03:04 left", remaining(lottery.Countdown{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}))
}
