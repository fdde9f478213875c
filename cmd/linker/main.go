package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/dataapi"
	"github.com/betbot/polyrouter/pkg/config"
	"github.com/betbot/polyrouter/pkg/credstore"
	"github.com/betbot/polyrouter/pkg/logger"
	"github.com/betbot/polyrouter/router"
	"github.com/betbot/polyrouter/wallet"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "config yaml path (optional, env vars also work)")
		userID     = flag.String("user", "", "user id to link (default: random uuid)")
		walletType = flag.String("wallet-type", "direct", "wallet type: direct or smart")
		autoDeploy = flag.Bool("auto-deploy", false, "deploy the smart wallet if missing")
		checkOnly  = flag.Bool("check-only", false, "only report allowance state, never send transactions")

		orderToken = flag.String("order-token", "", "optionally place an order: token id")
		orderSide  = flag.String("order-side", "BUY", "order side: BUY or SELL")
		orderSize  = flag.String("order-size", "", "order size (outcome tokens)")
		orderPrice = flag.String("order-price", "", "order price in (0,1)")
		orderType  = flag.String("order-type", "GTC", "order type: GTC, GTD, FOK, FAK")
	)
	flag.Parse()

	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		fatal(err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
	}); err != nil {
		fatal(err)
	}
	log := logger.Get()

	uid := strings.TrimSpace(*userID)
	if uid == "" {
		uid = uuid.NewString()
		log.Infof("no -user given, using generated id %s", uid)
	}

	signer, err := buildSigner(cfg)
	if err != nil {
		fatal(err)
	}
	log.Infof("signer address: %s", signer.Address().Hex())

	backend, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		fatal(fmt.Errorf("dial rpc %s: %w", cfg.Chain.RPCURL, err))
	}
	defer backend.Close()

	var persist *credstore.Store
	if cfg.Store.Path != "" {
		key, err := credstore.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			fatal(err)
		}
		persist, err = credstore.Open(credstore.OpenOptions{
			Path:          cfg.Store.Path,
			EncryptionKey: key,
		})
		if err != nil {
			fatal(err)
		}
		defer persist.Close()
	}

	rt, err := router.New(router.Options{
		Host:    cfg.ClobHost,
		Chain:   types.Chain(cfg.Chain.ChainID),
		Backend: backend,
		Persist: persist,
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wt := router.WalletType(*walletType)
	autoApprove := cfg.AutoApprove && !*checkOnly && !cfg.DryRun

	result, err := rt.LinkUser(ctx, router.LinkParams{
		UserID:            uid,
		Signer:            signer,
		WalletType:        wt,
		TxSigner:          signer,
		AutoDeploy:        *autoDeploy && !*checkOnly && !cfg.DryRun,
		AutoSetAllowances: autoApprove,
		OnProgress: func(step string, current, total int) {
			log.Infof("allowance %d/%d: %s", current, total, step)
		},
	})
	if err != nil {
		fatal(err)
	}

	printLink(result)

	// best effort: show the funding wallet's current position value
	data := dataapi.NewClient(cfg.DataAPIHost)
	valueCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if value, err := data.GetWalletValue(valueCtx, result.Link.FundingAddress().Hex()); err == nil {
		log.Infof("wallet position value: %.2f USDC", value.Value)
	}
	cancel()

	if *orderToken == "" {
		return
	}
	if cfg.DryRun {
		log.Info("dry run: skipping order placement")
		return
	}

	size, err := decimal.NewFromString(*orderSize)
	if err != nil {
		fatal(fmt.Errorf("invalid -order-size %q: %w", *orderSize, err))
	}
	price, err := decimal.NewFromString(*orderPrice)
	if err != nil {
		fatal(fmt.Errorf("invalid -order-price %q: %w", *orderPrice, err))
	}

	orderResult, err := rt.PlaceOrder(ctx, uid, &router.OrderRequest{
		TokenID:   *orderToken,
		Side:      types.Side(strings.ToUpper(*orderSide)),
		Size:      size,
		Price:     price,
		OrderType: types.OrderType(strings.ToUpper(*orderType)),
		Funder:    result.Link.FundingAddress(),
	}, result.Link, signer)
	if err != nil {
		fatal(err)
	}

	log.Infof("order %s: status=%s filled=%s attempts=%d",
		orderResult.OrderID, orderResult.Status, orderResult.FilledSize.String(), orderResult.Attempts)
}

// buildSigner prefers the explicit private key; otherwise derives it from
// the configured mnemonic.
func buildSigner(cfg *config.Config) (*wallet.PrivateKeySigner, error) {
	if cfg.Wallet.PrivateKey != "" {
		return wallet.NewPrivateKeySignerFromHex(cfg.Wallet.PrivateKey)
	}
	return wallet.NewPrivateKeySignerFromMnemonic(cfg.Wallet.Mnemonic, wallet.DefaultDerivationPath)
}

func printLink(result *router.LinkResult) {
	fmt.Printf("linked: %s\n", result.Link)
	fmt.Printf("credentials: key=%s issued=%s\n", result.Creds.Key, result.Creds.IssuedAt.Format(time.RFC3339))
	if result.Deployed {
		fmt.Println("smart wallet deployed in this run")
	}
	if result.Allowances == nil {
		fmt.Println("allowances: not checked (smart wallet not deployed)")
		return
	}
	for _, p := range result.Allowances.Pairs {
		mark := "MISSING"
		if p.Approved {
			mark = "ok"
		}
		fmt.Printf("  allowance %-32s %s\n", p.Pair.Name, mark)
	}
	fmt.Printf("all allowances set: %v\n", result.Allowances.AllSet)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
