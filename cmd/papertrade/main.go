package main

import (
	"PaperTrade/internal/chain"
	"PaperTrade/internal/executor"
	"PaperTrade/internal/journal"
	"PaperTrade/internal/observability"
	"PaperTrade/internal/publish"
	"PaperTrade/internal/trading"
	"PaperTrade/internal/wallet"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration, loaded from environment
// variables so the same binary serves local validators and devnet.
type Config struct {
	ProgramID string

	RollupURL      string
	BaseURL        string
	Commitment     string
	KeystoreDir    string
	MetricsAddr    string
	ConfirmRetries int
	ConfirmDelay   time.Duration

	// Optional sinks; empty disables.
	PostgresDSN string
	NATSURL     string
}

func DefaultConfig() Config {
	return Config{
		ProgramID:      envOrDefault("PAPER_PROGRAM_ID", ""),
		RollupURL:      envOrDefault("PAPER_ROLLUP_RPC_URL", "https://rpc.magicblock.app/devnet"),
		BaseURL:        envOrDefault("PAPER_BASE_RPC_URL", "https://api.devnet.solana.com"),
		Commitment:     envOrDefault("PAPER_COMMITMENT", "confirmed"),
		KeystoreDir:    envOrDefault("PAPER_KEYSTORE_DIR", defaultKeystoreDir()),
		MetricsAddr:    envOrDefault("PAPER_METRICS_ADDR", ""),
		ConfirmRetries: envIntOrDefault("PAPER_CONFIRM_RETRIES", 30),
		ConfirmDelay:   time.Duration(envIntOrDefault("PAPER_CONFIRM_DELAY_MS", 1000)) * time.Millisecond,
		PostgresDSN:    envOrDefault("PAPER_POSTGRES_DSN", ""),
		NATSURL:        envOrDefault("PAPER_NATS_URL", ""),
	}
}

func defaultKeystoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.papertrade"
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: papertrade <command> [flags]

commands:
  init         -pair SOL -fee 0 -balance 1000    create the trading account
  status                                         account existence per pair
  account      -pair SOL                         trading account balances
  buy          -pair SOL -amount 1.5 -price 198.50
  sell         -pair SOL -amount 1.5 -price 198.50
  open         -pair SOL -dir long -size 500 -price 198.50 [-tp 210] [-sl 190]
  close        -pair SOL -id 0 -price 205.00
  close-addr   -address <pubkey> -price 205.00
  join                                           join the competition
  settle                                         settle the competition (authority only)
  positions                                      list own positions
  leaderboard  -pair SOL
  competition                                    competition metadata
  balance                                        wallet lamports on base chain
  fund         -lamports 1000000000              devnet airdrop`)
	os.Exit(2)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	cfg := DefaultConfig()
	if cfg.ProgramID == "" {
		log.Fatal("FATAL: PAPER_PROGRAM_ID is required")
	}
	program, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		log.Fatalf("FATAL: parse PAPER_PROGRAM_ID: %v", err)
	}

	ctx := context.Background()
	logger := observability.NewLogger("papertrade")

	local, err := wallet.LoadOrCreateLocal(cfg.KeystoreDir)
	if err != nil {
		log.Fatalf("FATAL: load keypair: %v", err)
	}
	signer, err := wallet.Select(nil, local)
	if err != nil {
		log.Fatalf("FATAL: select signer: %v", err)
	}

	commitment := rpc.CommitmentType(cfg.Commitment)
	rollup := chain.NewRPC(cfg.RollupURL, commitment)
	base := chain.NewRPC(cfg.BaseURL, commitment)

	metrics := observability.NewMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				log.Printf("WARN: metrics listener: %v", err)
			}
		}()
	}

	var jw *journal.Writer
	if cfg.PostgresDSN != "" {
		jw, err = journal.Open(cfg.PostgresDSN, logger)
		if err != nil {
			log.Fatalf("FATAL: open journal: %v", err)
		}
		defer jw.Close()
		if err := jw.EnsureSchema(ctx); err != nil {
			log.Fatalf("FATAL: journal schema: %v", err)
		}
	}

	var pub *publish.Publisher
	if cfg.NATSURL != "" {
		pub, err = publish.Connect(cfg.NATSURL, logger)
		if err != nil {
			log.Fatalf("FATAL: connect nats: %v", err)
		}
		if err := pub.EnsureStream(); err != nil {
			log.Fatalf("FATAL: ensure stream: %v", err)
		}
	}

	session := trading.NewSession(trading.Config{
		ProgramID:       program,
		Rollup:          rollup,
		Base:            base,
		Signer:          signer,
		ConfirmAttempts: cfg.ConfirmRetries,
		ConfirmDelay:    cfg.ConfirmDelay,
		Journal:         jw,
		Publisher:       pub,
		Metrics:         metrics,
		Log:             logger,
	})

	if err := run(ctx, session, cmd, args); err != nil {
		log.Fatalf("FATAL: %s: %v", cmd, err)
	}
}

func run(ctx context.Context, s *trading.Session, cmd string, args []string) error {
	switch cmd {
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		pair := fs.String("pair", "SOL", "trading pair symbol")
		fee := fs.String("fee", "0", "initialization fee, quote units")
		balance := fs.String("balance", "1000", "starting quote balance")
		fs.Parse(args)
		feeD, balD, err := parseTwoDecimals(*fee, *balance)
		if err != nil {
			return err
		}
		res, created, err := s.InitializeAccount(ctx, *pair, feeD, balD)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("account for %s already initialized\n", *pair)
			return nil
		}
		fmt.Printf("initialized %s account, signature %s\n", *pair, res.Signature)
		return nil

	case "status":
		status, err := s.AccountStatus(ctx)
		if err != nil {
			return err
		}
		for idx, ok := range status {
			fmt.Printf("pair %d: initialized=%v\n", idx, ok)
		}
		return nil

	case "account":
		fs := flag.NewFlagSet("account", flag.ExitOnError)
		pair := fs.String("pair", "SOL", "trading pair symbol")
		fs.Parse(args)
		acct, found, err := s.UserAccountData(ctx, *pair)
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("no account for %s\n", *pair)
			return nil
		}
		fmt.Printf("%s  quote=%s  base=%s  positions=%d  created=%s\n",
			acct.Address, acct.TokenInBalance, acct.TokenOutBalance,
			acct.TotalPositions, acct.CreatedAt.Format(time.RFC3339))
		return nil

	case "buy", "sell":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pair := fs.String("pair", "SOL", "trading pair symbol")
		amount := fs.String("amount", "", "base asset amount")
		price := fs.String("price", "", "quote price per unit")
		fs.Parse(args)
		amountD, priceD, err := parseTwoDecimals(*amount, *price)
		if err != nil {
			return err
		}
		var res *executor.Result
		if cmd == "buy" {
			res, err = s.BuySpot(ctx, *pair, amountD, priceD)
		} else {
			res, err = s.SellSpot(ctx, *pair, amountD, priceD)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s confirmed on %s, signature %s\n", cmd, res.Path, res.Signature)
		return nil

	case "open":
		fs := flag.NewFlagSet("open", flag.ExitOnError)
		pair := fs.String("pair", "SOL", "trading pair symbol")
		dir := fs.String("dir", "long", "long or short")
		size := fs.String("size", "", "quote margin")
		price := fs.String("price", "", "entry price")
		tp := fs.String("tp", "", "take profit price (optional)")
		sl := fs.String("sl", "", "stop loss price (optional)")
		fs.Parse(args)
		sizeD, priceD, err := parseTwoDecimals(*size, *price)
		if err != nil {
			return err
		}
		params := trading.OpenPositionParams{Pair: *pair, Price: priceD, Size: sizeD}
		if *dir == "short" {
			params.Direction = 1
		}
		if *tp != "" {
			d, err := decimal.NewFromString(*tp)
			if err != nil {
				return fmt.Errorf("parse -tp: %w", err)
			}
			params.TakeProfit = &d
		}
		if *sl != "" {
			d, err := decimal.NewFromString(*sl)
			if err != nil {
				return fmt.Errorf("parse -sl: %w", err)
			}
			params.StopLoss = &d
		}
		res, err := s.OpenPosition(ctx, params)
		if err != nil {
			return err
		}
		fmt.Printf("position opened on %s, signature %s\n", res.Path, res.Signature)
		return nil

	case "close":
		fs := flag.NewFlagSet("close", flag.ExitOnError)
		pair := fs.String("pair", "SOL", "trading pair symbol")
		id := fs.Uint64("id", 0, "position id")
		price := fs.String("price", "", "close price")
		fs.Parse(args)
		priceD, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("parse -price: %w", err)
		}
		res, err := s.ClosePosition(ctx, *pair, *id, priceD)
		if err != nil {
			return err
		}
		fmt.Printf("position closed, signature %s\n", res.Signature)
		return nil

	case "close-addr":
		fs := flag.NewFlagSet("close-addr", flag.ExitOnError)
		address := fs.String("address", "", "position account address")
		price := fs.String("price", "", "close price")
		fs.Parse(args)
		addr, err := solana.PublicKeyFromBase58(*address)
		if err != nil {
			return fmt.Errorf("parse -address: %w", err)
		}
		priceD, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("parse -price: %w", err)
		}
		res, err := s.CloseDirectPosition(ctx, addr, priceD)
		if err != nil {
			return err
		}
		fmt.Printf("position closed, signature %s\n", res.Signature)
		return nil

	case "join":
		res, err := s.JoinCompetition(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("joined competition, signature %s\n", res.Signature)
		return nil

	case "settle":
		res, err := s.SettleCompetition(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("competition settled, signature %s\n", res.Signature)
		return nil

	case "positions":
		positions, err := s.Positions(ctx)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			fmt.Println("no positions")
			return nil
		}
		for _, p := range positions {
			fmt.Printf("pair=%d id=%d %s amount=%s entry=%s status=%s\n",
				p.PairIndex, p.PositionID, p.Direction, p.Amount, p.EntryPrice, p.Status)
		}
		return nil

	case "leaderboard":
		fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
		pair := fs.String("pair", "SOL", "trading pair symbol")
		fs.Parse(args)
		entries, err := s.FetchLeaderboard(ctx, *pair)
		if err != nil {
			return err
		}
		for rank, e := range entries {
			fmt.Printf("%3d. %s  quote=%d  positions=%d\n", rank+1, e.Account, e.TokenInBalance, e.TotalPositions)
		}
		return nil

	case "competition":
		data, found, err := s.FetchCompetitionData(ctx)
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("no competition account")
			return nil
		}
		fmt.Printf("%q  active=%v  participants=%d  prize=%s  %s .. %s\n",
			data.Name, data.IsActive, data.TotalParticipants, data.PrizePool,
			data.StartTime.Format(time.RFC3339), data.EndTime.Format(time.RFC3339))
		return nil

	case "balance":
		lamports, err := s.Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d lamports\n", lamports)
		return nil

	case "fund":
		fs := flag.NewFlagSet("fund", flag.ExitOnError)
		lamports := fs.Uint64("lamports", 1_000_000_000, "airdrop amount")
		fs.Parse(args)
		return s.FundAccount(ctx, *lamports)

	default:
		usage()
		return nil
	}
}

func parseTwoDecimals(a, b string) (decimal.Decimal, decimal.Decimal, error) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("parse %q: %w", a, err)
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("parse %q: %w", b, err)
	}
	return da, db, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
