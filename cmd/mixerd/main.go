package main

import (
	"context"
	"errors"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/mixer-z-sandbox/log"
	"github.com/vocdoni/mixer-z-sandbox/mixer"
	"github.com/vocdoni/mixer-z-sandbox/service"
	"github.com/vocdoni/mixer-z-sandbox/types"
	"github.com/vocdoni/mixer-z-sandbox/verifier"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	dataDir := flag.String("dataDir", "./mixerd-data", "data directory for the pool database")
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.Int("port", 8080, "API port to bind")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")

	depth := flag.Int("depth", types.DefaultTreeLevels, "merkle tree depth (only used on first run)")
	denomination := flag.String("denomination", "1000000000000000000", "fixed pool denomination (only used on first run)")
	rootHistorySize := flag.Int("rootHistorySize", types.DefaultRootHistorySize, "number of historical roots to retain (only used on first run)")
	relayer := flag.String("relayer", "", "relayer address receiving withdrawal fees (only used on first run)")
	hashFunction := flag.String("hashFunction", types.HashPoseidon, "accumulator hash function: poseidon or mimc (only used on first run)")

	vkFile := flag.String("vkey", "", "path to the snarkjs groth16 verification key JSON")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)

	vkJSON, err := os.ReadFile(*vkFile)
	if err != nil {
		log.Fatalf("cannot read verification key %q: %v", *vkFile, err)
	}
	v, err := verifier.NewCircomVerifier(vkJSON)
	if err != nil {
		log.Fatalf("cannot parse verification key: %v", err)
	}

	database, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}

	payer, err := mixer.NewJournalPayer(database)
	if err != nil {
		log.Fatalf("cannot open payout journal: %v", err)
	}

	m, err := mixer.Load(database, v, payer)
	if errors.Is(err, mixer.ErrNotInstantiated) {
		denom, ok := new(big.Int).SetString(*denomination, 10)
		if !ok {
			log.Fatalf("invalid denomination %q", *denomination)
		}
		cfg := &types.PoolConfig{
			Depth:           *depth,
			Denomination:    types.BigIntFrom(denom),
			RootHistorySize: *rootHistorySize,
			Relayer:         common.HexToAddress(*relayer),
			HashFunction:    *hashFunction,
		}
		m, err = mixer.Instantiate(database, cfg, v, payer)
	}
	if err != nil {
		log.Fatalf("cannot open pool: %v", err)
	}

	ctx := context.Background()
	apiService := service.NewAPI(m, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("cannot start API service: %v", err)
	}
	log.Infow("mixer daemon running", "dataDir", *dataDir, "root", m.Root().String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	apiService.Stop()
	if err := database.Close(); err != nil {
		log.Error(err)
	}
}
