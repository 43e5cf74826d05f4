package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/privacy-pool/api"
	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/crypto/ethereum"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/service"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/transfer"
	"github.com/vocdoni/privacy-pool/types"
	"github.com/vocdoni/privacy-pool/verifier"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

const (
	dbTypeMemory = "memory"

	assetsNative = "native"
	assetsERC20  = "erc20"

	// nativeAsset is the asset address used for the chain native currency.
	nativeAsset = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
)

type config struct {
	host     string
	port     int
	dataDir  string
	dbType   string
	logLevel string
	logOut   string

	chainID   uint64
	poolAddr  string
	asset     string
	treeDepth int
	admin     string

	assets  string
	vault   string
	web3RPC string
	web3Key string
	artTime time.Duration
	wvkURL  string
	wvkHash string
	wvkFile string
	rvkURL  string
	rvkHash string
	rvkFile string
}

func parseFlags() *config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	c := &config{}
	flag.StringVar(&c.host, "host", "0.0.0.0", "API listen address")
	flag.IntVar(&c.port, "port", 8080, "API listen port")
	flag.StringVar(&c.dataDir, "datadir", filepath.Join(home, ".privacypool"), "data directory")
	flag.StringVar(&c.dbType, "dbtype", db.TypePebble, fmt.Sprintf("database type (%s or %s)", db.TypePebble, dbTypeMemory))
	flag.StringVar(&c.logLevel, "log.level", log.LogLevelInfo, "log level (debug, info, warn, error)")
	flag.StringVar(&c.logOut, "log.output", "stdout", "log output (stdout, stderr or a file path)")

	flag.Uint64Var(&c.chainID, "chainid", 1, "chain id of the pool scope")
	flag.StringVar(&c.poolAddr, "pool", "", "pool address of the pool scope")
	flag.StringVar(&c.asset, "asset", nativeAsset, "asset address of the pool scope")
	flag.IntVar(&c.treeDepth, "depth", types.StateTreeMaxDepth, "commitment tree depth")
	flag.StringVar(&c.admin, "admin", "", "address allowed to wind down the pool and publish approval roots")

	flag.StringVar(&c.assets, "assets", assetsNative, fmt.Sprintf("asset transfers (%s or %s)", assetsNative, assetsERC20))
	flag.StringVar(&c.vault, "vault", "", "native ledger account holding the pool funds (defaults to the pool address)")
	flag.StringVar(&c.web3RPC, "web3.rpc", "http://localhost:8545", "web3 rpc endpoint (erc20 assets)")
	flag.StringVar(&c.web3Key, "web3.privkey", "", "hex private key of the custody account (erc20 assets)")

	flag.DurationVar(&c.artTime, "artifacts.timeout", 5*time.Minute, "timeout to download the verification keys")
	flag.StringVar(&c.wvkURL, "withdraw.vk.url", "", "url of the withdrawal verification key")
	flag.StringVar(&c.wvkHash, "withdraw.vk.hash", "", "sha256 of the withdrawal verification key")
	flag.StringVar(&c.wvkFile, "withdraw.vk.file", "", "local withdrawal verification key, overrides the url")
	flag.StringVar(&c.rvkURL, "ragequit.vk.url", "", "url of the ragequit verification key")
	flag.StringVar(&c.rvkHash, "ragequit.vk.hash", "", "sha256 of the ragequit verification key")
	flag.StringVar(&c.rvkFile, "ragequit.vk.file", "", "local ragequit verification key, overrides the url")
	flag.Parse()
	return c
}

func main() {
	conf := parseFlags()
	log.Init(conf.logLevel, conf.logOut, nil)
	if err := run(conf); err != nil {
		log.Fatal(err)
	}
}

func run(conf *config) error {
	poolAddr, err := ethereum.HexToAddress(conf.poolAddr)
	if err != nil {
		return fmt.Errorf("invalid pool address: %w", err)
	}
	asset, err := ethereum.HexToAddress(conf.asset)
	if err != nil {
		return fmt.Errorf("invalid asset address: %w", err)
	}
	admin, err := ethereum.HexToAddress(conf.admin)
	if err != nil {
		return fmt.Errorf("invalid admin address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v, err := loadVerifier(conf)
	if err != nil {
		return err
	}

	stg, err := openStorage(conf)
	if err != nil {
		return err
	}
	defer stg.Close()

	registry, err := asp.NewRegistry(stg)
	if err != nil {
		return err
	}

	var (
		assets transfer.Adapter
		ledger *transfer.Ledger
	)
	switch conf.assets {
	case assetsNative:
		vault := poolAddr
		if conf.vault != "" {
			if vault, err = ethereum.HexToAddress(conf.vault); err != nil {
				return fmt.Errorf("invalid vault address: %w", err)
			}
		}
		ledger = transfer.NewLedger(stg, vault)
		assets = ledger
	case assetsERC20:
		erc20, err := transfer.DialERC20(ctx, conf.web3RPC, asset, conf.web3Key)
		if err != nil {
			return err
		}
		log.Infow("erc20 assets", "token", asset.Hex(), "custody", erc20.Custody().Hex())
		assets = erc20
	default:
		return fmt.Errorf("unknown assets mode %q", conf.assets)
	}

	p, err := pool.New(stg, pool.Config{
		ID:        types.PoolID{ChainID: conf.chainID, Address: poolAddr, Asset: asset},
		TreeDepth: conf.treeDepth,
	}, v, registry, assets)
	if err != nil {
		return err
	}

	monitor := service.NewEventMonitor(p, nil)
	if err := monitor.Start(ctx); err != nil {
		return err
	}
	defer monitor.Stop()

	apiService := service.NewAPI(api.APIConfig{
		Host:     conf.host,
		Port:     conf.port,
		Pool:     p,
		Registry: registry,
		Ledger:   ledger,
		Admin:    admin,
	})
	if err := apiService.Start(ctx); err != nil {
		return err
	}
	defer apiService.Stop()

	log.Infow("privacy pool running", "api", apiService.Addr().String(), "admin", admin.Hex(), "assets", conf.assets)
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func openStorage(conf *config) (*storage.Storage, error) {
	switch conf.dbType {
	case dbTypeMemory:
		return storage.New(memdb.New()), nil
	case db.TypePebble:
		database, err := metadb.New(db.TypePebble, filepath.Join(conf.dataDir, "db"))
		if err != nil {
			return nil, fmt.Errorf("could not open database: %w", err)
		}
		return storage.New(database), nil
	default:
		return nil, fmt.Errorf("unknown database type %q", conf.dbType)
	}
}

func loadVerifier(conf *config) (*verifier.Groth16, error) {
	wvk, err := artifact(conf.wvkFile, conf.wvkURL, conf.wvkHash)
	if err != nil {
		return nil, fmt.Errorf("withdrawal verification key: %w", err)
	}
	rvk, err := artifact(conf.rvkFile, conf.rvkURL, conf.rvkHash)
	if err != nil {
		return nil, fmt.Errorf("ragequit verification key: %w", err)
	}
	if err := service.DownloadArtifacts(conf.artTime, wvk, rvk); err != nil {
		return nil, err
	}
	return verifier.NewGroth16(wvk.Content, rvk.Content)
}

func artifact(file, url, hash string) (*verifier.Artifact, error) {
	if file != "" {
		return verifier.ArtifactFromFile(file)
	}
	if url == "" || hash == "" {
		return nil, fmt.Errorf("either a file or an url and its hash are required")
	}
	return verifier.NewArtifact(url, hash)
}
