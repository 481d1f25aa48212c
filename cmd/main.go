package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/executor"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/handlers"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/jwt"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/middlewares"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/repositories"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/services"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/vault"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/verifier"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

const serviceName = "gw-crypto-wallet"

// Wallet lock backends.
const (
	lockBackendMemory = "memory"
	lockBackendRedis  = "redis"
)

var (
	errMissingEncryptionKey = errors.New("WALLET_ENCRYPTION_KEY is required")
	errUnknownLockBackend   = errors.New("WALLET_LOCK_BACKEND must be memory or redis")
	errLockTTLTooShort      = errors.New("WALLET_LOCK_TTL_SECOND must be at least 3")
)

// config holds every setting read from the config file and the environment.
type config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecretKey string
	JWTExp       time.Duration

	WalletEncryptionKey string
	VaultParams         vault.Params

	RPCURLs             []string
	RPCMaxRetries       int
	RPCTimeout          time.Duration
	ConfirmationTimeout time.Duration
	DecimalsCacheTTL    time.Duration

	WalletLockBackend string
	WalletLockTTL     time.Duration

	AllowImplicitRecipientCreation bool
	ForbidSelfTransfer             bool
}

// @title gw-crypto-wallet API
// @version 1.0.0
// @description Custodial EVM wallet service: wallets, transfers, multisend, NFTs and a transaction ledger
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the application configuration.
func parseConfig(path string) (*config, error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	var parseErr error
	getInt := func(key, defaultValue string) int {
		n, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("%s: %w", key, err)
		}
		return n
	}
	getSeconds := func(key, defaultValue string) time.Duration {
		return time.Duration(getInt(key, defaultValue)) * time.Second
	}
	getBool := func(key, defaultValue string) bool {
		b, err := strconv.ParseBool(getEnv(key, defaultValue))
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("%s: %w", key, err)
		}
		return b
	}

	cfg := &config{}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGPort = getInt("POSTGRES_PORT", "5432")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	cfg.PGMaxOpenConns = getInt("POSTGRES_MAX_OPEN_CONNS", "16")
	cfg.PGMaxIdleConns = getInt("POSTGRES_MAX_IDLE_CONNS", "8")

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getInt("REDIS_PORT", "6379")
	cfg.RedisDB = getInt("REDIS_DB", "0")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisPoolSize = getInt("REDIS_POOL_SIZE", "10")
	cfg.RedisMinIdleConns = getInt("REDIS_MIN_IDLE_CONNS", "2")

	// Kafka config
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "wallet-transactions")

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	cfg.JWTExp = getSeconds("JWT_EXP_SECOND", "86400")

	// Vault config
	cfg.WalletEncryptionKey = getEnv("WALLET_ENCRYPTION_KEY", "")
	defaults := vault.DefaultParams()
	cfg.VaultParams = vault.Params{
		Time:    uint32(getInt("VAULT_ARGON_TIME", strconv.Itoa(int(defaults.Time)))),
		Memory:  uint32(getInt("VAULT_ARGON_MEMORY_KB", strconv.Itoa(int(defaults.Memory)))),
		Threads: uint8(getInt("VAULT_ARGON_THREADS", strconv.Itoa(int(defaults.Threads)))),
	}

	// Chain config
	cfg.RPCURLs = splitList(getEnv("RPC_URLS", "https://mainnet.base.org"))
	cfg.RPCMaxRetries = getInt("RPC_MAX_RETRIES", "0")
	cfg.RPCTimeout = getSeconds("RPC_TIMEOUT_SECOND", "30")
	cfg.ConfirmationTimeout = getSeconds("CONFIRMATION_TIMEOUT_SECOND", "120")
	cfg.DecimalsCacheTTL = getSeconds("DECIMALS_CACHE_TTL_SECOND", "86400")

	// Transfer config
	cfg.WalletLockBackend = strings.ToLower(getEnv("WALLET_LOCK_BACKEND", lockBackendMemory))
	cfg.WalletLockTTL = getSeconds("WALLET_LOCK_TTL_SECOND", "300")
	cfg.AllowImplicitRecipientCreation = getBool("ALLOW_IMPLICIT_RECIPIENT_CREATION", "false")
	cfg.ForbidSelfTransfer = getBool("FORBID_SELF_TRANSFER", "true")

	if parseErr != nil {
		return nil, parseErr
	}
	return cfg, nil
}

// validate reports settings run cannot start without.
func (c *config) validate() error {
	if c.WalletEncryptionKey == "" {
		return errMissingEncryptionKey
	}
	if len(c.RPCURLs) == 0 {
		return chain.ErrNoEndpoints
	}
	if c.WalletLockBackend != lockBackendMemory && c.WalletLockBackend != lockBackendRedis {
		return fmt.Errorf("%w: %q", errUnknownLockBackend, c.WalletLockBackend)
	}
	// the redis lock refreshes itself every ttl/3
	if c.WalletLockBackend == lockBackendRedis && c.WalletLockTTL < 3*time.Second {
		return fmt.Errorf("%w: got %s", errLockTTLTooShort, c.WalletLockTTL)
	}
	return nil
}

// splitList splits a comma separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// run initializes the logger, database, Redis, Kafka, chain client and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg *config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, logger.WithService(serviceName)); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.LogLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	logger.Log.Infow("connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)

	if err := repositories.Migrate(ctx, db); err != nil {
		return fmt.Errorf("postgres migration: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer rdb.Close()

	// Kafka writer for finalized transactions
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
		defer w.Close()
		kafkaWriter = w
		logger.Log.Infow("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize vault
	cipher, err := vault.New(cfg.WalletEncryptionKey, vault.WithParams(cfg.VaultParams))
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}

	// Connect to the chain
	client, err := chain.NewClient(cfg.RPCURLs,
		chain.WithMaxRetries(cfg.RPCMaxRetries),
		chain.WithRequestTimeout(cfg.RPCTimeout),
	)
	if err != nil {
		return fmt.Errorf("chain client: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	logger.Log.Infow("connected to chain", "chain_id", chainID, "endpoint", client.ActiveURL())

	// Initialize JWT service
	tokens := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey), jwt.WithExpiration(cfg.JWTExp))

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, middlewares.GetTxFromContext)
	walletRepo := repositories.NewWalletRepository(db, middlewares.GetTxFromContext)
	transactionRepo := repositories.NewTransactionRepository(db, middlewares.GetTxFromContext)
	decimalsCache := repositories.NewTokenDecimalsCacheRepository(rdb, chainID.Int64(), cfg.DecimalsCacheTTL)

	var locker services.WalletLocker = services.NewKeyedLocker()
	if cfg.WalletLockBackend == lockBackendRedis {
		locker = repositories.NewRedisWalletLock(rdb, cfg.WalletLockTTL, 0)
	}

	// Initialize services
	checker := verifier.New(client, decimalsCache)
	exec := executor.New(client, executor.WithConfirmationTimeout(cfg.ConfirmationTimeout))
	walletService := services.NewWalletService(walletRepo, cipher)
	resolver := services.NewRecipientResolver(userRepo, walletService)
	ledger := services.NewLedger(transactionRepo, kafkaWriter)
	authService := services.NewAuthService(userRepo, walletService, tokens)
	transferService := services.NewTransferService(
		resolver,
		checker,
		exec,
		walletService,
		ledger,
		locker,
		client,
		chain.NewRegistry(),
		services.ResolvePolicy{
			AllowImplicitCreation: cfg.AllowImplicitRecipientCreation,
			ForbidSelfTransfer:    cfg.ForbidSelfTransfer,
		},
	)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(middlewares.TxMiddleware(db)).Post("/register", handlers.NewRegisterHandler(authService))
		r.Post("/login", handlers.NewLoginHandler(authService))

		// Protected routes with JWT middleware
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(tokens))

			r.Get("/wallets", handlers.NewListWalletsHandler(walletService))
			r.Post("/wallets/main", handlers.NewCreateMainWalletHandler(walletService))
			r.Get("/wallets/main/export", handlers.NewExportMainWalletHandler(walletService))
			r.Post("/wallets/sub", handlers.NewCreateSubWalletsHandler(walletService))
			r.Post("/wallets/balances", handlers.NewBatchBalancesHandler(checker))

			r.Post("/transfers", handlers.NewTransferHandler(transferService))
			r.Post("/transfers/multisend", handlers.NewMultiSendHandler(transferService))
			r.Post("/transfers/nft721", handlers.NewTransferNFT721Handler(transferService))
			r.Post("/transfers/nft1155", handlers.NewTransferNFT1155Handler(transferService))

			r.Get("/transactions/{hash}", handlers.NewGetTransactionHandler(ledger))
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infow("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	// Transfers in flight finish their ledger updates before the process exits.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ConfirmationTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
