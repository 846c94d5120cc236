// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the environment-resolved settings for the whole application.
type Config struct {
	Port string

	// Solana
	SolanaRPCEndpoint string
	ForgeTokenMint    string
	ForgeTokenDecimal int
	TreasuryAddress   string
	TreasurySecretID  string

	// GCP
	GCPProjectID             string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	// Registry backend: "pg" (default), "firestore" or "memory"
	RegistryBackend string

	// PostgreSQL (RegistryBackend == "pg")
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Content storage
	ArweaveBaseURL string
	ArweaveAPIKey  string
	AssetBackend   string // "arweave" (default) or "gcs"
	AssetBucket    string

	// Pricing / workflow policy
	BasePrice           int
	PermissiveUploads   bool
	PaymentVerifyStrict bool

	// Mail
	SendGridAPIKey   string
	ReceiptFromEmail string

	// CORS
	AllowedOrigin string
}

// Load reads the environment and returns the Config.
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "critterforge-dev")

	return &Config{
		Port: getenvDefault("PORT", "8080"),

		SolanaRPCEndpoint: os.Getenv("SOLANA_RPC_ENDPOINT"),
		ForgeTokenMint:    os.Getenv("FORGE_TOKEN_MINT"),
		ForgeTokenDecimal: getenvInt("FORGE_TOKEN_DECIMALS", 6),
		TreasuryAddress:   os.Getenv("TREASURY_ADDRESS"),
		TreasurySecretID:  getenvDefault("TREASURY_SECRET_ID", "critterforge-mint-authority"),

		GCPProjectID:             defaultProject,
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		RegistryBackend: getenvDefault("REGISTRY_BACKEND", "pg"),

		DBHost:     getenvDefault("DB_HOST", "localhost"),
		DBPort:     getenvDefault("DB_PORT", "5432"),
		DBUser:     getenvDefault("DB_USER", "critterforge"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenvDefault("DB_NAME", "critterforge"),

		ArweaveBaseURL: os.Getenv("ARWEAVE_BASE_URL"),
		ArweaveAPIKey:  os.Getenv("ARWEAVE_API_KEY"),
		AssetBackend:   getenvDefault("ASSET_BACKEND", "arweave"),
		AssetBucket:    os.Getenv("ASSET_BUCKET"),

		BasePrice:           getenvInt("BASE_PRICE", 5000),
		PermissiveUploads:   getenvBool("PERMISSIVE_UPLOADS", false),
		PaymentVerifyStrict: getenvBool("PAYMENT_VERIFY_STRICT", false),

		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		ReceiptFromEmail: os.Getenv("RECEIPT_FROM_EMAIL"),

		AllowedOrigin: getenvDefault("ALLOWED_ORIGIN", "*"),
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
