package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables and secret files
	"path/filepath"
	"strconv" // strconv converts strings to other types
	"strings"
)

// secretsDir is where container orchestrators mount secret files. A file named
// after the lower-cased env var (e.g. /run/secrets/jwt_secret) takes
// precedence over the plain environment variable.
const secretsDir = "/run/secrets"

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign JWTs
	AccessTTLMin  int    // access token time-to-live in minutes
	BcryptCost    int    // bcrypt cost for password hashing
	AdminUsername string // default admin account username
	AdminEmail    string // default admin account email
	AdminPassword string // default admin account password

	// Artifact store (S3-compatible blob storage holding model artifacts).
	S3Endpoint   string // custom endpoint for MinIO-style deployments (optional)
	S3Region     string // bucket region
	S3Bucket     string // bucket holding model artifacts
	S3AccessKey  string // static access key
	S3SecretKey  string // static secret key
	S3Prefix     string // key prefix under which models live (default "models")
	ModelName    string // registered name of the model to serve
	ModelVersion string // exact version to serve; empty means latest upstream
	ArtifactDir  string // local scratch directory for downloaded artifacts
}

// Load reads configuration values from environment variables (with secret-file
// overrides for sensitive values) and returns a Config. Required variables
// are enforced by must() and missing values cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     mustSecret("JWT_SECRET"),
		AccessTTLMin:  intOr("ACCESS_TOKEN_TTL_MIN", 30),
		BcryptCost:    mustInt("BCRYPT_COST"),
		AdminUsername: must("ADMIN_USERNAME"),
		AdminEmail:    must("ADMIN_EMAIL"),
		AdminPassword: mustSecret("ADMIN_PASSWORD"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      must("S3_REGION"),
		S3Bucket:      must("S3_BUCKET"),
		S3AccessKey:   mustSecret("S3_ACCESS_KEY"),
		S3SecretKey:   mustSecret("S3_SECRET_KEY"),
		S3Prefix:      getenv("S3_PREFIX", "models"),
		ModelName:     must("MODEL_NAME"),
		ModelVersion:  os.Getenv("MODEL_VERSION"), // empty -> resolve latest
		ArtifactDir:   getenv("ARTIFACT_DIR", os.TempDir()),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustSecret resolves a required sensitive value. A mounted secret file named
// after the lower-cased key takes precedence over the environment variable.
func mustSecret(key string) string {
	if v := readSecretFile(key); v != "" {
		return v
	}
	return must(key)
}

// readSecretFile returns the trimmed contents of /run/secrets/<lowercase key>,
// or of the file named by <KEY>_FILE, if either exists. Empty otherwise.
func readSecretFile(key string) string {
	paths := []string{filepath.Join(secretsDir, strings.ToLower(key))}
	if p := os.Getenv(key + "_FILE"); p != "" {
		paths = append([]string{p}, paths...)
	}
	for _, p := range paths {
		if b, err := os.ReadFile(p); err == nil {
			if v := strings.TrimSpace(string(b)); v != "" {
				return v
			}
		}
	}
	return ""
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr reads an optional integer env var, falling back to def when the
// variable is unset or malformed.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
