package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-utils-oidcx"
)

func main() {
	envPath := defaultEnvPath()
	if err := loadEnvFile(envPath); err != nil {
		log.Printf("warning: load %s: %v", envPath, err)
	}

	var (
		defaultIssuer   = os.Getenv("OIDC_ISSUER")
		defaultAudience = os.Getenv("OIDC_AUDIENCE")
		defaultClientID = os.Getenv("OIDC_CLIENT_ID")
		defaultNonce    = os.Getenv("OIDC_NONCE")
		defaultToken    = os.Getenv("OIDC_TOKEN")
		defaultSvcAcct  = os.Getenv("OIDC_SERVICE_ACCOUNT")
	)

	issuer := flag.String("issuer", defaultIssuer, "Issuer base URL (env OIDC_ISSUER)")
	audience := flag.String("audience", defaultAudience, "Expected audience (env OIDC_AUDIENCE)")
	clientID := flag.String("client-id", defaultClientID, "Accepted client ids, comma separated (env OIDC_CLIENT_ID)")
	nonce := flag.String("nonce", defaultNonce, "Expected nonce for ID tokens (env OIDC_NONCE)")
	token := flag.String("token", defaultToken, "Token to verify; if empty the CLI mints a Google identity token (env OIDC_TOKEN)")
	kind := flag.String("kind", "access", "Token kind: access or id")
	serviceAccount := flag.String("service-account", defaultSvcAcct, "Service account to impersonate when minting (env OIDC_SERVICE_ACCOUNT)")
	leeway := flag.Duration("leeway", 2*time.Minute, "Clock-skew leeway")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Metadata/JWKS cache TTL")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout for the whole verification call")
	flag.Parse()

	if *issuer == "" || *audience == "" {
		flag.Usage()
		log.Fatal("issuer and audience are required (via flags, .env, or environment variables)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *token == "" {
		minter := oidcx.NewMinter(oidcx.MinterConfig{ServiceAccount: *serviceAccount})
		minted, err := minter.IdentityToken(ctx, *audience)
		if err != nil {
			log.Fatalf("mint identity token: %v", err)
		}
		*token = minted
		log.Println("minted Google identity token")
	}

	cfg := oidcx.VerifierConfig{
		Issuer:   *issuer,
		Audience: *audience,
		Nonce:    *nonce,
		Leeway:   *leeway,
		CacheTTL: *cacheTTL,
	}
	if *clientID != "" {
		cfg.ClientIDs = strings.Split(*clientID, ",")
	}

	verifier, err := oidcx.NewVerifier(cfg)
	if err != nil {
		log.Fatalf("create verifier: %v", err)
	}
	defer verifier.Close()

	var verified *oidcx.VerifiedToken
	switch *kind {
	case "access":
		verified, err = verifier.VerifyAccessToken(ctx, *token)
	case "id":
		verified, err = verifier.VerifyIDToken(ctx, *token)
	default:
		log.Fatalf("unknown token kind %q, want access or id", *kind)
	}
	if err != nil {
		log.Fatalf("verification failed: %v", err)
	}

	printToken(verified)
}

func printToken(token *oidcx.VerifiedToken) {
	fmt.Println("== Token Verified ==")
	fmt.Printf("subject   : %s\n", token.Subject())
	fmt.Printf("issuer    : %s\n", token.Issuer())
	fmt.Printf("audience  : %s\n", token.Audience())
	if cid := token.ClientID(); cid != "" {
		fmt.Printf("client id : %s\n", cid)
	}
	if !token.ExpiresAt().IsZero() {
		fmt.Printf("expires_at: %s\n", token.ExpiresAt().Format(time.RFC3339))
	}
	if !token.IssuedAt().IsZero() {
		fmt.Printf("issued_at : %s\n", token.IssuedAt().Format(time.RFC3339))
	}
	fmt.Println("claims:")
	for name, value := range token.Claims {
		fmt.Printf("  %s: %v\n", name, value)
	}
}

func defaultEnvPath() string {
	if path := os.Getenv("OIDCX_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			log.Printf("warning: invalid line %d in %s", lineNum, filepath.Base(path))
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			log.Printf("warning: set env %s: %v", key, err)
		}
	}
	return scanner.Err()
}
