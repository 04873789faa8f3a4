// Package main provides a CLI tool for generating tenant keys and test tokens
// for the logdata API. Registration tokens use the dev secret unless one is
// given and will NOT work against a production deployment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	jwttoken "logdata/internal/jwt_token"
	"logdata/internal/platform/config"
)

const (
	defaultKeyBits  = 2048
	defaultLogTTL   = time.Hour
	defaultBaseURL  = "http://localhost:8080"
	defaultKeyFile  = "tenant"
	privateFileMode = 0o600
	publicFileMode  = 0o644
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	keygenCmd := flag.NewFlagSet("keygen", flag.ExitOnError)
	logCmd := flag.NewFlagSet("log", flag.ExitOnError)
	registerCmd := flag.NewFlagSet("register", flag.ExitOnError)

	keygenOut := keygenCmd.String("out", defaultKeyFile, "File prefix; writes <out>.key and <out>.pub")
	keygenBits := keygenCmd.Int("bits", defaultKeyBits, "RSA key size in bits")

	logIssuer := logCmd.String("iss", "", "Company name registered with the gateway (required)")
	logKey := logCmd.String("key", defaultKeyFile+".key", "PEM file holding the company's private key")
	logTTL := logCmd.Duration("ttl", defaultLogTTL, "Token time-to-live; 0 omits exp")
	logClaims := logCmd.String("claims", "", "Extra claims as comma-separated key=value pairs")
	logJSON := logCmd.Bool("json", false, "Output as JSON")

	registerEmail := registerCmd.String("email", "", "Email the token is issued to (required)")
	registerSecret := registerCmd.String("secret", config.DevRegistrationSecret, "Registration shared secret")
	registerTTL := registerCmd.Duration("ttl", jwttoken.DefaultRegistrationTTL, "Token time-to-live")
	registerJSON := registerCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		keygenCmd.Parse(os.Args[2:])
		runKeygen(*keygenOut, *keygenBits)
	case "log":
		logCmd.Parse(os.Args[2:])
		runLogToken(*logIssuer, *logKey, *logTTL, *logClaims, *logJSON)
	case "register":
		registerCmd.Parse(os.Args[2:])
		runRegistrationToken(*registerEmail, *registerSecret, *registerTTL, *registerJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate tenant keys and tokens for the logdata API

WARNING: register uses the dev registration secret by default.
         Only use it for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  keygen    Generate an RSA keypair for a company
  log       Sign a log-submission token with a company's private key
  register  Mint a registration token without going through email

Examples:
  # Create acme.key / acme.pub
  tokengen keygen -out acme

  # Sign a token for company "Acme" valid for 24h
  tokengen log -iss Acme -key acme.key -ttl 24h

  # Registration token for local testing
  tokengen register -email founder@acme.io

Use "tokengen <command> -h" for more information about a command.`)
}

func runKeygen(out string, bits int) {
	privatePEM, publicPEM, err := generateKeyPair(bits)
	if err != nil {
		fail("Error generating key: %v", err)
	}
	if err := os.WriteFile(out+".key", privatePEM, privateFileMode); err != nil {
		fail("Error writing private key: %v", err)
	}
	if err := os.WriteFile(out+".pub", publicPEM, publicFileMode); err != nil {
		fail("Error writing public key: %v", err)
	}

	fmt.Println("RSA Keypair")
	fmt.Println("===========")
	fmt.Printf("Private key: %s.key (keep secret)\n", out)
	fmt.Printf("Public key:  %s.pub (send as company_public_key)\n", out)
	fmt.Println()
	fmt.Print(string(publicPEM))
}

func runLogToken(issuer, keyFile string, ttl time.Duration, extra string, jsonOutput bool) {
	if strings.TrimSpace(issuer) == "" {
		fail("-iss is required")
	}
	privatePEM, err := os.ReadFile(keyFile)
	if err != nil {
		fail("Error reading private key: %v", err)
	}
	claims, err := parseClaims(extra)
	if err != nil {
		fail("Invalid -claims: %v", err)
	}

	token, signed, err := signLogToken(privatePEM, issuer, ttl, claims, time.Now())
	if err != nil {
		fail("Error signing token: %v", err)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "log_token",
			ExpiresIn: ttlString(ttl),
			Claims:    signed,
			Usage: map[string]string{
				"header":   "Authorization: Bearer <token>",
				"endpoint": "POST " + defaultBaseURL + "/logs",
			},
		})
		return
	}
	fmt.Println("Log Submission Token (RS256)")
	fmt.Println("============================")
	fmt.Printf("Issuer:     %s\n", issuer)
	fmt.Printf("Expires In: %s\n", ttlString(ttl))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" -d @log.json " + defaultBaseURL + "/logs")
}

func runRegistrationToken(email, secret string, ttl time.Duration, jsonOutput bool) {
	if strings.TrimSpace(email) == "" {
		fail("-email is required")
	}
	svc, err := jwttoken.NewRegistrationTokenService(secret, ttl)
	if err != nil {
		fail("Error configuring token service: %v", err)
	}
	token, err := svc.Issue(context.Background(), email)
	if err != nil {
		fail("Error generating token: %v", err)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "registration_token",
			ExpiresIn: svc.TTL().String(),
			Claims: map[string]any{
				"email":   email,
				"purpose": jwttoken.PurposeRegisterCompany,
			},
			Usage: map[string]string{
				"endpoint": "POST " + defaultBaseURL + "/register_company",
				"field":    "token",
			},
		})
		return
	}
	fmt.Println("Registration Token (HS256)")
	fmt.Println("==========================")
	fmt.Printf("Email:      %s\n", email)
	fmt.Printf("Expires In: %s\n", svc.TTL())
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
}

func ttlString(ttl time.Duration) string {
	if ttl <= 0 {
		return "never"
	}
	return ttl.String()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
