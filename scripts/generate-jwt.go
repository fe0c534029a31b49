//go:build ignore

// Issues an HS256 bearer token for the relayer's /api/v1 group.
// Run with: go run scripts/generate-jwt.go -secret "$OPS_SECRET" -subject ops

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chainsafe/copytrade-relayer/pkg/auth"
)

func main() {
	secret := flag.String("secret", os.Getenv("RELAYER_AUTH_SECRET"), "server.auth_secret of the relayer")
	subject := flag.String("subject", "operator", "token subject")
	issuer := flag.String("issuer", "copytrade-ops", "token issuer")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	token, err := auth.NewTokenIssuer(*secret, *issuer, *ttl).Issue(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "\nUsage:\n  curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/status\n", token)
}
