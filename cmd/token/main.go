// Command token mints an access token for a kiosk, admin or viewer, signed
// with the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/config"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user id stored in the user_id claim")
	role := flag.String("role", string(jwt.RoleKiosk), "one of: "+strings.Join(jwt.RoleValues, ", "))
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRATION_TIME)")
	flag.Parse()

	if *userID == "" || !slices.Contains(jwt.RoleValues, *role) {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	lifetime := cfg.JWT.AccessExpiration
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, lifetime).GenerateAccessToken(*userID, jwt.Role(*role))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires at", time.Unix(expiresAt, 0).Format(time.RFC3339))
}
