package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"shopcart/internal/auth"
	"shopcart/internal/config"

	"github.com/joho/godotenv"
)

// devtoken mints a bearer token signed with JWT_SECRET for local testing.
func main() {
	subject := flag.String("sub", "dev-user", "user id (sub claim)")
	email := flag.String("email", "dev@example.com", "email claim")
	roles := flag.String("roles", auth.RoleUser, "comma separated roles, e.g. User,Admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.LoadAuth()
	if len(cfg.JWTSecret) < 32 {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET must be set and at least 32 characters")
		os.Exit(1)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.NewIssuer(cfg, *ttl).Issue(auth.Identity{
		UserID: *subject,
		Email:  *email,
		Roles:  roleList,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
