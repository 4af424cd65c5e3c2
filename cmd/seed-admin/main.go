// seed-admin creates or refreshes the admin, owner and sales users and prints a
// session token for each, so a dev environment can call the API right away.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... REDIS_ADDRESS=... go run ./cmd/seed-admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/models"
)

var seedUsers = []models.NewUser{
	{Username: "admin", Name: "Distribution Admin", Role: models.UserRoleAdmin},
	{Username: "owner", Name: "Owner", Role: models.UserRoleOwner},
	{Username: "sales", Name: "Sales", Role: models.UserRoleSales},
}

func main() {
	lifespan := flag.Duration("token-ttl", 7*24*time.Hour, "lifetime of the printed session tokens")
	migrate := flag.Bool("migrate", false, "run AutoMigrate before seeding")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil || config.GetRedisDB() == nil {
		fmt.Fprintln(os.Stderr, "database or redis not initialized. Set DB_* and REDIS_ADDRESS env vars.")
		os.Exit(1)
	}
	if *migrate {
		models.MigrateTable()
	}

	for i := range seedUsers {
		user, err := models.UpsertUser(ctx, &seedUsers[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to upsert %s: %v\n", seedUsers[i].Username, err)
			os.Exit(1)
		}
		token, err := models.CreateSession(ctx, user, *lifespan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create session for %s: %v\n", user.Username, err)
			os.Exit(1)
		}
		fmt.Printf("%-6s role=%-5s id=%d token=%s\n", user.Username, user.Role, user.ID, token)
	}
}
