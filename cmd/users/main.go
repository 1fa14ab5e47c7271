package main

import (
	"context"
	"log"

	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/container"
	"digitalbank/internal/platform/dbmigrate"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/platform/logging"
	"digitalbank/internal/userssvc/httpapi"
	"digitalbank/internal/userssvc/migrations"
	"digitalbank/internal/userssvc/service"
	"digitalbank/internal/userssvc/store"
)

func main() {
	ctx := context.Background()

	base, err := container.New(ctx, "users")
	if err != nil {
		log.Fatalf("failed to initialize users service: %v", err)
	}

	if err := dbmigrate.Apply(ctx, base.DB, migrations.FS); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	verifier, err := authtoken.NewVerifier(base.Config.Token.Secret)
	if err != nil {
		log.Fatalf("failed to initialize token verifier: %v", err)
	}
	revocations := authtoken.NewRevocationCache(base.Config.Token.RevokeCache)

	s := store.New(base.DB)
	svc := service.New(s)
	handlers := httpapi.NewHandlers(svc)

	base.Router.Use(httpmid.Deadline(base.Config.RPC.RequestDeadline))
	httpapi.RegisterRoutes(base.Router, handlers, verifier, revocations)

	logging.Info("users service ready", map[string]interface{}{"port": base.Config.Server.Port})
	if err := base.Serve(); err != nil {
		log.Fatalf("users service stopped: %v", err)
	}
}
