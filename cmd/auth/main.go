package main

import (
	"context"
	"log"

	"digitalbank/internal/authsvc/httpapi"
	"digitalbank/internal/authsvc/migrations"
	"digitalbank/internal/authsvc/service"
	"digitalbank/internal/authsvc/store"
	"digitalbank/internal/authsvc/usersclient"
	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/container"
	"digitalbank/internal/platform/dbmigrate"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/platform/logging"
)

func main() {
	ctx := context.Background()

	base, err := container.New(ctx, "auth")
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}

	if err := dbmigrate.Apply(ctx, base.DB, migrations.FS); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	signer, err := authtoken.NewSigner(base.Config.Token.Secret)
	if err != nil {
		log.Fatalf("failed to initialize token signer: %v", err)
	}
	verifier, err := authtoken.NewVerifier(base.Config.Token.Secret)
	if err != nil {
		log.Fatalf("failed to initialize token verifier: %v", err)
	}
	revocations := authtoken.NewRevocationCache(base.Config.Token.RevokeCache)

	users := usersclient.New(base.Config.RPC.UsersBaseURL, base.Config.RPC.CallTimeout)
	s := store.New(base.DB)
	svc := service.New(s, users, signer, base.Config.Token.AccessTTL)
	handlers := httpapi.NewHandlers(svc)

	base.Router.Use(httpmid.Deadline(base.Config.RPC.RequestDeadline))
	httpapi.RegisterRoutes(base.Router, handlers, verifier, revocations)

	logging.Info("auth service ready", map[string]interface{}{"port": base.Config.Server.Port})
	if err := base.Serve(); err != nil {
		log.Fatalf("auth service stopped: %v", err)
	}
}
