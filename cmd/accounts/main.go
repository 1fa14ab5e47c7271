package main

import (
	"context"
	"log"
	"time"

	"digitalbank/internal/accountssvc/httpapi"
	"digitalbank/internal/accountssvc/migrations"
	"digitalbank/internal/accountssvc/store"
	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/container"
	"digitalbank/internal/platform/dbmigrate"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/platform/logging"
)

func main() {
	ctx := context.Background()

	base, err := container.New(ctx, "accounts")
	if err != nil {
		log.Fatalf("failed to initialize accounts service: %v", err)
	}

	if err := dbmigrate.Apply(ctx, base.DB, migrations.FS); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	verifier, err := authtoken.NewVerifier(base.Config.Token.Secret)
	if err != nil {
		log.Fatalf("failed to initialize token verifier: %v", err)
	}
	revocations := authtoken.NewRevocationCache(base.Config.Token.RevokeCache)
	poller := authtoken.NewRevocationPoller(base.Config.Token.AuthInternal, base.Config.RPC.CallTimeout, revocations, 5*time.Second)
	go poller.Run(ctx)

	s := store.New(base.DB)
	handlers := httpapi.NewHandlers(s, base.Publisher, base.Config.PinRules)

	base.Router.Use(httpmid.Deadline(base.Config.RPC.RequestDeadline))
	httpapi.RegisterRoutes(base.Router, handlers, verifier, revocations)

	logging.Info("accounts service ready", map[string]interface{}{"port": base.Config.Server.Port})
	if err := base.Serve(); err != nil {
		log.Fatalf("accounts service stopped: %v", err)
	}
}
