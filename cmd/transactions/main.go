package main

import (
	"context"
	"log"
	"time"

	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/container"
	"digitalbank/internal/platform/dbmigrate"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/platform/logging"
	"digitalbank/internal/txsvc/accountsclient"
	"digitalbank/internal/txsvc/httpapi"
	"digitalbank/internal/txsvc/migrations"
	"digitalbank/internal/txsvc/service"
	"digitalbank/internal/txsvc/store"
)

func main() {
	ctx := context.Background()

	base, err := container.New(ctx, "transactions")
	if err != nil {
		log.Fatalf("failed to initialize transactions service: %v", err)
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

	accounts := accountsclient.New(base.Config.RPC.AccountsBaseURL, base.Config.RPC.CallTimeout)
	s := store.New(base.DB)
	svc := service.New(s, accounts, base.Publisher, base.Config.Limits, base.Config.RPC.CompensateTimeout)
	handlers := httpapi.NewHandlers(svc)

	base.Router.Use(httpmid.Deadline(base.Config.RPC.RequestDeadline))
	httpapi.RegisterRoutes(base.Router, handlers, verifier, revocations)

	logging.Info("transactions service ready", map[string]interface{}{"port": base.Config.Server.Port})
	if err := base.Serve(); err != nil {
		log.Fatalf("transactions service stopped: %v", err)
	}
}
