package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anth0nytran/coaching-site/internal/config"
	"github.com/anth0nytran/coaching-site/internal/content"
	"github.com/anth0nytran/coaching-site/internal/crypto"
	"github.com/anth0nytran/coaching-site/internal/discord"
	"github.com/anth0nytran/coaching-site/internal/log"
	"github.com/anth0nytran/coaching-site/internal/payments"
	"github.com/anth0nytran/coaching-site/internal/server"
	"github.com/anth0nytran/coaching-site/internal/session"
)

var BuildVersion = "dev"

func main() {
	addr := flag.String("addr", "", "listen address (overrides ADDR)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(BuildVersion)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.LogError("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	if cfg.SessionSecret == "" {
		log.LogWarn("SESSION_SECRET not set, login sessions are disabled")
	}
	if !cfg.OAuthConfigured() {
		log.LogWarn("Discord OAuth not configured, login is disabled")
	}
	if cfg.StripeSecretKey == "" {
		log.LogWarn("STRIPE_SECRET_KEY not set, checkout is disabled")
	}

	sessions := session.NewManager(crypto.NewSigner(string(cfg.SessionSecret)))

	var provider discord.IdentityProvider
	if cfg.OAuthConfigured() {
		provider = discord.NewProvider(cfg.DiscordClientID, string(cfg.DiscordClientSecret), cfg.DiscordRedirectURI)
	}

	bot := discord.NewBot(discord.BotConfig{
		Token:          string(cfg.DiscordBotToken),
		GuildID:        cfg.DiscordGuildID,
		StudentRoleID:  cfg.DiscordStudentRoleID,
		OwnerChannelID: cfg.DiscordOwnerChannelID,
	})

	checkout := payments.NewCheckout(payments.Config{
		SecretKey:     string(cfg.StripeSecretKey),
		WebhookSecret: string(cfg.StripeWebhookSecret),
		BaseURL:       cfg.BaseURL,
		PriceMap:      cfg.PriceMap,
		CalendlyURL:   cfg.CalendlyURLFor,
		Bypass:        cfg.CheckoutBypass,
	})

	catalog := content.NewCatalog(cfg.VideosFile, cfg.CredentialsDir)

	srv := server.New(cfg, sessions, provider, bot, checkout, catalog)
	httpServer := server.NewHTTPServer(srv.Routes(), cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.LogError("Server exited with error: %v", err)
		os.Exit(1)
	}
}
