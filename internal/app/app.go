package app

import (
	"context"
	"fmt"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	_ "github.com/DIMO-Network/ticker-relay/docs" // Import Swagger docs
	"github.com/DIMO-Network/ticker-relay/internal/bus"
	"github.com/DIMO-Network/ticker-relay/internal/clients/quote"
	"github.com/DIMO-Network/ticker-relay/internal/config"
	"github.com/DIMO-Network/ticker-relay/internal/controllers/messagelistener"
	"github.com/DIMO-Network/ticker-relay/internal/controllers/webhook"
	"github.com/DIMO-Network/ticker-relay/internal/services/messagesender"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CreateServers builds the webhook API and starts the background message listener on group.
func CreateServers(ctx context.Context, group *errgroup.Group, settings *config.Settings, logger zerolog.Logger) (*fiber.App, error) {
	webhookBus := bus.New(bus.Config{Topic: bus.WebhookTopic}, &logger)

	quoteClient := quote.NewClient(settings.QuoteAPIKey,
		quote.WithBaseURL(settings.QuoteAPIURL),
		quote.WithDefaultCurrency(settings.QuoteCurrency),
	)
	quoteProvider := quote.NewCachedProvider(quoteClient, settings.QuoteCacheTTL, settings.RateLimitCooldown)
	sender := messagesender.NewMessageSender(nil, settings)

	if err := startMessageListener(ctx, group, logger, webhookBus, quoteProvider, sender, settings); err != nil {
		return nil, fmt.Errorf("failed to start message listener: %w", err)
	}

	return CreateFiberApp(logger, webhookBus, webhookBus.Topic(), settings), nil
}

// CreateFiberApp sets up the API routes. Inbound webhooks are published to topic.
func CreateFiberApp(logger zerolog.Logger, publisher webhook.Publisher, topic string, settings *config.Settings) *fiber.App {
	logger.Info().Msg("Starting Ticker Relay...")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to the Ticker Relay!")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": "Server is up and running",
		})
	})

	webhookController := webhook.NewWebhookController(publisher, topic, settings)
	logger.Info().Msg("Registering routes...")

	app.Get("/webhook", webhookController.VerifyWebhook)
	app.Post("/webhook", webhookController.ReceiveWebhook)

	return app
}

// startMessageListener subscribes the message listener to the webhook bus.
func startMessageListener(ctx context.Context, group *errgroup.Group, logger zerolog.Logger, webhookBus *bus.Bus,
	quotes messagelistener.QuoteProvider, sender messagelistener.MessageSender, settings *config.Settings) error {
	if settings.PhoneNumberID == "" || settings.AccessToken == "" {
		logger.Warn().Msg("Messaging credentials are not configured, replies will fail")
	}
	if settings.QuoteAPIKey == "" {
		logger.Warn().Msg("Quote API key is not configured, lookups will fail")
	}

	listener := messagelistener.NewMessageListener(quotes, sender, settings)
	listenerCtx := logger.With().Str("component", "message-listener").Logger().WithContext(ctx)

	started := make(chan error, 1)
	group.Go(func() error {
		defer webhookBus.Close() //nolint:errcheck
		err := webhookBus.Start(listenerCtx, func(messages <-chan *message.Message) error {
			started <- nil
			return listener.ProcessWebhookMessages(listenerCtx, messages)
		})
		if err != nil {
			select {
			case started <- err:
			default:
			}
		}
		return err
	})

	select {
	case err := <-started:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
