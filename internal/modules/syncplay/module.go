package syncplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/bot"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/usecases"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/infrastructure"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/presentation/discord"
)

// shutdownTimeout bounds leaving every group on shutdown.
const shutdownTimeout = 10 * time.Second

func init() {
	bot.Register(&SyncPlayModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*SyncPlayModule)(nil)

// SyncPlayModule follows SyncPlay groups and plays them into voice channels.
type SyncPlayModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter
	catalog         *infrastructure.SQLiteCatalog
	group           *usecases.GroupService

	eventBus     *infrastructure.ChannelEventBus
	eventHandler *application.SyncPlayEventHandler
}

// Name returns the module name.
func (m *SyncPlayModule) Name() string {
	return "syncplay"
}

// Commands returns the slash commands for this module.
func (m *SyncPlayModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *SyncPlayModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.CommandName: m.commandHandlers.HandleSyncPlay,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *SyncPlayModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.lavalinkAdapter.OnVoiceServerUpdate(event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.lavalinkAdapter.OnVoiceStateUpdate(event)
			m.eventHandlers.HandleVoiceStateUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *SyncPlayModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if _, err := cfg.SocketURL(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *SyncPlayModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil || deps.Session.State == nil || deps.Session.State.User == nil {
		return errors.New("syncplay module requires an open Discord session")
	}

	socketURL, err := m.config.SocketURL()
	if err != nil {
		return err
	}

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot ID: %w", err)
	}

	m.eventBus = infrastructure.NewChannelEventBus(m.config.EventBuffer)

	m.lavalinkAdapter, err = infrastructure.NewLavalinkAdapter(
		deps.Session,
		infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		},
		m.eventBus,
	)
	if err != nil {
		return err
	}

	items := infrastructure.NewHTTPCatalog(m.config.ServerURL, m.config.Token)
	m.catalog, err = infrastructure.NewSQLiteCatalog(
		infrastructure.SQLiteCatalogConfig{
			Path: m.config.CatalogPath,
			TTL:  m.config.CatalogTTL,
		},
		items,
		items,
	)
	if err != nil {
		return err
	}

	repo := infrastructure.NewMemoryRepository()
	clock := infrastructure.NewOffsetClock()
	notifier := infrastructure.NewNotifier(deps.Session, repo)

	m.group = usecases.NewGroupService(
		usecases.GroupServiceDependencies{
			Repo:       repo,
			Voice:      m.lavalinkAdapter,
			VoiceState: infrastructure.NewVoiceStateProvider(deps.Session.State),
			Dialer: infrastructure.NewWebsocketDialer(
				socketURL,
				m.config.Token,
				m.eventBus,
				clock,
			),
			Players:   m.lavalinkAdapter,
			Catalog:   m.catalog,
			Clock:     clock,
			Estimator: infrastructure.NewLinearEstimator(clock),
			Publisher: m.eventBus,
			Notifier:  notifier,
		},
		m.config.ServerID,
		m.config.ReadyTimeout,
	)

	m.eventHandler = application.NewSyncPlayEventHandler(m.group, m.eventBus, notifier)
	if err := m.eventHandler.Start(); err != nil {
		return err
	}

	m.commandHandlers = discord.NewCommandHandlers(m.group)
	m.eventHandlers = discord.NewEventHandlers(botID, m.group)

	slog.Info("syncplay module initialized", "server", m.config.ServerURL)

	return nil
}

// Shutdown leaves every group and releases module resources.
func (m *SyncPlayModule) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if m.group != nil {
		m.group.Shutdown(ctx)
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	if m.catalog != nil {
		return m.catalog.Close()
	}

	return nil
}
