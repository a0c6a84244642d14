// Demo wiring a game loop to a realtime database: table queues, a reconciled
// leaderboard view and a remote procedure, driven by a fixed tick.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/syntrixbase/gamelink"
	"github.com/syntrixbase/gamelink/client"
	"github.com/syntrixbase/gamelink/engine"
	"github.com/syntrixbase/gamelink/internal/config"
	"github.com/syntrixbase/gamelink/internal/logging"
)

type Player struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Online   bool   `json:"online"`
	Score    int64  `json:"score"`
	PlanetID uint64 `json:"planetId"`
}

type Planet struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Owner uint64 `json:"owner"`
}

// LeaderboardRow comes from a query view: exits and entries for one player
// within a tick collapse into updates.
type LeaderboardRow struct {
	PlayerID uint64 `json:"playerId"`
	Rank     int    `json:"rank"`
	Score    int64  `json:"score"`
}

type GsRegisterResult struct {
	IP   string `json:"ip"`
	Port uint16 `json:"port"`
}

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}
	logging.Initialize(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := engine.New()

	p := gamelink.New().
		WithQueueCapacity(cfg.Client.QueueCapacity).
		WithConnection(func() (*client.Conn, error) {
			return client.New(client.Config{
				URL:      cfg.Connection.URL,
				Database: cfg.Connection.Database,
				Token:    cfg.Connection.Token,
			}), nil
		})
	p = gamelink.AddTable(p, func(c *client.Conn) client.TableWithPrimaryKey[Player] {
		return client.TableOf[Player](c, "players")
	})
	p = gamelink.AddTable(p, func(c *client.Conn) client.TableWithPrimaryKey[Planet] {
		return client.TableOf[Planet](c, "planets")
	})
	p = gamelink.AddView(p, func(c *client.Conn) client.Table[LeaderboardRow] {
		return client.TableOf[LeaderboardRow](c, "leaderboard")
	}, func(r LeaderboardRow) uint64 { return r.PlayerID })
	p = gamelink.AddReducer[GsRegisterResult](p, "gs_register")

	b, err := p.Build(ctx, loop)
	if err != nil {
		slog.Error("Failed to connect", "error", err)
		os.Exit(1)
	}
	defer b.Conn().Close()

	loop.AddSystem(onConnected(b))
	loop.AddSystem(onPlayerEvents(b))
	loop.AddSystem(onLeaderboardEvents(b))
	loop.AddSystem(onGsRegister(b))

	slog.Info("Demo running", "url", cfg.Connection.URL, "tick", cfg.Client.TickInterval)
	loop.Run(ctx, cfg.Client.TickInterval)
	slog.Info("Demo stopped")
}

func onConnected(b *gamelink.Bridge) engine.System {
	connected := b.Connected().Reader()
	disconnected := b.Disconnected().Reader()
	return func() {
		for _, ev := range connected.Read() {
			slog.Info("Connected", "identity", ev.Identity)

			for _, collection := range []string{"players", "planets", "leaderboard"} {
				if _, err := b.Conn().Subscribe(collection); err != nil {
					slog.Error("Subscribe failed", "collection", collection, "error", err)
				}
			}
			if _, err := b.Conn().Call("gs_register", map[string]any{"region": "eu"}); err != nil {
				slog.Error("Call failed", "name", "gs_register", "error", err)
			}
		}
		for _, ev := range disconnected.Read() {
			slog.Warn("Disconnected", "error", ev.Err)
		}
	}
}

func onPlayerEvents(b *gamelink.Bridge) engine.System {
	inserts := gamelink.Inserts[Player](b).Reader()
	updates := gamelink.Updates[Player](b).Reader()
	deletes := gamelink.Deletes[Player](b).Reader()
	return func() {
		for _, ev := range inserts.Read() {
			slog.Info("Player joined", "id", ev.Row.ID, "name", ev.Row.Name)
		}
		for _, ev := range updates.Read() {
			slog.Info("Player changed", "id", ev.New.ID, "score", ev.New.Score, "was", ev.Old.Score)
		}
		for _, ev := range deletes.Read() {
			slog.Info("Player left", "id", ev.Row.ID)
		}
	}
}

func onLeaderboardEvents(b *gamelink.Bridge) engine.System {
	inserts := gamelink.Inserts[LeaderboardRow](b).Reader()
	updates := gamelink.Updates[LeaderboardRow](b).Reader()
	deletes := gamelink.Deletes[LeaderboardRow](b).Reader()
	return func() {
		for _, ev := range inserts.Read() {
			slog.Info("Leaderboard entry", "player", ev.Row.PlayerID, "rank", ev.Row.Rank)
		}
		for _, ev := range updates.Read() {
			slog.Info("Leaderboard moved", "player", ev.New.PlayerID, "rank", ev.New.Rank, "was", ev.Old.Rank)
		}
		for _, ev := range deletes.Read() {
			slog.Info("Leaderboard exit", "player", ev.Row.PlayerID)
		}
	}
}

func onGsRegister(b *gamelink.Bridge) engine.System {
	results := gamelink.ReducerResults[GsRegisterResult](b).Reader()
	return func() {
		for _, ev := range results.Read() {
			if ev.Err != nil {
				slog.Error("Game server registration failed", "error", ev.Err)
				continue
			}
			slog.Info("Game server registered", "ip", ev.Result.IP, "port", ev.Result.Port)
		}
	}
}
