package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"song-trivia-service/internal/app"
	"song-trivia-service/internal/config"
	"song-trivia-service/internal/domain"
	"song-trivia-service/internal/infra/memory"
	redisinfra "song-trivia-service/internal/infra/redis"
	"song-trivia-service/internal/infra/spotify"
	transport "song-trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		log.Printf("config %s not found, using defaults", configPath)
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 30*time.Minute)

	var tracks app.TrackSource
	if cfg.Provider.ClientID != "" {
		tracks = spotify.New(spotify.Config{
			BaseURL:      cfg.Provider.BaseURL,
			TokenURL:     cfg.Provider.TokenURL,
			ClientID:     cfg.Provider.ClientID,
			ClientSecret: cfg.Provider.ClientSecret,
		})
	} else {
		log.Printf("no provider credentials, serving the built-in demo catalog")
		tracks = memory.NewStaticTrackSource(demoPlaylists(), demoTracks())
	}
	if redisClient != nil {
		tracks = redisinfra.NewPlaylistCache(redisClient, tracks, redisTTL)
	}

	var rooms app.RoomRepository
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	timing := app.DefaultTiming()
	timing.AnswerTimeout = config.Duration(cfg.Game.AnswerTimeout, timing.AnswerTimeout)
	timing.GracePeriod = config.Duration(cfg.Game.GracePeriod, timing.GracePeriod)
	pollInterval := config.Duration(cfg.Game.PollInterval, 100*time.Millisecond)

	service := app.NewRoomService(rooms, tracks, timing, cfg.Game.DefaultQuestions)
	wsHandler := transport.NewWSHandler(service, pollInterval)
	handler := transport.NewRouter(service, wsHandler)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket sessions outlive any sane value
	}

	go func() {
		log.Printf("starting song trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// demoPlaylists and demoTracks back the zero-config demo mode.
func demoPlaylists() []domain.Playlist {
	return []domain.Playlist{
		{ID: "demo", Name: "Demo Hits", Owner: "song-trivia-service"},
	}
}

func demoTracks() map[string][]domain.Track {
	return map[string][]domain.Track{
		"demo": {
			{ID: "t01", Name: "Midnight Drive", Artist: "Neon Harbor", Album: "City Lights", PreviewURL: "https://example.com/p/t01", Popularity: 88},
			{ID: "t02", Name: "Paper Planes at Dawn", Artist: "The Lowline", Album: "Terminal", PreviewURL: "https://example.com/p/t02", Popularity: 84},
			{ID: "t03", Name: "Glasshouse", Artist: "Mara Vell", Album: "Orchard", PreviewURL: "https://example.com/p/t03", Popularity: 81},
			{ID: "t04", Name: "Static Bloom", Artist: "Copper Era", Album: "Signals", PreviewURL: "https://example.com/p/t04", Popularity: 79},
			{ID: "t05", Name: "Second Summer", Artist: "June Motel", Album: "Postcards", PreviewURL: "https://example.com/p/t05", Popularity: 77},
			{ID: "t06", Name: "Wires", Artist: "Field Atlas", Album: "Northern", PreviewURL: "https://example.com/p/t06", Popularity: 74},
			{ID: "t07", Name: "Hollow Coast", Artist: "Saltworks", Album: "Tides", PreviewURL: "https://example.com/p/t07", Popularity: 72},
			{ID: "t08", Name: "Afterglow Arcade", Artist: "Pixel Choir", Album: "Replay", PreviewURL: "https://example.com/p/t08", Popularity: 70},
			{ID: "t09", Name: "Ghost Station", Artist: "The Lowline", Album: "Terminal", PreviewURL: "https://example.com/p/t09", Popularity: 67},
			{ID: "t10", Name: "Cobalt", Artist: "Mara Vell", Album: "Orchard", PreviewURL: "https://example.com/p/t10", Popularity: 65},
			{ID: "t11", Name: "Slow Parade", Artist: "Neon Harbor", Album: "City Lights", PreviewURL: "https://example.com/p/t11", Popularity: 62},
			{ID: "t12", Name: "Borrowed Time", Artist: "Copper Era", Album: "Signals", PreviewURL: "https://example.com/p/t12", Popularity: 58},
		},
	}
}
