package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/flashdeck/flashdeck"
)

func main() {
	_ = godotenv.Load()

	cfg := LoadEnvConfig()

	ctx := context.Background()

	bunDB, err := openDatabase(cfg.GetDSN())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer bunDB.Close()

	if err := flashdeck.RunMigrations(ctx, bunDB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	repo := flashdeck.NewRepositoryManager(bunDB)
	repo.MustValidate()

	hasher := flashdeck.NewHasher(cfg.GetPasswordPepper())
	provider := flashdeck.NewUserProvider(repo.Users(), hasher)
	auther := flashdeck.NewAuthenticator(provider, cfg)

	httpAuth, err := flashdeck.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		log.Fatalf("http authenticator: %v", err)
	}

	registrar := flashdeck.NewRegisterUserHandler(repo, hasher)

	srv := newServer()
	registerRoutes(srv.Router(), repo, hasher, httpAuth, registrar)

	go func() {
		if err := srv.Serve(cfg.GetListenAddr()); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	WaitExitSignal()
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func newServer() router.Server[*fiber.App] {
	engine := django.New("./views", ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	return srv
}

func registerRoutes(
	r router.Router[*fiber.App],
	repo flashdeck.RepositoryManager,
	hasher flashdeck.PasswordAuthenticator,
	httpAuth *flashdeck.RouteAuthenticator,
	registrar *flashdeck.RegisterUserHandler,
) {
	authController := flashdeck.NewAuthController(
		flashdeck.WithAuthRepo(repo),
		flashdeck.WithAuthRegistrar(registrar),
		flashdeck.WithAuthRouteAuthenticator(httpAuth),
	)

	flashdeck.RegisterAuthRoutes(r, authController)
	flashdeck.RegisterSetRoutes(r, flashdeck.NewSetsController(repo, httpAuth, nil))
	flashdeck.RegisterFlashcardRoutes(r, flashdeck.NewFlashcardsController(repo, httpAuth, nil))
	flashdeck.RegisterFriendRoutes(r, flashdeck.NewFriendsController(repo, httpAuth, nil))
	flashdeck.RegisterAdminRoutes(r, flashdeck.NewAdminController(repo, hasher, httpAuth, nil))
	flashdeck.RegisterPageRoutes(r, flashdeck.NewPagesController(repo, httpAuth, nil))

	r.Static("/public", "./public")
}

// WaitExitSignal blocks until the process receives a stop signal
func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
