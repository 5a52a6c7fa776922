package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	echoadapter "github.com/awslabs/aws-lambda-go-api-proxy/echo"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/bzimmer/nutrition"
)

// token produces a random token of length `n`
func token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func analyzer(c *cli.Context, src *nutrition.ConfigSource) (nutrition.ImageAnalyzer, error) {
	opts := []openai.Option{
		openai.WithToken(c.String("openai-token")),
		openai.WithModel(c.String("openai-model")),
	}
	if c.IsSet("openai-base-url") {
		opts = append(opts, openai.WithBaseURL(c.String("openai-base-url")))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return nutrition.NewVisionAnalyzer(llm, func() *nutrition.AnalyzerConfig {
		return &src.Config().Analyzer
	}), nil
}

func newEngine(c *cli.Context) (*echo.Echo, error) {
	src, err := nutrition.NewConfigSource(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.Bool("watch") {
		if err = src.Watch(c.Context.Done()); err != nil {
			return nil, err
		}
	}
	state, err := token(16)
	if err != nil {
		return nil, err
	}
	repo, err := nutrition.Open(c.String("db"))
	if err != nil {
		return nil, err
	}
	an, err := analyzer(c, src)
	if err != nil {
		return nil, err
	}

	baseURL := c.String("base-url")
	store := sessions.NewCookieStore([]byte(c.String("session-key")))
	config := &oauth2.Config{
		ClientID:     c.String("client-id"),
		ClientSecret: c.String("client-secret"),
		Scopes:       c.StringSlice("scope"),
		RedirectURL:  baseURL + "/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.String("auth-url"),
			TokenURL: c.String("token-url"),
		}}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	svc := nutrition.NewService(repo, an, src.Config, baseURL)

	engine := echo.New()
	engine.HideBanner = true
	engine.Use(nutrition.RequestLogger())
	engine.Use(session.Middleware(store))

	base := engine.Group(u.Path)
	base.GET("/auth/login", nutrition.LoginHandler(config, state))
	base.GET("/auth/logout", nutrition.LogoutHandler(svc, baseURL))
	base.GET("/auth/callback", nutrition.AuthCallbackHandler(config, state, baseURL,
		nutrition.UserInfo(config, c.String("userinfo-url"))))
	nutrition.Routes(base, svc, nutrition.RequireUser())

	crs := cors.New(cors.Options{
		AllowedOrigins:   c.StringSlice("origin"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	engine.Pre(echo.WrapMiddleware(crs.Handler))

	return engine, nil
}

func serve(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	u, err := url.Parse(c.String("base-url"))
	if err != nil {
		return err
	}
	_, port, _ := net.SplitHostPort(u.Host)
	address := fmt.Sprintf("0.0.0.0:%s", port)
	log.Info().Str("address", address).Msg("serving")
	return http.ListenAndServe(address, engine)
}

func function(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	log.Info().Msg("running function")
	el := echoadapter.New(engine)
	lambda.Start(nutrition.LambdaHandler(el))
	return nil
}

func main() {
	app := &cli.App{
		Name:     "nutrition",
		HelpName: "nutrition",
		Usage:    "Diet tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "client-id",
				Required: true,
				Usage:    "client id",
				EnvVars:  []string{"NUTRITION_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:     "client-secret",
				Required: true,
				Usage:    "client secret",
				EnvVars:  []string{"NUTRITION_CLIENT_SECRET"},
			},
			&cli.StringFlag{
				Name:     "auth-url",
				Required: true,
				Usage:    "oauth authorization endpoint",
				EnvVars:  []string{"NUTRITION_AUTH_URL"},
			},
			&cli.StringFlag{
				Name:     "token-url",
				Required: true,
				Usage:    "oauth token endpoint",
				EnvVars:  []string{"NUTRITION_TOKEN_URL"},
			},
			&cli.StringFlag{
				Name:     "userinfo-url",
				Required: true,
				Usage:    "oauth userinfo endpoint",
				EnvVars:  []string{"NUTRITION_USERINFO_URL"},
			},
			&cli.StringSliceFlag{
				Name:  "scope",
				Value: cli.NewStringSlice("openid", "profile"),
				Usage: "oauth scopes",
			},
			&cli.StringFlag{
				Name:     "session-key",
				Required: true,
				Usage:    "session keypair",
				EnvVars:  []string{"NUTRITION_SESSION_KEY"},
			},
			&cli.StringFlag{
				Name:    "base-url",
				Value:   "http://localhost:9001",
				Usage:   "Base URL",
				EnvVars: []string{"BASE_URL"},
			},
			&cli.StringSliceFlag{
				Name:    "origin",
				Value:   cli.NewStringSlice("http://localhost:5173"),
				Usage:   "allowed CORS origins",
				EnvVars: []string{"NUTRITION_ORIGINS"},
			},
			&cli.StringFlag{
				Name:     "openai-token",
				Required: true,
				Usage:    "vision model api token",
				EnvVars:  []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "openai-model",
				Value:   "gpt-4o-mini",
				Usage:   "vision model",
				EnvVars: []string{"OPENAI_MODEL"},
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "vision model api base url",
				EnvVars: []string{"OPENAI_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Value:   "nutrition.db",
				Usage:   "sqlite database file",
				EnvVars: []string{"NUTRITION_DB"},
			},
			&cli.BoolFlag{
				Name:    "netlify",
				Value:   false,
				Usage:   "run as a netlify function",
				EnvVars: []string{"NETLIFY"},
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "file with nutrition configuration parameters",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Value: false,
				Usage: "reload the config file when it changes",
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Value: "info",
				Usage: "log level",
			},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("verbosity"))
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			zerolog.DurationFieldUnit = time.Millisecond
			zerolog.DurationFieldInteger = false
			log.Logger = log.Output(
				zerolog.ConsoleWriter{
					Out:        c.App.ErrWriter,
					NoColor:    false,
					TimeFormat: time.RFC3339,
				},
			)
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("netlify") {
				return function(c)
			}
			return serve(c)
		},
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
