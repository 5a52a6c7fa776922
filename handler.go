package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	sessionName = "default"
	userKey     = "user"
)

// UserFunc resolves the identity of the token's owner
type UserFunc func(ctx context.Context, t *oauth2.Token) (string, error)

// UserInfo returns a UserFunc querying the provider's userinfo endpoint
func UserInfo(c *oauth2.Config, url string) UserFunc {
	return func(ctx context.Context, t *oauth2.Token) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		res, err := c.Client(ctx, t).Do(req)
		if err != nil {
			return "", err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return "", fmt.Errorf("userinfo: %s", res.Status)
		}
		var info struct {
			Sub string          `json:"sub"`
			ID  json.RawMessage `json:"id"`
		}
		if err = json.NewDecoder(res.Body).Decode(&info); err != nil {
			return "", err
		}
		if info.Sub != "" {
			return info.Sub, nil
		}
		var id any
		if len(info.ID) > 0 {
			if err = json.Unmarshal(info.ID, &id); err != nil {
				return "", err
			}
		}
		switch v := id.(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
		return "", errors.New("userinfo: no subject")
	}
}

// LoginHandler redirects to the oauth provider's credential acceptance page
func LoginHandler(c *oauth2.Config, state string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusFound, c.AuthCodeURL(state))
	}
}

// AuthCallbackHandler receives the callback from the oauth provider with the credentials
func AuthCallbackHandler(c *oauth2.Config, state, baseURL string, user UserFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if s := ctx.FormValue("state"); s != state {
			return echo.NewHTTPError(http.StatusBadRequest, "State invalid")
		}

		code := ctx.FormValue("code")
		if code == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Code not found")
		}

		token, err := c.Exchange(ctx.Request().Context(), code)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		id, err := user(ctx.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		sess, err := session.Get(sessionName, ctx)
		if err != nil {
			return err
		}
		sess.Values[userKey] = id
		if err = sess.Save(ctx.Request(), ctx.Response()); err != nil {
			return err
		}
		log.Info().Str("user", id).Msg("login")
		return ctx.Redirect(http.StatusFound, baseURL+"/")
	}
}

// LogoutHandler clears the session and drops the user's cached state
func LogoutHandler(svc *Service, baseURL string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess, err := session.Get(sessionName, ctx)
		if err != nil {
			return err
		}
		if id, ok := sess.Values[userKey].(string); ok {
			svc.Forget(id)
			log.Info().Str("user", id).Msg("logout")
		}
		delete(sess.Values, userKey)
		sess.Options.MaxAge = -1
		if err = sess.Save(ctx.Request(), ctx.Response()); err != nil {
			return err
		}
		return ctx.Redirect(http.StatusFound, baseURL+"/")
	}
}

// RequireUser rejects requests without an authenticated session user
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := session.Get(sessionName, ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized)
			}
			id, ok := sess.Values[userKey].(string)
			if !ok || id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized)
			}
			ctx.Set(userKey, id)
			return next(ctx)
		}
	}
}

func currentUser(ctx echo.Context) string {
	id, _ := ctx.Get(userKey).(string)
	return id
}
