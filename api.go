package nutrition

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	maxImageSize   = 10 << 20
	maxHistoryDays = 90
)

// httpError maps domain errors to http errors
func httpError(err error) error {
	var code int
	switch {
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, ErrInvalidMeal):
		code = http.StatusBadRequest
	case errors.Is(err, ErrMealNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrSetupIncomplete):
		code = http.StatusConflict
	case errors.Is(err, ErrAnalysis):
		code = http.StatusBadGateway
	default:
		log.Error().Err(err).Msg("request")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error())
}

// PreviewHandler computes goals for a form without storing anything
func PreviewHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var form ProfileForm
		if err := c.Bind(&form); err != nil {
			return err
		}
		profile, err := form.Profile()
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, ComputeGoals(profile))
	}
}

func StatusHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		acct, err := svc.Account(c.Request().Context(), currentUser(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, acct)
	}
}

func SetupHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form ProfileForm
		if err := c.Bind(&form); err != nil {
			return err
		}
		acct, err := svc.Setup(c.Request().Context(), currentUser(c), &form)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, acct)
	}
}

func GoalsHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		goals, err := svc.Goals(c.Request().Context(), currentUser(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, goals)
	}
}

func ProgressHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		progress, err := svc.Progress(c.Request().Context(), currentUser(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, progress)
	}
}

func MealsHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		progress, err := svc.Progress(c.Request().Context(), currentUser(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, progress.Meals)
	}
}

func AddMealHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var entry MealEntry
		if err := c.Bind(&entry); err != nil {
			return err
		}
		entry.Source = Manual
		meal, err := svc.AddMeal(c.Request().Context(), currentUser(c), &entry)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusCreated, meal)
	}
}

func DeleteMealHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.DeleteMeal(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
			return httpError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// PhotoHandler logs a meal from the photo in the multipart field "image"
func PhotoHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "image is required")
		}
		if fh.Size > maxImageSize {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image is too large")
		}
		fp, err := fh.Open()
		if err != nil {
			return err
		}
		defer fp.Close()
		data, err := io.ReadAll(io.LimitReader(fp, maxImageSize))
		if err != nil {
			return err
		}
		ctype := http.DetectContentType(data)
		if !strings.HasPrefix(ctype, "image/") {
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %s", ctype))
		}
		meal, err := svc.LogPhoto(c.Request().Context(), currentUser(c), &Image{ContentType: ctype, Data: data})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusCreated, meal)
	}
}

func HistoryHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		days := 7
		if s := c.QueryParam("days"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > maxHistoryDays {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxHistoryDays))
			}
			days = n
		}
		history, err := svc.History(c.Request().Context(), currentUser(c), days)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, history)
	}
}

func ImageHandler(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		img, err := svc.Image(c.Request().Context(), c.Param("id"))
		if err != nil {
			return httpError(err)
		}
		if img == nil {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return c.Blob(http.StatusOK, img.ContentType, img.Data)
	}
}

// Routes registers the api and image routes; auth guards the user-specific routes
func Routes(g *echo.Group, svc *Service, auth echo.MiddlewareFunc) {
	g.POST("/api/goals/preview", PreviewHandler())
	g.GET("/images/:id", ImageHandler(svc))

	api := g.Group("/api", auth)
	api.GET("/status", StatusHandler(svc))
	api.POST("/setup", SetupHandler(svc))
	api.GET("/goals", GoalsHandler(svc))
	api.GET("/progress", ProgressHandler(svc))
	api.GET("/history", HistoryHandler(svc))
	api.GET("/meals", MealsHandler(svc))
	api.POST("/meals", AddMealHandler(svc))
	api.POST("/meals/photo", PhotoHandler(svc))
	api.DELETE("/meals/:id", DeleteMealHandler(svc))
}
