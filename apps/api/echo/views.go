package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
)

type viewApi struct {
	svc      *portal.Service
	conf     core.ViewConfig
	validate *validator.Validate
}

func registerViewAPI(
	g *echo.Group,
	svc *portal.Service,
	conf core.ViewConfig,
	validate *validator.Validate,
	mw ...echo.MiddlewareFunc,
) {
	api := viewApi{
		svc:      svc,
		conf:     conf,
		validate: validate,
	}

	ag := g.Group("", mw...)
	ag.GET("/collections", api.collections)
	ag.GET("/:collection", api.list)
}

// Handlers

func (api *viewApi) collections(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	colls := portal.Visible(sess)
	if colls == nil {
		colls = []portal.Collection{}
	}
	return ctx.JSON(http.StatusOK, colls)
}

func (api *viewApi) list(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	c, err := portal.Lookup(ctx.Param("collection"))
	if err != nil {
		return err
	}
	if !c.Allows(sess) {
		return portal.ErrForbidden
	}

	state, err := bindViewState(ctx, c, api.conf, api.validate)
	if err != nil {
		return err
	}
	listing, err := api.svc.List(ctx.Request().Context(), sess, c, state)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, listing)
}
