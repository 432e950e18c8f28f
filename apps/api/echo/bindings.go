package echoapi

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/view"
)

// viewQuery holds the query parameters shared by every collection.
// Field filters are read by portal.Collection.StateFromQuery.
type viewQuery struct {
	Search   string `query:"search" validate:"max=200"`
	Ordering string `query:"ordering" validate:"ordering"`
	Page     string `query:"page" validate:"omitempty,numeric"`
	PageSize string `query:"page_size" validate:"omitempty,numeric"`
}

// bindViewState binds and validates the query parameters of ctx into the view state of c.
func bindViewState(ctx echo.Context, c portal.Collection, conf core.ViewConfig, validate *validator.Validate) (view.ViewState, error) {
	var q viewQuery
	if err := ctx.Bind(&q); err != nil {
		return view.ViewState{}, errors.Wrap(err, "binding view query")
	}
	if err := validate.Struct(q); err != nil {
		return view.ViewState{}, err
	}

	state, err := c.StateFromQuery(ctx.QueryParams(), conf.DefaultPageSize)
	if err != nil {
		return view.ViewState{}, err
	}
	if conf.MaxPageSize > 0 && state.PageSize > conf.MaxPageSize {
		return view.ViewState{}, core.NewFieldValidationError(portal.ParamPageSize, fmt.Sprintf("page_size must be %d or less", conf.MaxPageSize))
	}
	return state, nil
}
