package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	appmw "github.com/shinyyama/harvest-market-backend/internal/middleware"
)

const dateLayout = "2006-01-02"

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

func validationFields(err error) map[string]string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make(map[string]string, len(ves))
	for _, ve := range ves {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

// bindRequest decodes and validates req. When it returns false the error
// response has already been written and its result must be returned.
func bindRequest(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(req); err != nil {
		resp := NewErrorResponse("validation_error", "request is invalid")
		resp.Error.Fields = validationFields(err)
		return false, c.JSON(http.StatusUnprocessableEntity, resp)
	}
	return true, nil
}

func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
}

func queryInt(c echo.Context, name string) int {
	v, _ := strconv.Atoi(c.QueryParam(name))
	return v
}

func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bindDate parses a yyyy-mm-dd field. When it returns false a 422 naming the
// field has already been written.
func bindDate(c echo.Context, field, s string) (*time.Time, bool, error) {
	t, err := parseDate(s)
	if err != nil {
		resp := NewErrorResponse("validation_error", "request is invalid")
		resp.Error.Fields = map[string]string{field: "datetime"}
		return nil, false, c.JSON(http.StatusUnprocessableEntity, resp)
	}
	return t, true, nil
}

func currentActor(c echo.Context) (identity.Actor, bool, error) {
	actor, ok := appmw.ActorFrom(c)
	if !ok {
		return nil, false, c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	return actor, true, nil
}

func requireVendor(c echo.Context) (identity.Vendor, bool, error) {
	actor, ok := appmw.ActorFrom(c)
	if !ok {
		return identity.Vendor{}, false, c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	v, ok := actor.(identity.Vendor)
	if !ok {
		return identity.Vendor{}, false, c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "vendor role required"))
	}
	return v, true, nil
}

func requireFarmer(c echo.Context) (identity.Farmer, bool, error) {
	actor, ok := appmw.ActorFrom(c)
	if !ok {
		return identity.Farmer{}, false, c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	f, ok := actor.(identity.Farmer)
	if !ok {
		return identity.Farmer{}, false, c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "farmer role required"))
	}
	return f, true, nil
}
