package graphql

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/auragate/parking-backend/internal/api/middleware"
)

// request is the standard GraphQL-over-HTTP POST body.
type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes GraphQL requests against the compiled schema.
type Handler struct {
	schema graphql.Schema
	log    zerolog.Logger
}

func NewHandler(r *Resolver, log zerolog.Logger) (*Handler, error) {
	schema, err := NewSchema(r)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema, log: log}, nil
}

// Execute handles POST /graphql. Errors from resolvers are reported in the
// standard "errors" array with HTTP 200, per GraphQL convention; only a
// malformed request body is rejected at the HTTP level.
func (h *Handler) Execute(c echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed graphql request")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing graphql query")
	}

	userID, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	ctx := WithIdentity(c.Request().Context(), userID, role)

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	if result.HasErrors() {
		for _, gqlErr := range result.Errors {
			h.log.Debug().
				Str("operation", req.OperationName).
				Str("error", gqlErr.Message).
				Msg("graphql request failed")
		}
	}
	return c.JSON(http.StatusOK, result)
}
