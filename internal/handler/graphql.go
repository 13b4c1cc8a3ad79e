package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
)

// GraphQLHandler executes GraphQL requests against the schema.  Both POST
// bodies and GET query strings are accepted; errors are reported inside the
// response with status 200.  Mutations are refused over GET.
type GraphQLHandler struct {
	schema *graphql.Schema
}

// NewGraphQLHandler returns a handler serving schema.
func NewGraphQLHandler(schema *graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

type graphqlReq struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Serve handles POST /graphql with a JSON body and GET /graphql with the
// query, operationName and variables query parameters.
func (h *GraphQLHandler) Serve(c echo.Context) error {
	var req graphqlReq
	switch c.Request().Method {
	case http.MethodGet:
		req.Query = c.QueryParam("query")
		req.OperationName = c.QueryParam("operationName")
		if v := c.QueryParam("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "variables must be a JSON object"})
			}
		}
	default:
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query is required"})
	}
	if c.Request().Method == http.MethodGet && isMutation(req.Query, req.OperationName) {
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "mutations must be sent with POST"})
	}

	resp := h.schema.Exec(c.Request().Context(), req.Query, req.OperationName, req.Variables)
	return c.JSON(http.StatusOK, resp)
}

// isMutation reports whether the operation selected by name is a mutation.
// A document that does not parse is left to the executor to reject.
func isMutation(query, name string) bool {
	doc, perr := parser.ParseQuery(&ast.Source{Input: query})
	if perr != nil || doc == nil {
		return false
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op.Operation == ast.Mutation
	}
	for _, op := range doc.Operations {
		if op.Operation == ast.Mutation {
			return true
		}
	}
	return false
}
