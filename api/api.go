package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	TokenID string `json:"token_id,omitempty"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
}

type QueryResponse struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

type PaginationParams struct {
	Page  int `schema:"page"`
	Limit int `schema:"limit"`
}

func writeError(c *gin.Context, message string, code int) {
	c.JSON(code, Error{
		Code:    code,
		Message: message,
	})
}

var (
	BadRequestErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusBadRequest)
	}
	NotFoundErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusNotFound)
	}
	InternalErrorHandler = func(c *gin.Context) {
		writeError(c, "An unexpected error occurred.", http.StatusInternalServerError)
	}
	BadGatewayErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusBadGateway)
	}
)

// ParsePaginationParams decodes page/limit from the query string.
func ParsePaginationParams(c *gin.Context) (PaginationParams, error) {
	params := PaginationParams{Limit: 25}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&params, c.Request.URL.Query()); err != nil {
		return PaginationParams{}, err
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 25
	}
	if params.Page < 0 {
		params.Page = 0
	}
	return params, nil
}
