// Package controllers holds the gin handlers. Handlers parse the request,
// call one service method and write the result or the error envelope.
package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/middleware"
	"matatu_manager/internal/store"
)

// RespondError writes the standard error envelope for err.
func RespondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the body into dst, reporting malformed input as a 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, apperr.ValidationError{Kind: "invalid_request_body", Msg: "Invalid request body: " + err.Error(), Err: err})
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apperr.ValidationError{Kind: "invalid_id", Field: name, Msg: "must be a UUID", Err: err})
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query value. Absent means nil.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, apperr.ValidationError{Kind: "invalid_id", Field: name, Msg: "must be a UUID", Err: err})
		return nil, false
	}
	return &id, true
}

// queryIDs accepts both repeated values and comma separated lists.
func queryIDs(c *gin.Context, name string) ([]uuid.UUID, bool) {
	var out []uuid.UUID
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				RespondError(c, apperr.ValidationError{Kind: "invalid_id", Field: name, Msg: "every value must be a UUID", Err: err})
				return nil, false
			}
			out = append(out, id)
		}
	}
	return out, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		RespondError(c, apperr.ValidationError{Field: name, Msg: "must be an integer", Err: err})
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}

// page reads skip and limit. Limit defaults to 100 and is capped at 1000.
func page(c *gin.Context) (store.Page, bool) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return store.Page{}, false
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return store.Page{}, false
	}
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = 100
	case limit > 1000:
		limit = 1000
	}
	return store.Page{Offset: skip, Limit: limit}, true
}
