package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"teamfin/internal/core"
)

// bindJSON decodes the request body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid id %q", errBadRequest, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter. Missing yields uuid.Nil.
func queryUUID(c *gin.Context, name string) (uuid.UUID, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (bool, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return b, nil
}

// parseUUIDs parses a list of IDs from a request body.
func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", errBadRequest, s)
		}
		out = append(out, id)
	}
	return out, nil
}

// moneyOf builds an amount in minor units. An empty currency falls back to
// fallback.
func moneyOf(minor int64, currency string, fallback core.Currency) (core.Money, error) {
	cur := fallback
	if strings.TrimSpace(currency) != "" {
		var err error
		if cur, err = core.ParseCurrency(currency); err != nil {
			return core.Money{}, err
		}
	}
	return core.NewMoney(minor, cur)
}
