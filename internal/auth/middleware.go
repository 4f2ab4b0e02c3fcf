package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"timekeeping-backend/internal/apperr"
	"timekeeping-backend/internal/model"
)

const actorKey = "actor"

// Middleware authenticates the request from its Authorization: Bearer header.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperr.Unauthenticated("missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abort(c, apperr.Unauthenticated("malformed authorization header"))
			return
		}

		actor, err := m.Parse(parts[1])
		if err != nil {
			abort(c, err)
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

// SetActor stores the authenticated caller on the request.
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// ActorFrom returns the caller stored by Middleware.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.ToResponse(err))
}
