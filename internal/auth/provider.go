package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/hrcadm/cadencecase/internal"
)

var ErrInvalidToken = errors.New("invalid token")

// UserKey is the gin context key holding the authenticated *internal.User.
const UserKey = "user"

type Provider interface {
	ValidateTokenLocal(token string) (*internal.User, error)
	ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error)
}

// UserFrom returns the user stored by AuthMiddleware, or nil.
func UserFrom(c *gin.Context) *internal.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*internal.User)
	return user
}
