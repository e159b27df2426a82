package server

import (
	goerrors "errors"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/server/response"
	"github.com/rushrhq/messaging/services/jwt"
	"gorm.io/gorm"
)

// Authorize validates the bearer token issued by the identity provider
// and loads the acting user into the request context. Every handler reads
// the user id from there explicitly; nothing downstream touches ambient
// auth state.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		claims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		idValue, ok := claims["id"].(string)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		userID, err := uuid.Parse(idValue)
		if err != nil {
			respondAndAbort(c, "invalid user id in token", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		user, err := s.UserRepository.FindUserByID(userID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
				return
			}
			respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		if !user.IsActive {
			respondAndAbort(c, "inactive user", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		c.Set("user", user)
		c.Set("userID", userID)
		c.Next()
	}
}

// RequireInternalToken guards the sweep/platform endpoints that external
// schedulers and collaborators call.
func (s *Server) RequireInternalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Internal-Token")
		if s.Config.InternalAPIToken == "" || token != s.Config.InternalAPIToken {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func limitRateForMessageSend(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			respondAndAbort(c, "too many messages, slow down", http.StatusTooManyRequests, nil,
				errs.New("rate limit exceeded, retry at "+info.ResetTime.Format(time.RFC3339), http.StatusTooManyRequests))
		},
		KeyFunc: keyFuncByUser,
	})
}

func keyFuncByUser(c *gin.Context) string {
	if userID, ok := currentUserID(c); ok {
		return userID.String()
	}
	return c.ClientIP()
}

// currentUserID reads the authenticated user id set by Authorize.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}

func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

// handleServiceError maps a service failure onto its HTTP status. Typed
// errors keep their status (notably 409 for a lost offer race vs 403 for
// a policy violation); anything untyped is a 500.
func handleServiceError(c *gin.Context, err error) {
	var e *errs.Error
	if goerrors.As(err, &e) {
		response.JSON(c, "", e.Status, nil, e)
		return
	}
	response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
}
