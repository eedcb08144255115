package users

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// AuthMiddleware validates JWT token and adds user to context
func AuthMiddleware(userService *UserService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			ctx.Abort()
			return
		}

		// Remove "Bearer " prefix if present
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		user, err := userService.GetUserFromToken(token)
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			ctx.Abort()
			return
		}

		ctx.Set("user", user)
		ctx.Next()
	}
}

func RequireRole(requiredRole UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userInterface, exists := ctx.Get("user")
		if !exists {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			ctx.Abort()
			return
		}

		user, ok := userInterface.(*User)
		if !ok {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
			ctx.Abort()
			return
		}

		if user.Role != requiredRole {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

// GetUserFromContext helper function to extract user from gin context
func GetUserFromContext(ctx *gin.Context) (*User, bool) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		return nil, false
	}

	user, ok := userInterface.(*User)

	return user, ok
}

// LoginThrottle limits sign-in attempts per client IP to slow down
// credential stuffing. Limiters for idle IPs are dropped periodically.
type LoginThrottle struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func NewLoginThrottle(perMinute int, burst int) *LoginThrottle {
	return &LoginThrottle{
		limiters:  make(map[string]*rate.Limiter),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (t *LoginThrottle) limiterFor(clientIP string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastSweep) > 10*time.Minute {
		t.limiters = make(map[string]*rate.Limiter)
		t.lastSweep = time.Now()
	}

	limiter, exists := t.limiters[clientIP]
	if !exists {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[clientIP] = limiter
	}

	return limiter
}

func (t *LoginThrottle) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !t.limiterFor(ctx.ClientIP()).Allow() {
			ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts, try again later"})
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
