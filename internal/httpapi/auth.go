package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/service"
)

const tokenIssuer = "tillpos"

var errUnauthorized = errors.New("missing or invalid bearer token")

// AuthManager signs and verifies access tokens. Passwords are checked by
// the service; the manager only deals with tokens.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

type tillClaims struct {
	jwtlib.RegisteredClaims
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration) *AuthManager {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs an HS256 token for actor.
func (a *AuthManager) Issue(actor domain.Actor) (domain.LoginResponse, error) {
	issuedAt := a.now()
	expiresAt := issuedAt.Add(a.tokenTTL)
	claims := tillClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   actor.Username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwtlib.NewNumericDate(issuedAt),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
		UserID: actor.UserID,
		Role:   actor.Role,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		Role:        actor.Role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &tillClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" || claims.UserID == 0 {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{UserID: claims.UserID, Username: sub, Role: claims.Role}, nil
}

// requireAuth resolves the bearer token into an actor on the request
// context. Role checks happen in the service.
func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(authorization) < len("Bearer ") || !strings.EqualFold(authorization[:len("Bearer ")], "bearer ") {
			abortWithError(c, http.StatusUnauthorized, errUnauthorized)
			return
		}

		actor, err := a.auth.ParseToken(strings.TrimSpace(authorization[len("Bearer "):]))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err)
			return
		}

		c.Set(actorKey, actor)
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// rateLimit counts every request per client IP against l.
func rateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		result, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			requestLogger(c).Error("rate limit lookup failed", zap.String("ip", ip), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		if result.Reached {
			requestLogger(c).Warn("rate limit exceeded", zap.String("ip", ip), zap.Int64("limit", result.Limit))
			c.Header("Retry-After", strconv.FormatInt(max(result.Reset-time.Now().Unix(), 1), 10))
			abortWithError(c, http.StatusTooManyRequests, errors.New("too many login attempts"))
			return
		}
		c.Next()
	}
}

func (a *API) handleLogin(c *gin.Context) {
	var req domain.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	actor, err := a.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLogger(c).Info("login rejected", zap.String("username", req.Username))
		}
		writeError(c, err)
		return
	}

	resp, err := a.auth.Issue(actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
