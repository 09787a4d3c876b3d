package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/ctxutil"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// TokenService issues access tokens and turns them back into request identity.
type TokenService interface {
	Issue(ctx context.Context, user *types.User) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type tokenService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewTokenService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) TokenService {
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	return &tokenService{
		log:          log.With("service", "TokenService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (ts *tokenService) Issue(ctx context.Context, user *types.User) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", fmt.Errorf("issue token: missing user")
	}
	if strings.TrimSpace(ts.jwtSecretKey) == "" {
		return "", fmt.Errorf("issue token: jwt secret not configured")
	}
	now := ts.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(ts.jwtSecretKey))
}

// SetContextFromToken validates the token, loads the user row and attaches
// its identity to ctx. The process assignment always comes from storage,
// never from the token.
func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(ts.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	user, err := ts.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		ts.log.Warn("Error loading token user", "user_id", userID, "error", err)
		return ctx, fmt.Errorf("load token user: %w", err)
	}
	if user == nil {
		return ctx, fmt.Errorf("token user not found")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		Process:     user.Process,
		Role:        user.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (ts *tokenService) GetAccessTTL() time.Duration {
	return ts.accessTTL
}
