package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// アクセストークンに入れる情報。
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthUsecase struct {
	users repo.UserRepository

	jwtSecret []byte
	tokenTTL  time.Duration

	now func() time.Time
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register はユーザー登録。メールは小文字化して保存する。
func (u *AuthUsecase) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewHTTPError(http.StatusBadRequest, CodeValidation, "a valid email is required")
	}
	if len(password) < 8 {
		return nil, NewHTTPError(http.StatusBadRequest, CodeValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	err = u.users.Create(ctx, user)
	if errors.Is(err, repo.ErrConflict) {
		return nil, NewHTTPError(http.StatusConflict, CodeConflict, "Email already registered")
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login はメール＋パスワードで認証してアクセストークンを返す。
// メール不在とパスワード不一致は同じエラーにする（存在を漏らさない）。
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !user.IsActive {
		return "", nil, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "invalid email or password")
	}

	now := u.now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := u.issueToken(user, now)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Me はトークンのユーザー本体を返す。
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewHTTPError(http.StatusNotFound, CodeNotFound, "User not found")
	}
	return user, nil
}

func (u *AuthUsecase) issueToken(user *model.User, now time.Time) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.jwtSecret)
}
