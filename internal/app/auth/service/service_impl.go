package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/feelflow/auth-service/internal/adapters/transport/http/dto"
	"github.com/feelflow/auth-service/internal/app/auth/password"
	customErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	"github.com/feelflow/auth-service/internal/domain/auth/jwt"
	"github.com/feelflow/auth-service/internal/domain/auth/model"
	repo "github.com/feelflow/auth-service/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type authService struct {
	userRepo repo.UserRepo
	jwtUtil  jwt.JWTUtil
	hasher   password.Hasher
	v        *validator.Validate
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.Session, error)
	Login(context.Context, dto.LoginDTO) (model.Session, error)
	Profile(ctx context.Context, token string) (model.Profile, error)
	Verify(context.Context, dto.VerifyDTO) (model.Identity, error)
}

func New(
	ur repo.UserRepo,
	jm jwt.JWTUtil,
	h password.Hasher,
	v *validator.Validate,
) Service {
	return &authService{
		userRepo: ur, jwtUtil: jm, hasher: h, v: v,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument(describe(err))
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if errors.Is(err, password.ErrUnsupported) {
		return model.Session{}, customErrors.NewInvalidArgument("password is too long")
	}
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
	}
	// the token is signed before the row exists so a signing failure leaves no account behind
	sess, err := a.issue(user.ID)
	if err != nil {
		return model.Session{}, err
	}
	if _, err := a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.Session{}, customErrors.NewDuplicate("email already registered")
		}
		return model.Session{}, customErrors.WrapInternal(err, "Register")
	}

	return sess, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	in.Email = normalizeEmail(in.Email)

	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument(describe(err))
	}

	// unknown email and wrong password must be indistinguishable to the caller
	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Session{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := a.hasher.Compare(in.Password, user.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.Session{}, customErrors.ErrInvalidCredentials
	}

	return a.issue(user.ID)
}

func (a *authService) Profile(ctx context.Context, token string) (model.Profile, error) {
	if token == "" {
		return model.Profile{}, customErrors.ErrMissingToken
	}

	_, uid, err := a.claims(token)
	if err != nil {
		return model.Profile{}, err
	}

	profile, err := a.userRepo.GetProfileByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Profile{}, customErrors.ErrNotFound
	case err != nil:
		return model.Profile{}, customErrors.WrapInternal(err, "Profile")
	}
	return profile, nil
}

func (a *authService) Verify(ctx context.Context, in dto.VerifyDTO) (model.Identity, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Identity{}, customErrors.NewInvalidArgument(describe(err))
	}

	claims, uid, err := a.claims(in.Token)
	if err != nil {
		return model.Identity{}, err
	}

	profile, err := a.userRepo.GetProfileByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Identity{}, customErrors.ErrNotFound
	case err != nil:
		return model.Identity{}, customErrors.WrapInternal(err, "Verify")
	}

	return model.Identity{
		UserID:    uid,
		Email:     profile.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *authService) claims(token string) (jwt.Claims, uuid.UUID, error) {
	claims, err := a.jwtUtil.ValidateToken(token)
	if err != nil {
		if customErrors.IsInternal(err) {
			return jwt.Claims{}, uuid.Nil, err
		}
		return jwt.Claims{}, uuid.Nil, customErrors.ErrInvalidToken
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return jwt.Claims{}, uuid.Nil, customErrors.ErrInvalidToken
	}
	return claims, uid, nil
}

func (a *authService) issue(uid uuid.UUID) (model.Session, error) {
	token, exp, err := a.jwtUtil.GenerateToken(uid)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "GenerateToken")
	}
	return model.Session{Token: token, ExpiresAt: exp, UserID: uid}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email address")
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
