package postgres

import (
	"context"
	"errors"

	customErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	"github.com/feelflow/auth-service/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const uniqueViolation = "23505"

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Open connects to Postgres with driver errors translated to gorm sentinels.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		if isDuplicate(err) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("email = ?", email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByEmail")
	}

	return u, nil
}

// GetProfileByID never selects the password hash.
func (p *PostgresUserRepo) GetProfileByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	var pr model.Profile
	res := p.db.WithContext(ctx).
		Model(&model.User{}).
		Select("username", "email", "created_at").
		Where("id = ?", id).
		Take(&pr)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Profile{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Profile{}, customErrors.WrapInternal(err, "GetProfileByID")
	}

	return pr, nil
}

func (p *PostgresUserRepo) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return customErrors.WrapInternal(err, "Ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return customErrors.WrapInternal(err, "Ping")
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
