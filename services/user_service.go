package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type UserInput struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
	Role     string `form:"role" json:"role"`
	Active   *bool  `form:"active" json:"active"`
}

type UserFilter struct {
	Role       string
	ActiveOnly bool
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Login checks the password and issues a JWT carrying the user's id and role.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("login", err)
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, &StoreError{Op: "login", Err: err}
	}
	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Username, user.Role)
	return &LoginResult{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("role asc, name asc")
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, actor Actor, in UserInput) (*models.User, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Username, user.Role)
	return user, nil
}

// EnsureAdmin creates the first admin account when the users table is empty.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return false, storeErr("ensure admin", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err := s.create(ctx, UserInput{
		Username: username,
		Password: password,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	utils.InfoLogger.Printf("Initial admin %q created", username)
	return true, nil
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)
	if username == "" || name == "" {
		return nil, validationf("username and name are required")
	}
	if !models.ValidRole(in.Role) {
		return nil, validationf("invalid role %q", in.Role)
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Role:         in.Role,
		Active:       true,
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueUsername(tx, username, 0); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, storeErr("create user", err)
	}
	return &user, nil
}

// Update edits a user. An empty password keeps the current one.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint, in UserInput) (*models.User, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&user, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if username := strings.TrimSpace(in.Username); username != "" && username != user.Username {
			if err := uniqueUsername(tx, username, user.ID); err != nil {
				return err
			}
			updates["username"] = username
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			updates["name"] = name
		}
		if in.Role != "" && in.Role != user.Role {
			if !models.ValidRole(in.Role) {
				return validationf("invalid role %q", in.Role)
			}
			if user.ID == actor.UserID {
				return validationf("you cannot change your own role")
			}
			if err := ensureNotServing(tx, &user); err != nil {
				return err
			}
			updates["role"] = in.Role
		}
		if in.Password != "" {
			hash, err := hashPassword(in.Password)
			if err != nil {
				return err
			}
			updates["password_hash"] = hash
		}
		if in.Active != nil && *in.Active != user.Active {
			if !*in.Active {
				if user.ID == actor.UserID {
					return validationf("you cannot deactivate your own account")
				}
				if err := ensureNotServing(tx, &user); err != nil {
					return err
				}
			}
			updates["active"] = *in.Active
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, user.ID).Error
	})
	if err != nil {
		return nil, storeErr("update user", err)
	}
	utils.InfoLogger.Printf("User %d updated", user.ID)
	return &user, nil
}

// Deactivate disables a login. Users are never hard-deleted because sales
// and attendance rows point at them.
func (s *UserService) Deactivate(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	inactive := false
	return s.Update(ctx, actor, id, UserInput{Active: &inactive})
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationf("password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", &StoreError{Op: "hash password", Err: err}
	}
	return string(hashed), nil
}

func uniqueUsername(tx *gorm.DB, username string, exceptID uint) error {
	var existing models.User
	err := tx.Where("username = ? AND id <> ?", username, exceptID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return validationf("username %s is already taken", username)
}

// ensureNotServing rejects role or status changes for a cast still seated
// with a customer.
func ensureNotServing(tx *gorm.DB, user *models.User) error {
	if user.Role != models.RoleCast {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Session{}).
		Where("cast_id = ? AND status = ?", user.ID, models.SessionStatusActive).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return conflictf("%s is serving an active session", user.Name)
	}
	return nil
}
