package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyAdmin     = errors.New("user is already an admin")
	ErrAlreadyDeveloper = errors.New("user is already a developer")
	ErrNotAdmin         = errors.New("user is not an admin")
	ErrNotDeveloper     = errors.New("user is not a developer")
)

// RoleService answers owner/developer/admin questions. The hierarchy is
// owner > developer > admin: each role implies the ones below it.
type RoleService struct {
	db    *gorm.DB
	cfg   *config.Config
	users *UserService
}

func NewRoleService(db *gorm.DB, cfg *config.Config, users *UserService) *RoleService {
	return &RoleService{db: db, cfg: cfg, users: users}
}

func (s *RoleService) IsOwner(userID int64) bool {
	return userID == s.cfg.OwnerID
}

func (s *RoleService) IsDeveloper(ctx context.Context, userID int64) (bool, error) {
	if s.IsOwner(userID) || s.cfg.IsDeveloperID(userID) {
		return true, nil
	}
	return s.exists(ctx, &models.Developer{}, userID)
}

func (s *RoleService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	dev, err := s.IsDeveloper(ctx, userID)
	if err != nil || dev {
		return dev, err
	}
	return s.exists(ctx, &models.Admin{}, userID)
}

func (s *RoleService) exists(ctx context.Context, model interface{}, userID int64) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("role lookup: %w", err)
	}
	return n > 0, nil
}

// resolve turns a numeric id or @handle into an id and a handle. Numeric ids
// need not belong to a known user; handles must.
func (s *RoleService) resolve(ctx context.Context, identifier string) (int64, string, error) {
	identifier = strings.TrimSpace(identifier)
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if id <= 0 {
			return 0, "", ErrUserNotFound
		}
		u, err := s.users.Get(ctx, id)
		if errors.Is(err, ErrUserNotFound) {
			return id, "", nil
		}
		if err != nil {
			return 0, "", err
		}
		return id, u.Username, nil
	}
	u, err := s.users.GetByUsername(ctx, identifier)
	if err != nil {
		return 0, "", err
	}
	return u.UserID, u.Username, nil
}

func (s *RoleService) AddAdmin(ctx context.Context, identifier string, by int64) (*models.Admin, error) {
	id, username, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	isAdmin, err := s.IsAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return nil, ErrAlreadyAdmin
	}
	admin := models.Admin{UserID: id, Username: username, AddedBy: by}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAdmin
		}
		return nil, fmt.Errorf("add admin: %w", err)
	}
	slog.Info("admin added", "user_id", id, "by", by)
	return &admin, nil
}

func (s *RoleService) RemoveAdmin(ctx context.Context, userID int64, by int64) error {
	if s.IsOwner(userID) {
		return ErrOwnerProtected
	}
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Admin{})
	if res.Error != nil {
		return fmt.Errorf("remove admin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotAdmin
	}
	slog.Info("admin removed", "user_id", userID, "by", by)
	return nil
}

func (s *RoleService) AddDeveloper(ctx context.Context, identifier string, by int64) (*models.Developer, error) {
	id, username, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	isDev, err := s.IsDeveloper(ctx, id)
	if err != nil {
		return nil, err
	}
	if isDev {
		return nil, ErrAlreadyDeveloper
	}
	dev := models.Developer{UserID: id, Username: username, AddedBy: by}
	if err := s.db.WithContext(ctx).Create(&dev).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyDeveloper
		}
		return nil, fmt.Errorf("add developer: %w", err)
	}
	slog.Info("developer added", "user_id", id, "by", by)
	return &dev, nil
}

func (s *RoleService) RemoveDeveloper(ctx context.Context, userID int64, by int64) error {
	if s.IsOwner(userID) {
		return ErrOwnerProtected
	}
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Developer{})
	if res.Error != nil {
		return fmt.Errorf("remove developer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotDeveloper
	}
	slog.Info("developer removed", "user_id", userID, "by", by)
	return nil
}

func (s *RoleService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	if err := s.db.WithContext(ctx).Order("created_at").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (s *RoleService) ListDevelopers(ctx context.Context) ([]models.Developer, error) {
	var devs []models.Developer
	if err := s.db.WithContext(ctx).Order("created_at").Find(&devs).Error; err != nil {
		return nil, fmt.Errorf("list developers: %w", err)
	}
	return devs, nil
}

// AdminIDs returns every chat that should receive admin notifications: the
// owner, configured developers, and stored admins and developers.
func (s *RoleService) AdminIDs(ctx context.Context) ([]int64, error) {
	seen := map[int64]bool{}
	var ids []int64
	add := func(id int64) {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(s.cfg.OwnerID)
	for _, id := range s.cfg.DeveloperIDs {
		add(id)
	}

	var stored []int64
	if err := s.db.WithContext(ctx).Model(&models.Admin{}).Pluck("user_id", &stored).Error; err != nil {
		return nil, fmt.Errorf("list admin ids: %w", err)
	}
	for _, id := range stored {
		add(id)
	}
	var devs []int64
	if err := s.db.WithContext(ctx).Model(&models.Developer{}).Pluck("user_id", &devs).Error; err != nil {
		return nil, fmt.Errorf("list developer ids: %w", err)
	}
	for _, id := range devs {
		add(id)
	}
	return ids, nil
}

// SeedFromConfig records the owner as admin and the configured developer ids
// as developers so they appear in the panels.
func (s *RoleService) SeedFromConfig(ctx context.Context) error {
	db := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
	if s.cfg.OwnerID > 0 {
		if err := db.Create(&models.Admin{UserID: s.cfg.OwnerID, AddedBy: s.cfg.OwnerID}).Error; err != nil {
			return fmt.Errorf("seed owner: %w", err)
		}
	}
	for _, id := range s.cfg.DeveloperIDs {
		if err := db.Create(&models.Developer{UserID: id, AddedBy: s.cfg.OwnerID}).Error; err != nil {
			return fmt.Errorf("seed developer %d: %w", id, err)
		}
	}
	return nil
}
