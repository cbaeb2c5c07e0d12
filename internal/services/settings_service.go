package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

var ErrInvalidSetting = errors.New("invalid setting value")

type SettingField string

const (
	FieldLinkLimit      SettingField = "link_limit"
	FieldReportLimit    SettingField = "report_limit"
	FieldReportCooldown SettingField = "report_cooldown"
	FieldLinkCodeLength SettingField = "link_code_length"
	FieldNotifications  SettingField = "notifications"
	FieldAutoClose      SettingField = "auto_close"
)

// setter converts raw operator input into a column assignment. Column names
// are fixed per field and never derived from input.
type setter func(raw string) (column string, value interface{}, err error)

func intSetter(column string, min, max int) setter {
	return func(raw string) (string, interface{}, error) {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q is not a number", ErrInvalidSetting, raw)
		}
		if n < min || n > max {
			return "", nil, fmt.Errorf("%w: must be between %d and %d", ErrInvalidSetting, min, max)
		}
		return column, n, nil
	}
}

func boolSetter(column string) setter {
	return func(raw string) (string, interface{}, error) {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "on", "true", "yes":
			return column, true, nil
		case "0", "off", "false", "no":
			return column, false, nil
		}
		return "", nil, fmt.Errorf("%w: expected on or off", ErrInvalidSetting)
	}
}

var setters = map[SettingField]setter{
	FieldLinkLimit:      intSetter("link_limit", 0, 10000),
	FieldReportLimit:    intSetter("report_limit", 1, 100),
	FieldReportCooldown: intSetter("report_cooldown_minutes", 0, 1440),
	FieldLinkCodeLength: intSetter("link_code_length", MinCodeLength, MaxCodeLength),
	FieldNotifications:  boolSetter("notifications"),
	FieldAutoClose:      boolSetter("auto_close"),
}

// Fields lists the updatable settings in display order.
func Fields() []SettingField {
	return []SettingField{
		FieldLinkLimit, FieldReportLimit, FieldReportCooldown,
		FieldLinkCodeLength, FieldNotifications, FieldAutoClose,
	}
}

func (f SettingField) Valid() bool {
	_, ok := setters[f]
	return ok
}

func (f SettingField) IsToggle() bool {
	return f == FieldNotifications || f == FieldAutoClose
}

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	var st models.Settings
	err := s.db.WithContext(ctx).First(&st, models.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := models.DefaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &st, nil
}

func (s *SettingsService) Set(ctx context.Context, field SettingField, raw string) (*models.Settings, error) {
	set, ok := setters[field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidSetting, field)
	}
	column, value, err := set(raw)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, column, value); err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

func (s *SettingsService) Toggle(ctx context.Context, field SettingField) (*models.Settings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	switch field {
	case FieldNotifications:
		return s.Set(ctx, field, strconv.FormatBool(!st.Notifications))
	case FieldAutoClose:
		return s.Set(ctx, field, strconv.FormatBool(!st.AutoClose))
	}
	return nil, fmt.Errorf("%w: %q is not a toggle", ErrInvalidSetting, field)
}

func (s *SettingsService) update(ctx context.Context, column string, value interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Settings{}).
		Where("id = ?", models.SettingsRowID).
		Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update setting %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		st := models.DefaultSettings()
		if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		return s.db.WithContext(ctx).Model(&models.Settings{}).
			Where("id = ?", models.SettingsRowID).
			Update(column, value).Error
	}
	return nil
}
