package models

import (
	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultStaff 初始化默认管理员账号
func InitDefaultStaff(username, password string) error {
	var count int64
	DB.Model(&User{}).Where("role = ?", constants.StaffRoleManager).Count(&count)
	if count > 0 {
		return nil
	}

	if username == "" {
		username = "manager"
	}
	if password == "" {
		password = "manager123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staff := User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         username,
		Role:         constants.StaffRoleManager,
		IsActive:     true,
	}

	if err := DB.Create(&staff).Error; err != nil {
		return err
	}

	if password == "manager123" {
		logger.Warnw("default_staff_created_with_default_password", "username", username)
		logger.Warnw("default_staff_password_change_required", "username", username)
	} else {
		logger.Warnw("default_staff_created", "username", username, "password_hidden", true)
	}

	return nil
}
