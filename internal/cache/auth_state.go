package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// StaffAuthState 员工鉴权快照。仅作为服务端缓存，避免每个请求都查库。
type StaffAuthState struct {
	StaffID   uint   `json:"staff_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	UpdatedAt int64  `json:"updated_at"`
}

func staffAuthStateKey(staffID uint) string {
	return fmt.Sprintf("auth:staff:%d", staffID)
}

// BuildStaffAuthState 从用户模型构建鉴权快照
func BuildStaffAuthState(user *models.User) *StaffAuthState {
	if user == nil {
		return nil
	}
	return &StaffAuthState{
		StaffID:   user.ID,
		Username:  user.Username,
		Role:      user.Role,
		IsActive:  user.IsActive,
		UpdatedAt: time.Now().Unix(),
	}
}

// GetStaffAuthState 读取员工鉴权快照
func GetStaffAuthState(ctx context.Context, staffID uint) (*StaffAuthState, bool) {
	if staffID == 0 || !Enabled() {
		return nil, false
	}
	var state StaffAuthState
	found, err := GetJSON(ctx, staffAuthStateKey(staffID), &state)
	if err != nil || !found {
		return nil, false
	}
	return &state, true
}

// SetStaffAuthState 写入员工鉴权快照
func SetStaffAuthState(ctx context.Context, state *StaffAuthState) {
	if state == nil || state.StaffID == 0 || !Enabled() {
		return
	}
	_ = SetJSON(ctx, staffAuthStateKey(state.StaffID), state, authStateCacheTTL)
}

// InvalidateStaffAuthState 失效员工鉴权快照
func InvalidateStaffAuthState(ctx context.Context, staffID uint) {
	if staffID == 0 || !Enabled() {
		return
	}
	_ = Del(ctx, staffAuthStateKey(staffID))
}
