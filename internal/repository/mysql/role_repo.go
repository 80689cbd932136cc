package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

// RoleRepository 身份库里的社区管理员角色，角色名即社区ID
type RoleRepository struct {
	DB *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{DB: db}
}

// CreateCommunityAdminRole 幂等地创建角色并授予创建者
func (r *RoleRepository) CreateCommunityAdminRole(ctx context.Context, communityID, userID string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role := model.Role{Name: communityID, CommunityID: communityID}
		if err := tx.Where("name = ?", communityID).FirstOrCreate(&role).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.UserRole{UserID: userID, RoleID: role.ID}).Error
	})
	return pkg.Store("role.create", err)
}

// DeleteCommunityRole 删除角色及其授权；不存在视为成功
func (r *RoleRepository) DeleteCommunityRole(ctx context.Context, communityID string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint64
		if err := tx.Model(&model.Role{}).Where("community_id = ?", communityID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("role_id IN ?", ids).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Role{}).Error
	})
	return pkg.Store("role.delete", err)
}

func (r *RoleRepository) HasRole(ctx context.Context, userID, communityID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.community_id = ?", userID, communityID).
		Count(&n).Error
	return n > 0, pkg.Store("role.has", err)
}
