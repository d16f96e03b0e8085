package repository

import "gorm.io/gorm"

// 单页条数上限，订单列表和对账单查询共用
const maxPageSize = 200

// applyPagination 统一分页，页码从 1 起，pageSize<=0 表示不分页
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
