package service

import (
	"context"
	"time"

	"assetms/internal/model"

	"gorm.io/gorm"
)

type GroupCount struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Total     int64  `json:"total"`
	Taken     int64  `json:"taken"`
}

type StatisticsResponse struct {
	TotalProducts     int64        `json:"total_products"`
	FreeProducts      int64        `json:"free_products"`
	TakenProducts     int64        `json:"taken_products"`
	TotalEmployees    int64        `json:"total_employees"`
	IssuesLast30Days  int64        `json:"issues_last_30_days"`
	ReturnsLast30Days int64        `json:"returns_last_30_days"`
	ProductsByGroup   []GroupCount `json:"products_by_group"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates inventory and ledger counts for the dashboard
func (s *statisticsService) GetStatistics(ctx context.Context) (StatisticsResponse, error) {
	var response StatisticsResponse

	s.db.WithContext(ctx).Model(&model.Product{}).Count(&response.TotalProducts)
	s.db.WithContext(ctx).Model(&model.Product{}).
		Where("status = ?", model.ProductFree).Count(&response.FreeProducts)
	s.db.WithContext(ctx).Model(&model.Product{}).
		Where("status = ?", model.ProductTaken).Count(&response.TakenProducts)
	s.db.WithContext(ctx).Model(&model.Employee{}).Count(&response.TotalEmployees)

	since := time.Now().AddDate(0, 0, -30)
	s.db.WithContext(ctx).Model(&model.AssetTransaction{}).
		Where("transaction_type = ? AND created_at >= ?", model.TxIssue, since).
		Count(&response.IssuesLast30Days)
	s.db.WithContext(ctx).Model(&model.AssetTransaction{}).
		Where("transaction_type = ? AND created_at >= ?", model.TxReturn, since).
		Count(&response.ReturnsLast30Days)

	var byGroup []GroupCount
	s.db.WithContext(ctx).Table("products").
		Select(`asset_groups.id as group_id, asset_groups.group_name as group_name,
			COUNT(products.id) as total,
			COUNT(products.id) FILTER (WHERE products.status = 'Taken') as taken`).
		Joins("JOIN asset_groups ON asset_groups.id = products.asset_group_id").
		Group("asset_groups.id, asset_groups.group_name").
		Order("total DESC").
		Scan(&byGroup)
	response.ProductsByGroup = byGroup

	return response, nil
}
