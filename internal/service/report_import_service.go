package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/logger"
	"github.com/oneinfo/affiliate-backend/internal/models"
	"github.com/oneinfo/affiliate-backend/internal/queue"
	"github.com/oneinfo/affiliate-backend/internal/repository"

	"github.com/xuri/excelize/v2"
)

// reportColumnAliases 表头别名 -> 标准列名
var reportColumnAliases = map[string]string{
	"order_id":     "order_id",
	"orderid":      "order_id",
	"short_code":   "short_code",
	"shortcode":    "short_code",
	"sub_id":       "short_code",
	"subid":        "short_code",
	"creator_id":   "creator_id",
	"creatorid":    "creator_id",
	"product_name": "product_name",
	"productname":  "product_name",
	"order_value":  "order_value",
	"ordervalue":   "order_value",
	"category":     "category",
	"status":       "status",
}

var reportRequiredColumns = []string{"order_id", "order_value", "category"}

// ReportRowError 单行解析错误
type ReportRowError struct {
	Row     int    `json:"row"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message"`
}

// ReportImportResult 报表导入结果
type ReportImportResult struct {
	Platform   string           `json:"platform"`
	TotalRows  int              `json:"total_rows"`
	Enqueued   int              `json:"enqueued"`
	Duplicates int              `json:"duplicates"`
	Errors     []ReportRowError `json:"errors"`
}

// ReportImportService 联盟平台订单报表导入（csv / xlsx）
type ReportImportService struct {
	orderRepo repository.OrderRepository
	enqueuer  OrderJobEnqueuer
}

// NewReportImportService 创建报表导入服务
func NewReportImportService(orderRepo repository.OrderRepository, enqueuer OrderJobEnqueuer) *ReportImportService {
	return &ReportImportService{orderRepo: orderRepo, enqueuer: enqueuer}
}

// Import 解析报表并逐行投递入库任务；单行失败不影响其他行
func (s *ReportImportService) Import(ctx context.Context, platform, filename string, reader io.Reader) (*ReportImportResult, error) {
	platform = NormalizeRuleKey(platform)
	if platform == "" {
		return nil, fmt.Errorf("%w: platform is required", ErrInvalidInput)
	}
	rows, err := readReportRows(filename, reader)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrReportHeaderInvalid
	}
	columns, err := mapReportHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ReportImportResult{Platform: platform, Errors: []ReportRowError{}}
	for i, row := range rows[1:] {
		rowNumber := i + 2
		if isBlankRow(row) {
			continue
		}
		result.TotalRows++
		payload, err := buildReportPayload(platform, columns, row)
		if err != nil {
			result.Errors = append(result.Errors, ReportRowError{Row: rowNumber, OrderID: payload.OrderID, Message: err.Error()})
			continue
		}
		if payload.Status == "" {
			exists, err := s.orderRepo.ExistsByOrderID(payload.OrderID)
			if err != nil {
				return nil, err
			}
			if exists {
				result.Duplicates++
				continue
			}
		}
		if err := s.enqueuer.EnqueueCreateOrder(payload); err != nil {
			if errors.Is(err, queue.ErrQueueDisabled) {
				return nil, ErrQueueUnavailable
			}
			result.Errors = append(result.Errors, ReportRowError{Row: rowNumber, OrderID: payload.OrderID, Message: err.Error()})
			continue
		}
		result.Enqueued++
	}
	logger.FromContext(ctx).Infow("report_imported",
		"platform", platform,
		"filename", filename,
		"total_rows", result.TotalRows,
		"enqueued", result.Enqueued,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors),
	)
	return result, nil
}

func readReportRows(filename string, reader io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		r := csv.NewReader(reader)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReportFormatInvalid, err)
		}
		return rows, nil
	case ".xlsx":
		book, err := excelize.OpenReader(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReportFormatInvalid, err)
		}
		defer book.Close()
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrReportHeaderInvalid
		}
		rows, err := book.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReportFormatInvalid, err)
		}
		return rows, nil
	default:
		return nil, ErrReportFormatInvalid
	}
}

func mapReportHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for idx, raw := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if name, ok := reportColumnAliases[key]; ok {
			if _, dup := columns[name]; !dup {
				columns[name] = idx
			}
		}
	}
	for _, required := range reportRequiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrReportHeaderInvalid, required)
		}
	}
	if _, ok := columns["short_code"]; !ok {
		if _, ok := columns["creator_id"]; !ok {
			return nil, fmt.Errorf("%w: short_code or creator_id column required", ErrReportHeaderInvalid)
		}
	}
	return columns, nil
}

func buildReportPayload(platform string, columns map[string]int, row []string) (queue.CreateOrderPayload, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	payload := queue.CreateOrderPayload{
		OrderID:     cell("order_id"),
		Platform:    platform,
		Category:    NormalizeRuleKey(cell("category")),
		CreatorID:   cell("creator_id"),
		ShortCode:   cell("short_code"),
		ProductName: cell("product_name"),
		Source:      constants.OrderSourceReport,
	}
	value, err := models.ParseMoney(strings.ReplaceAll(cell("order_value"), ",", ""))
	if err != nil {
		return payload, fmt.Errorf("order_value invalid: %q", cell("order_value"))
	}
	payload.OrderValue = value
	if status := strings.ToLower(cell("status")); status != "" {
		if !constants.IsValidOrderStatus(status) {
			return payload, fmt.Errorf("status invalid: %q", status)
		}
		payload.Status = status
	}
	if err := payload.Validate(); err != nil {
		return payload, err
	}
	return payload, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
