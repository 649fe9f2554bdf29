package admin

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/oneinfo/affiliate-backend/internal/http/response"
	"github.com/oneinfo/affiliate-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadReport 上传联盟平台订单报表（csv / xlsx），逐行投递入库任务
func (h *Handler) UploadReport(c *gin.Context) {
	platform := strings.TrimSpace(c.PostForm("platform"))
	if platform == "" {
		respondError(c, response.CodeBadRequest, "platform is required", nil)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, response.CodeBadRequest, "file is required", err)
		return
	}
	if maxSize := h.Config.Upload.MaxSize; maxSize > 0 && fileHeader.Size > maxSize {
		respondError(c, response.CodeBadRequest, "file too large", nil)
		return
	}
	if !isAllowedReportExtension(fileHeader.Filename, h.Config.Upload.AllowedExtensions) {
		respondError(c, response.CodeBadRequest, service.ErrReportFormatInvalid.Error(), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, response.CodeInternal, "file open failed", err)
		return
	}
	defer file.Close()

	result, err := h.ReportImportService.Import(c.Request.Context(), platform, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReportFormatInvalid), errors.Is(err, service.ErrReportHeaderInvalid), errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			respondError(c, response.CodeServiceUnavailable, "order queue unavailable", err)
		default:
			respondError(c, response.CodeInternal, "report import failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_report_imported",
		"platform", result.Platform,
		"filename", fileHeader.Filename,
		"total_rows", result.TotalRows,
		"enqueued", result.Enqueued,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors),
	)
	response.Success(c, result)
}

func isAllowedReportExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(allowed) == 0 {
		return ext == ".csv" || ext == ".xlsx"
	}
	for _, item := range allowed {
		if strings.EqualFold(strings.TrimSpace(item), ext) {
			return true
		}
	}
	return false
}
