package controllers

import (
	"fmt"
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/utils"
	"utility-billing-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	maxExportRows   = 10000
	exportSheetName = "Subscription Requests"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportColumns = []string{
	"request_no",
	"applicant_name",
	"customer_type",
	"phone",
	"city",
	"status",
	"payment_status",
	"total_amount",
	"paid_amount",
	"outstanding",
	"assigned_technician",
	"installation_date",
	"created_at",
}

func exportRow(r models.SubscriptionRequest) []interface{} {
	var total interface{} = ""
	if r.TotalAmount != nil {
		total = r.TotalAmount.InexactFloat64()
	}
	var installation interface{} = ""
	if r.InstallationDate != nil {
		installation = time.Time(*r.InstallationDate).Format("2006-01-02")
	}
	return []interface{}{
		r.RequestNo,
		r.ApplicantName,
		string(r.CustomerType),
		utils.DerefString(r.Phone),
		utils.DerefString(r.City),
		string(r.Status),
		string(r.PaymentStatus),
		total,
		r.PaidAmount.InexactFloat64(),
		r.Outstanding().InexactFloat64(),
		utils.DerefString(r.AssignedTechnician),
		installation,
		r.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// ExportSubscriptionRequestsController streams the filtered list as an xlsx workbook. It takes
// the same filters as the list endpoint.
func (sc *SubscriptionRequestController) ExportSubscriptionRequestsController(c *fiber.Ctx) error {
	filters := pagination.ParsePaginationParams(c).Filters
	if key, err := checkDateFilters(filters); err != nil {
		return invalidDateFilter(c, key, err)
	}

	items, total, err := sc.Repo.GetFilteredSubscriptionRequests(maxExportRows, 0, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch subscription requests for export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to export subscription requests",
		})
	}
	if total > maxExportRows {
		config.Logger.Warn("Export truncated", zap.Int64("total", total), zap.Int("exported", maxExportRows))
	}

	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, exportRow(item))
	}

	workbook, err := utils.BuildWorkbook(exportSheetName, exportColumns, rows)
	if err != nil {
		config.Logger.Error("Failed to build export workbook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to export subscription requests",
		})
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		config.Logger.Error("Failed to write export workbook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to export subscription requests",
		})
	}

	filename := fmt.Sprintf("subscription_requests_%s.xlsx", time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
