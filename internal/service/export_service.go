package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/xuri/excelize/v2"
)

var jobCardExportHeaders = []string{
	"工单号", "门店", "客户", "状态", "质检结论",
	"预估金额", "实际金额", "实际工时(小时)", "客户已验收", "创建时间",
}

// ExportService 工单报表导出
type ExportService struct {
	jobRepo *repository.JobCardRepository
}

func NewExportService(jobRepo *repository.JobCardRepository) *ExportService {
	return &ExportService{jobRepo: jobRepo}
}

// ExportJobCards 按筛选条件导出工单Excel
func (s *ExportService) ExportJobCards(ctx context.Context, params repository.JobCardListParams) (*excelize.File, error) {
	params.Page = 1
	params.Size = 10000
	jobs, _, err := s.jobRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "工单"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range jobCardExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	colWidths := []float64{20, 14, 14, 12, 10, 12, 12, 14, 10, 20}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	for rowIdx, job := range jobs {
		row := rowIdx + 2
		verified := "否"
		if job.IsVerifiedByUser {
			verified = "是"
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), job.JobNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), job.ShopID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), job.CustomerID)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), job.Status)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), job.QualityStatus)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), job.TotalEstimatedAmount)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), job.ActualTotalAmount)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), float64(job.ActualManHours)/3600.0)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), verified)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), job.CreatedAt.Format(time.DateTime))
	}

	return f, nil
}
