// Package export 设备历史数据导出（对应旧版表格里的下载按钮 /api/export/{boxId}）。
// 从后端拉取一批历史记录，渲染成 CSV 或 Excel。
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// HistoryFetcher 历史数据来源（遥测客户端实现）
type HistoryFetcher interface {
	FetchLatest(ctx context.Context, boxID string, limit int) ([]models.Reading, error)
}

// DefaultExportLimit 默认导出条数，对齐后端 /api/data 的默认 limit
const DefaultExportLimit = 100

var exportHeader = []string{"ID", "Box ID", "Temperature (°C)", "Humidity (%)", "Latitude", "Longitude", "Timestamp"}

// Exporter 历史数据导出器
type Exporter struct {
	fetcher HistoryFetcher
}

func NewExporter(fetcher HistoryFetcher) *Exporter {
	return &Exporter{fetcher: fetcher}
}

// CSV 导出一台设备的历史为 CSV
func (e *Exporter) CSV(ctx context.Context, boxID string, limit int) ([]byte, error) {
	readings, err := e.fetch(ctx, boxID, limit)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range readings {
		if err := w.Write(csvRow(r)); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Excel 导出一台设备的历史为 Excel 工作簿
func (e *Exporter) Excel(ctx context.Context, boxID string, limit int) ([]byte, error) {
	readings, err := e.fetch(ctx, boxID, limit)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := boxID
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx, r := range readings {
		row := csvRow(r)
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	f.Close()
	return buf.Bytes(), nil
}

func (e *Exporter) fetch(ctx context.Context, boxID string, limit int) ([]models.Reading, error) {
	if limit < 1 {
		limit = DefaultExportLimit
	}
	readings, err := e.fetcher.FetchLatest(ctx, boxID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", boxID, err)
	}
	return readings, nil
}

func csvRow(r models.Reading) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.BoxID,
		formatOptional(r.Temperature),
		formatOptional(r.Humidity),
		formatOptional(r.Latitude),
		formatOptional(r.Longitude),
		r.Timestamp,
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
