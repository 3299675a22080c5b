package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/export"
	"github.com/andrewkristofer/SmartBox-IoT/internal/visibility"
)

// ExportHandler 历史数据下载
type ExportHandler struct {
	exporter *export.Exporter
	resolver *visibility.Resolver
	logger   *zap.Logger
}

// NewExportHandler 创建 Handler
func NewExportHandler(exporter *export.Exporter, resolver *visibility.Resolver, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
		resolver: resolver,
		logger:   logger,
	}
}

// Export 导出一台设备的历史
// GET /api/v1/export/{boxID}?format=csv|xlsx&limit=n
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	boxID := pathSuffix(r.URL.Path, "/api/v1/export/")
	if boxID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	// 导出受同一套可见性规则管控：看不到的设备也不能下载
	if !h.resolver.CanAccess(identity, boxID) {
		writeError(w, http.StatusForbidden, fmt.Sprintf("account %q has no permission for %s", identity.Username, boxID))
		return
	}

	limit := export.DefaultExportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		data        []byte
		err         error
		contentType string
		filename    string
	)
	switch format {
	case "csv":
		data, err = h.exporter.CSV(r.Context(), boxID, limit)
		contentType = "text/csv"
		filename = boxID + ".csv"
	case "xlsx":
		data, err = h.exporter.Excel(r.Context(), boxID, limit)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = boxID + ".xlsx"
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}
	if err != nil {
		h.logger.Error("Export failed",
			zap.String("box_id", boxID),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch history from backend")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
