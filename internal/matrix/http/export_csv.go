package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlas-plan/atlas-plan/internal/matrix"
	"github.com/atlas-plan/atlas-plan/internal/plan"
	"github.com/atlas-plan/atlas-plan/internal/platform/httpx"
)

func (h *Handler) handleMatrixCSV(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseMatrixRequest(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	vm, err := h.loadMatrix(r, req)
	if err != nil {
		h.logError("export matrix", err)
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("allocation_%s_%d.csv", vm.Dimension, vm.Year)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	header := []string{"Code", "Name", "Type"}
	for month := 1; month <= 12; month++ {
		header = append(header, plan.PeriodKey(vm.Year, month))
	}
	header = append(header, "Total Planned", "Total Actual", "Utilization %")
	if err := writer.Write(header); err != nil {
		h.logError("export matrix", err)
		return
	}
	for _, row := range vm.Rows {
		if err := writer.Write(csvRow(row)); err != nil {
			h.logError("export matrix", err)
			return
		}
	}
	if err := writer.Write(csvRow(vm.GrandTotal)); err != nil {
		h.logError("export matrix", err)
		return
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logError("export matrix", err)
	}
}

func csvRow(row matrix.RowVM) []string {
	out := make([]string, 0, 18)
	out = append(out,
		row.Code,
		strings.Repeat("  ", row.Depth)+row.Name,
		string(row.Type),
	)
	for _, cell := range row.Cells {
		out = append(out, formatCell(cell))
	}
	out = append(out,
		formatHours(row.TotalPlanned),
		formatHours(row.TotalActual),
		strconv.FormatFloat(row.UtilizationPct, 'f', 2, 64),
	)
	return out
}

// formatCell mirrors the on-screen rendering contract: empty cells stay
// empty, future cells show plan only, past and current show both sides.
func formatCell(cell matrix.CellVM) string {
	switch cell.Mode {
	case plan.DisplayEmpty:
		return ""
	case plan.DisplayPlannedOnly:
		return formatHours(cell.Planned)
	default:
		return formatHours(cell.Planned) + "/" + formatHours(cell.Actual)
	}
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
