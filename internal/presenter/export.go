package presenter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// ExportHeader is the column layout of the CSV export.
var ExportHeader = []string{
	"position",
	"part_number",
	"description",
	"shipment_date",
	"inventory_before",
	"demand_pieces",
	"shortage_pieces",
	"pack",
	"containers_required",
	"containers_to_produce",
	"shift_capacity_containers",
	"customer",
	"first_shortage",
	"part_rank",
	"customer_rank",
	"semaphore",
}

// WriteCSV exports rows in queue order. A missing pack or container count is
// left blank so it cannot be mistaken for zero.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Position),
			r.PartNumber,
			r.Description,
			r.ShipmentDate.Format(domain.DateLayout),
			formatFloat(r.InventoryBeforeEvent),
			formatFloat(r.DemandPieces),
			formatFloat(r.ShortagePieces),
			formatOptionalFloat(r.Pack),
			formatOptionalInt(r.ContainersRequired),
			strconv.Itoa(r.ContainersRequiredCapped),
			strconv.Itoa(r.PerShiftCapacityContainers),
			r.Customer,
			strconv.FormatBool(r.IsFirstShortageForPart),
			strconv.Itoa(r.PartPriorityRank),
			strconv.Itoa(r.CustomerPriorityRank),
			string(r.Semaphore),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// NonUsableHeader is the column layout of the non-usable breakdown export.
var NonUsableHeader = []string{
	"part_number",
	"pack",
	"on_floor_pieces",
	"on_floor_containers",
	"quality_hold_pieces",
	"possible_defect_pieces",
	"other_pieces",
	"total_pieces",
	"reported_pieces",
	"delta_pieces",
}

// WriteNonUsableCSV exports the per-part non-usable breakdown.
func WriteNonUsableCSV(w io.Writer, summaries []domain.NonUsableSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NonUsableHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{
			s.PartNumber,
			formatOptionalFloat(s.Pack),
			formatFloat(s.OnFloorPieces),
			strconv.Itoa(s.OnFloorContainers),
			formatFloat(s.QualityHoldPieces),
			formatFloat(s.PossibleDefectPieces),
			formatFloat(s.OtherPieces),
			formatFloat(s.TotalPieces),
			formatOptionalFloat(s.ReportedPieces),
			formatOptionalFloat(s.DeltaPieces),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
