package shortage

import (
	"regexp"
	"strings"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// dateHeaderPattern matches demand-by-date headers such as "10/21/2024".
// Only the start is anchored so trailing annotations are tolerated.
var dateHeaderPattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)

const dateHeaderLayout = "1/2/2006"

// columnSpec maps a canonical field to the header substrings that identify it,
// tried in order.
type columnSpec struct {
	field    string
	patterns []string
}

var (
	referenceColumns = []columnSpec{
		{field: fieldPartNumber, patterns: []string{"partno", "part number"}},
		{field: fieldPackMin, patterns: []string{"stdpack_min"}},
		{field: fieldPackMax, patterns: []string{"stdpack_max"}},
		{field: fieldCustomer, patterns: []string{"customer"}},
		{field: fieldDesc, patterns: []string{"desc"}},
		{field: fieldRate, patterns: []string{"rate"}},
	}

	demandColumns = []columnSpec{
		{field: fieldDemandType, patterns: []string{"demand type"}},
		{field: fieldPartNumber, patterns: []string{"part no", "part number"}},
		{field: fieldOnHand, patterns: []string{"inv fg"}},
		{field: fieldNonUsable, patterns: []string{"non useable inventory", "non usable inventory"}},
		{field: fieldCustomer, patterns: []string{"primary customer"}},
	}

	floorColumns = []columnSpec{
		{field: fieldPartNumber, patterns: []string{"part no", "part number"}},
		{field: fieldQuantity, patterns: []string{"quantity", "qty", "part count"}},
		{field: fieldStatus, patterns: []string{"container status", "status"}},
	}
)

// schema is the resolved column index per canonical field; -1 when unresolved.
type schema struct {
	table   string
	specs   []columnSpec
	indexes map[string]int
}

func resolveSchema(table string, header []string, specs []columnSpec) schema {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeColumnName(h)
	}

	s := schema{table: table, specs: specs, indexes: make(map[string]int, len(specs))}
	for _, spec := range specs {
		s.indexes[spec.field] = -1
		for _, pattern := range spec.patterns {
			if idx := indexContaining(normalized, normalizeColumnName(pattern)); idx >= 0 {
				s.indexes[spec.field] = idx
				break
			}
		}
	}
	return s
}

func indexContaining(headers []string, needle string) int {
	if needle == "" {
		return -1
	}
	for i, h := range headers {
		if strings.Contains(h, needle) {
			return i
		}
	}
	return -1
}

func (s schema) index(field string) int {
	idx, ok := s.indexes[field]
	if !ok {
		return -1
	}
	return idx
}

func (s schema) has(field string) bool {
	return s.index(field) >= 0
}

func (s schema) missing(field string) error {
	for _, spec := range s.specs {
		if spec.field == field {
			return &domain.MissingColumnError{Table: s.table, Field: field, Candidates: spec.patterns}
		}
	}
	return &domain.MissingColumnError{Table: s.table, Field: field}
}

// Normalizer turns raw tables into canonical, typed tables.
type Normalizer struct {
	defaultRatePercent float64
}

// NewNormalizer returns a Normalizer that fills missing production rates with defaultRatePercent.
func NewNormalizer(defaultRatePercent float64) *Normalizer {
	if defaultRatePercent <= 0 {
		defaultRatePercent = 100
	}
	return &Normalizer{defaultRatePercent: defaultRatePercent}
}

// NormalizeReference builds one PartReference per distinct part number.
// The first row wins when a part repeats.
func (n *Normalizer) NormalizeReference(raw domain.RawTable) ([]domain.PartReference, []error) {
	var issues []error
	if raw.IsEmpty() {
		return nil, nil
	}

	s := resolveSchema(TableReference, raw.Header, referenceColumns)
	if !s.has(fieldPartNumber) {
		return nil, []error{s.missing(fieldPartNumber)}
	}
	for _, field := range []string{fieldPackMin, fieldPackMax, fieldCustomer} {
		if !s.has(field) {
			issues = append(issues, s.missing(field))
		}
	}

	idxPart := s.index(fieldPartNumber)
	idxMin := s.index(fieldPackMin)
	idxMax := s.index(fieldPackMax)
	idxCustomer := s.index(fieldCustomer)
	idxDesc := s.index(fieldDesc)
	idxRate := s.index(fieldRate)

	seen := make(map[string]struct{}, len(raw.Rows))
	refs := make([]domain.PartReference, 0, len(raw.Rows))
	for _, record := range raw.Rows {
		part := normalizePartNumber(cell(record, idxPart))
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			issues = append(issues, &domain.DataContractError{
				PartNumber: part,
				Reason:     "duplicate reference row ignored",
			})
			continue
		}
		seen[part] = struct{}{}

		desc := cell(record, idxDesc)
		if desc == "" {
			desc = domain.DefaultDescription
		}
		rate := parseNumber(cell(record, idxRate))
		if rate != nil && *rate < 0 {
			rate = nil
		}

		refs = append(refs, domain.PartReference{
			PartNumber:            part,
			PackSizeMin:           parseNumber(cell(record, idxMin)),
			PackSizeMax:           parseNumber(cell(record, idxMax)),
			Customer:              cell(record, idxCustomer),
			Description:           desc,
			ProductionRatePercent: valueOr(rate, n.defaultRatePercent),
		})
	}

	return refs, issues
}

// NormalizeDemand types the demand feed. Columns required by aggregation are
// flagged on the result rather than reported here.
func (n *Normalizer) NormalizeDemand(raw domain.RawTable) (DemandTable, []error) {
	var issues []error
	if raw.IsEmpty() {
		return DemandTable{}, nil
	}

	s := resolveSchema(TableDemand, raw.Header, demandColumns)
	table := DemandTable{
		HasPartNumber: s.has(fieldPartNumber),
		HasOnHand:     s.has(fieldOnHand),
		HasDemandType: s.has(fieldDemandType),
	}
	for _, field := range []string{fieldDemandType, fieldNonUsable, fieldCustomer} {
		if !s.has(field) {
			issues = append(issues, s.missing(field))
		}
	}

	var dateIdx []int
	for i, h := range raw.Header {
		header := strings.TrimSpace(h)
		match := dateHeaderPattern.FindString(header)
		if match == "" {
			continue
		}
		date, err := time.Parse(dateHeaderLayout, match)
		if err != nil {
			issues = append(issues, &domain.DateParseError{Header: header, Err: err})
			continue
		}
		table.Dates = append(table.Dates, date)
		dateIdx = append(dateIdx, i)
	}

	if !table.HasPartNumber {
		return table, issues
	}

	idxPart := s.index(fieldPartNumber)
	idxType := s.index(fieldDemandType)
	idxOnHand := s.index(fieldOnHand)
	idxNonUsable := s.index(fieldNonUsable)
	idxCustomer := s.index(fieldCustomer)

	table.Rows = make([]DemandRow, 0, len(raw.Rows))
	for _, record := range raw.Rows {
		part := normalizePartNumber(cell(record, idxPart))
		if part == "" {
			continue
		}
		quantities := make([]*float64, len(dateIdx))
		for j, idx := range dateIdx {
			quantities[j] = parseNumber(cell(record, idx))
		}
		table.Rows = append(table.Rows, DemandRow{
			PartNumber: part,
			DemandType: strings.ToLower(cell(record, idxType)),
			OnHand:     parseNumber(cell(record, idxOnHand)),
			NonUsable:  parseNumber(cell(record, idxNonUsable)),
			Customer:   cell(record, idxCustomer),
			Quantities: quantities,
		})
	}

	return table, issues
}

// NormalizeFloor types the floor-inventory snapshot and buckets each container.
func (n *Normalizer) NormalizeFloor(raw domain.RawTable) (FloorTable, []error) {
	var issues []error
	if raw.IsEmpty() {
		return FloorTable{}, nil
	}

	s := resolveSchema(TableFloor, raw.Header, floorColumns)
	for _, field := range []string{fieldPartNumber, fieldQuantity} {
		if !s.has(field) {
			issues = append(issues, s.missing(field))
		}
	}
	if len(issues) > 0 {
		return FloorTable{}, issues
	}
	if !s.has(fieldStatus) {
		issues = append(issues, s.missing(fieldStatus))
	}

	idxPart := s.index(fieldPartNumber)
	idxQty := s.index(fieldQuantity)
	idxStatus := s.index(fieldStatus)

	rows := make([]domain.FloorInventoryRow, 0, len(raw.Rows))
	for _, record := range raw.Rows {
		part := normalizePartNumber(cell(record, idxPart))
		if part == "" {
			continue
		}
		status := cell(record, idxStatus)
		rows = append(rows, domain.FloorInventoryRow{
			PartNumber:     part,
			Status:         status,
			Bucket:         domain.ClassifyStatus(status),
			QuantityPieces: valueOr(parseNumber(cell(record, idxQty)), 0),
		})
	}

	return FloorTable{Rows: rows}, issues
}
