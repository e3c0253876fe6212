package tabular

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/expense"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the largest stated-vs-reconstructed total difference
// accepted without a warning.
var DefaultTolerance = decimal.New(1, -2)

// ImportResult holds freshly built missions and the problems met on the way.
type ImportResult struct {
	Missions []*entity.Mission `json:"missions"`
	Warnings []Warning         `json:"warnings"`
}

// Parser rebuilds missions from imported sheets.
type Parser struct {
	now       func() time.Time
	newID     func() string
	tolerance decimal.Decimal
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the clock used for creation times and date fallback.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithIDGenerator sets the generator used for mission and expense ids.
func WithIDGenerator(gen func() string) Option {
	return func(p *Parser) { p.newID = gen }
}

// WithTolerance sets the total reconciliation tolerance.
func WithTolerance(t decimal.Decimal) Option {
	return func(p *Parser) { p.tolerance = t }
}

// NewParser creates a Parser with uuid ids and the wall clock.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		now:       time.Now,
		newID:     uuid.NewString,
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFromRows parses wb with a default Parser.
func ParseFromRows(wb Workbook, existing []*entity.Mission) (*ImportResult, error) {
	return NewParser().Parse(wb, existing)
}

// parsedMission remembers what the sheet claimed about a mission so the
// claim can be checked once all expenses are attached.
type parsedMission struct {
	mission   *entity.Mission
	row       RawRow
	stated    decimal.Decimal
	hasStated bool
}

type importRun struct {
	p        *Parser
	taken    map[string]bool
	byLegacy map[string]*entity.Mission
	parsed   []*parsedMission
	warnings []Warning
	now      time.Time
}

// Parse converts wb into new missions. Ids never collide with existing
// ones; the existing missions themselves are not modified.
func (p *Parser) Parse(wb Workbook, existing []*entity.Mission) (*ImportResult, error) {
	if wb.Missions == nil || !isMissionsSheet(wb.Missions) {
		return nil, ErrNoMissionsSheet
	}

	rows := nonBlank(wb.Missions.Rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoDataRows, wb.Missions.Name)
	}

	run := &importRun{
		p:        p,
		taken:    make(map[string]bool, len(existing)),
		byLegacy: make(map[string]*entity.Mission),
		now:      p.now(),
	}
	for _, m := range existing {
		run.taken[m.ID] = true
	}

	for _, r := range rows {
		switch shape := DetectShape(r).(type) {
		case DetailedRow:
			run.addDetailed(shape)
		case SimpleRow:
			run.addSimple(shape)
		default:
			panic(fmt.Sprintf("tabular: unhandled row shape %T", shape))
		}
	}

	if wb.Expenses != nil {
		run.linkExpenses(wb.Expenses)
	}

	result := &ImportResult{Missions: make([]*entity.Mission, 0, len(run.parsed))}
	for _, pm := range run.parsed {
		pm.mission.RecalculateTotal()
		run.reconcile(pm)
		result.Missions = append(result.Missions, pm.mission)
	}
	result.Warnings = run.warnings
	return result, nil
}

func (r *importRun) id() string {
	for {
		id := r.p.newID()
		if !r.taken[id] {
			r.taken[id] = true
			return id
		}
	}
}

func (r *importRun) warn(row RawRow, employee string, kind WarningKind, raw, msg string) {
	r.warnings = append(r.warnings, Warning{
		Kind:     kind,
		Sheet:    row.Sheet,
		Row:      row.Number,
		Employee: employee,
		Raw:      raw,
		Message:  msg,
	})
}

// newMission reads the identity columns shared by both shapes.
func (r *importRun) newMission(row RawRow) *entity.Mission {
	m := &entity.Mission{
		ID:             r.id(),
		EmployeeCode:   ParseCode(row.Get(FieldEmployeeCode)),
		EmployeeName:   UnescapeFormula(row.Get(FieldEmployeeName)),
		EmployeeBranch: UnescapeFormula(row.Get(FieldEmployeeBranch)),
		Statement:      UnescapeFormula(row.Get(FieldStatement)),
		Expenses:       []entity.ExpenseItem{},
		CreatedAt:      r.now,
	}

	raw := row.Get(FieldDate)
	date, ok := calendar.ParseString(raw)
	if !ok {
		date = calendar.FromTime(r.now)
		r.warn(row, m.EmployeeName, WarnInvalidDate, raw,
			fmt.Sprintf("unparseable mission date, using %s", date))
	}
	m.MissionDate = date

	if legacy := row.Get(FieldID); legacy != "" {
		if _, dup := r.byLegacy[legacy]; !dup {
			r.byLegacy[legacy] = m
		}
	}
	return m
}

func (r *importRun) addDetailed(d DetailedRow) {
	row := d.Row
	m := r.newMission(row)

	items := make(map[string]*entity.ExpenseItem)

	for i := 1; i <= SlotCount; i++ {
		bank := UnescapeFormula(row.Get(SlotBankField(i)))
		slotSum := decimal.Zero
		for _, t := range entity.ExpenseTypes {
			slotSum = slotSum.Add(positive(ParseAmount(row.Get(SlotTypeField(t, i)))))
		}

		if isPlaceholderBank(bank) {
			if slotSum.IsPositive() {
				r.warn(row, m.EmployeeName, WarnSlotWithoutBank, slotSum.StringFixed(2),
					fmt.Sprintf("slot %d has amounts but no bank; ignored", i))
			}
			continue
		}

		for _, t := range entity.ExpenseTypes {
			v := ParseAmount(row.Get(SlotTypeField(t, i)))
			if !v.IsPositive() {
				continue
			}
			item, ok := items[t]
			if !ok {
				item = &entity.ExpenseItem{
					ID:              r.id(),
					Type:            t,
					Amount:          decimal.Zero,
					BankAllocations: make(map[string]decimal.Decimal),
				}
				items[t] = item
			}
			item.Amount = item.Amount.Add(v)
			if !item.HasBank(bank) {
				item.Banks = append(item.Banks, bank)
			}
			item.BankAllocations[bank] = item.BankAllocations[bank].Add(v)
		}

		if raw := row.Get(SlotTotalField(i)); raw != "" {
			stated := ParseAmount(raw)
			if stated.Sub(slotSum).Abs().GreaterThan(r.p.tolerance) {
				r.warn(row, m.EmployeeName, WarnSlotTotalMismatch, raw,
					fmt.Sprintf("slot %d (%s) states %s but its subtotals sum to %s",
						i, bank, stated.StringFixed(2), slotSum.StringFixed(2)))
			}
		}
	}

	for _, t := range entity.ExpenseTypes {
		if item, ok := items[t]; ok {
			m.Expenses = append(m.Expenses, *item)
		}
	}

	pm := &parsedMission{mission: m, row: row}
	if raw := row.Get(FieldGrandTotal); raw != "" {
		pm.stated, pm.hasStated = ParseAmount(raw), true
	}
	r.parsed = append(r.parsed, pm)
}

func (r *importRun) addSimple(s SimpleRow) {
	row := s.Row
	m := r.newMission(row)
	m.Bank = UnescapeFormula(row.Get(FieldBank))

	pm := &parsedMission{mission: m, row: row}
	for _, field := range []string{FieldTotal, FieldAmount, FieldGrandTotal} {
		if raw := row.Get(field); raw != "" {
			pm.stated, pm.hasStated = ParseAmount(raw), true
			break
		}
	}
	r.parsed = append(r.parsed, pm)
}

// linkExpenses attaches itemized rows to the missions they reference by
// the source sheet's identifier. Unmatched rows are dropped.
func (r *importRun) linkExpenses(sheet *Sheet) {
	refField := FieldMissionRef
	if !sheet.HasColumn(FieldMissionRef) {
		refField = FieldID
	}

	for _, row := range nonBlank(sheet.Rows) {
		ref := row.Get(refField)
		m, ok := r.byLegacy[ref]
		if !ok {
			r.warn(row, "", WarnOrphanExpense, ref, "expense row references no imported mission; dropped")
			continue
		}

		item := entity.ExpenseItem{
			ID:     r.id(),
			Type:   expense.Normalize(row.Get(FieldExpenseType)),
			Amount: ParseAmount(row.Get(FieldAmount)),
			Banks:  splitBanks(row.Get(FieldBanks)),
		}
		if alloc := parseAllocations(row.Get(FieldAllocations)); len(alloc) > 0 {
			item.BankAllocations = alloc
			for bank := range alloc {
				if !item.HasBank(bank) {
					item.Banks = append(item.Banks, bank)
				}
			}
		}
		if item.Banks == nil {
			item.Banks = []string{}
		}
		m.Expenses = append(m.Expenses, item)
	}
}

// reconcile compares the rebuilt total with the one printed in the sheet.
// The rebuilt total is kept either way.
func (r *importRun) reconcile(pm *parsedMission) {
	if !pm.hasStated {
		return
	}
	m := pm.mission
	if pm.stated.Sub(m.TotalAmount).Abs().GreaterThan(r.p.tolerance) {
		r.warnings = append(r.warnings, Warning{
			Kind:      WarnTotalMismatch,
			Sheet:     pm.row.Sheet,
			Row:       pm.row.Number,
			MissionID: m.ID,
			Employee:  m.EmployeeName,
			Raw:       pm.stated.String(),
			Message:   fmt.Sprintf("sheet total %s differs from itemized total %s",
				pm.stated.StringFixed(2), m.TotalAmount.StringFixed(2)),
		})
	}
}

// Merge appends imported to existing, or returns imported alone when
// replace is set.
func Merge(existing, imported []*entity.Mission, replace bool) []*entity.Mission {
	if replace {
		return append([]*entity.Mission(nil), imported...)
	}
	out := make([]*entity.Mission, 0, len(existing)+len(imported))
	out = append(out, existing...)
	return append(out, imported...)
}

func isMissionsSheet(s *Sheet) bool {
	for _, field := range []string{FieldEmployeeName, FieldEmployeeCode, FieldDate, SlotBankField(1)} {
		if s.HasColumn(field) {
			return true
		}
	}
	return false
}

func nonBlank(rows []RawRow) []RawRow {
	out := make([]RawRow, 0, len(rows))
	for _, r := range rows {
		if !r.IsBlank() {
			out = append(out, r)
		}
	}
	return out
}

var placeholderBanks = map[string]bool{
	"":                true,
	"-":               true,
	"--":              true,
	"لا يوجد":         true,
	"لا توجد":         true,
	"لا يوجد مامورية": true,
	"لا توجد مامورية": true,
	"no mission":      true,
	"none":            true,
	"n/a":             true,
}

func isPlaceholderBank(bank string) bool {
	return placeholderBanks[expense.Fold(bank)]
}

var (
	bankSeparators       = regexp.MustCompile(`[,،;|\n]+`)
	allocationSeparators = regexp.MustCompile(`[;|\n،]+`)
	allocationEntry      = regexp.MustCompile(`^(.+?)\s*[:=]\s*(\S+)$`)
)

func splitBanks(s string) []string {
	var banks []string
	for _, part := range bankSeparators.Split(s, -1) {
		part = UnescapeFormula(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		dup := false
		for _, b := range banks {
			if b == part {
				dup = true
				break
			}
		}
		if !dup {
			banks = append(banks, part)
		}
	}
	return banks
}

// parseAllocations reads "Bank A: 50; Bank B: 50".
func parseAllocations(s string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, part := range allocationSeparators.Split(s, -1) {
		m := allocationEntry.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		bank := UnescapeFormula(strings.TrimSpace(m[1]))
		out[bank] = out[bank].Add(ParseAmount(m[2]))
	}
	return out
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}
