package health

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"
)

// csvHeader is the first row of every export. Columns that do not apply to
// a record kind are left empty.
var csvHeader = []string{"record", "created", "systolic", "diastolic", "weight_kg", "calories", "points"}

type csvRow struct {
	created time.Time
	fields  []string
}

// ToCSV writes every stored record to w as CSV, oldest first, using
// delimiter between fields. A zero delimiter means ','.
func (s *Service) ToCSV(w io.Writer, delimiter rune) error {
	if delimiter == 0 {
		delimiter = ','
	}

	rows, err := s.csvRows()
	if err != nil {
		return err
	}
	slices.SortStableFunc(rows, func(a, b csvRow) int {
		return a.created.Compare(b.created)
	})

	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.fields); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func (s *Service) csvRows() ([]csvRow, error) {
	var rows []csvRow
	row := func(kind Kind, created time.Time, values map[int]int) csvRow {
		fields := make([]string, len(csvHeader))
		fields[0] = string(kind)
		fields[1] = created.UTC().Format(time.RFC3339)
		for col, v := range values {
			fields[col] = strconv.Itoa(v)
		}
		return csvRow{created: created, fields: fields}
	}

	bps, err := s.database.ListBloodPressure(0)
	if err != nil {
		return nil, fmt.Errorf("listing blood pressure: %w", err)
	}
	for _, r := range bps {
		rows = append(rows, row(KindBloodPressure, r.Created, map[int]int{2: r.Systolic, 3: r.Diastolic}))
	}

	weights, err := s.database.ListWeight(0)
	if err != nil {
		return nil, fmt.Errorf("listing weight: %w", err)
	}
	for _, r := range weights {
		rows = append(rows, row(KindWeight, r.Created, map[int]int{4: r.Weight}))
	}

	calories, err := s.database.ListCalories(0)
	if err != nil {
		return nil, fmt.Errorf("listing calories: %w", err)
	}
	for _, r := range calories {
		rows = append(rows, row(KindCalories, r.Created, map[int]int{5: r.Calories}))
	}

	points, err := s.database.ListPoints(0)
	if err != nil {
		return nil, fmt.Errorf("listing points: %w", err)
	}
	for _, r := range points {
		rows = append(rows, row(KindPoints, r.Created, map[int]int{6: r.Points}))
	}

	return rows, nil
}
