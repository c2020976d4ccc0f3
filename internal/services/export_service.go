package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

type ExportService struct {
	funnelSvc *FunnelService
	repos     *repository.Repositories
}

func NewExportService(funnelSvc *FunnelService, repos *repository.Repositories) *ExportService {
	return &ExportService{funnelSvc: funnelSvc, repos: repos}
}

// FunnelCSV renders the portfolio funnel as CSV
func (s *ExportService) FunnelCSV(ctx context.Context) ([]byte, string, error) {
	snapshot, err := s.funnelSvc.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Embudo de Cartera", snapshot.TakenAt.Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Segmento", "Contratos", "Monto Vencido"})
	for _, row := range snapshot.Rows() {
		_ = writer.Write([]string{row.Segment, fmt.Sprintf("%d", row.Count), row.Amount.StringFixed(2)})
	}

	writer.Flush()

	filename := fmt.Sprintf("embudo_cartera_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// FunnelXLSX renders the portfolio funnel as a spreadsheet
func (s *ExportService) FunnelXLSX(ctx context.Context) ([]byte, string, error) {
	snapshot, err := s.funnelSvc.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Embudo"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Embudo de Cartera")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "B1", snapshot.TakenAt.Format("2006-01-02 15:04"))

	_ = f.SetCellValue(sheet, "A3", "Segmento")
	_ = f.SetCellValue(sheet, "B3", "Contratos")
	_ = f.SetCellValue(sheet, "C3", "Monto Vencido")

	rowIdx := 4
	for _, row := range snapshot.Rows() {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIdx), row.Segment)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIdx), row.Count)
		amount, _ := row.Amount.Float64()
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", rowIdx), amount)
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("embudo_cartera_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// CasesXLSX exports the open collection cases with their contract and debtor
func (s *ExportService) CasesXLSX(ctx context.Context) ([]byte, string, error) {
	query := &repository.CaseQuery{
		ListQuery: repository.NewListQuery(),
		Status:    models.CaseStatusOpen,
	}
	query.PerPage = 100

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Casos"
	_ = f.SetSheetName("Sheet1", sheet)

	headers := []string{"Caso", "Contrato", "Cliente", "Bucket", "Días de mora", "Monto vencido", "Cuotas vencidas", "Gestor"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for {
		cases, _, err := s.repos.Case.List(ctx, query)
		if err != nil {
			return nil, "", err
		}
		if len(cases) == 0 {
			break
		}

		for _, kase := range cases {
			clientName := ""
			contractGUID := ""
			if kase.Contract != nil {
				contractGUID = kase.Contract.GUID
				if kase.Contract.Client != nil {
					clientName = kase.Contract.Client.FullName
				}
			}
			collectorName := ""
			if kase.Collector != nil {
				collectorName = kase.Collector.FullName
			}

			values := []interface{}{
				kase.ID,
				contractGUID,
				clientName,
				string(kase.Bucket),
				kase.DaysLate,
				kase.AmountOverdue.StringFixed(2),
				kase.OverdueCount,
				collectorName,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
				_ = f.SetCellValue(sheet, cell, v)
			}
			rowIdx++
		}

		if len(cases) < query.Limit() {
			break
		}
		query.Page++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("casos_cobranza_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
