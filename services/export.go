package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/club-pos/utils"
)

// utf8BOM makes spreadsheet apps open the CSV as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var sessionHeader = []string{"Session ID", "Customer", "Cast", "Table", "Start", "End", "Total", "Status"}

func sessionRecord(r SessionRow) []string {
	end, total := "", ""
	if r.EndTime != nil {
		end = r.EndTime.Format("2006-01-02 15:04")
	}
	if r.TotalAmount != nil {
		total = strconv.FormatFloat(*r.TotalAmount, 'f', 0, 64)
	}
	return []string{
		strconv.FormatUint(uint64(r.SessionID), 10),
		r.CustomerName,
		r.CastName,
		r.TableNumber,
		r.StartTime.Format("2006-01-02 15:04"),
		end,
		total,
		r.Status,
	}
}

// ExportSessionsCSV renders the session listing as BOM-prefixed CSV.
func ExportSessionsCSV(rows []SessionRow) ([]byte, error) {
	buf := bytes.NewBuffer(append([]byte{}, utf8BOM...))
	w := csv.NewWriter(buf)
	_ = w.Write(sessionHeader)
	for _, r := range rows {
		_ = w.Write(sessionRecord(r))
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportReportXLSX writes one sheet per report section plus the session list.
func ExportReportXLSX(rep *Report, sessions []SessionRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})

	sheets := []struct {
		name string
		head []string
		rows [][]interface{}
	}{
		{"Summary", []string{"Metric", "Value"}, summaryRows(rep)},
		{"Daily", []string{"Date", "Sessions", "Revenue"}, dailyRows(rep.Daily)},
		{"Menu", []string{"Item", "Category", "Quantity", "Revenue"}, menuRows(rep.Menu)},
		{"Casts", []string{"Cast", "Sessions", "Revenue", "Commission"}, personRows(rep.Casts)},
		{"Staff", []string{"Staff", "Sessions", "Revenue", "Commission"}, personRows(rep.Staff)},
		{"Tables", []string{"Table", "Sessions", "Revenue"}, tableRows(rep.Tables)},
		{"Sessions", sessionHeader, sessionRows(sessions)},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}
		for c, v := range s.head {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			_ = f.SetCellValue(s.name, cell, v)
		}
		last, _ := excelize.CoordinatesToCellName(len(s.head), 1)
		_ = f.SetCellStyle(s.name, "A1", last, header)
		for r, row := range s.rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				_ = f.SetCellValue(s.name, cell, v)
			}
		}
		lastCol, _ := excelize.ColumnNumberToName(len(s.head))
		_ = f.SetColWidth(s.name, "A", lastCol, 18)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func summaryRows(rep *Report) [][]interface{} {
	s := rep.Summary
	return [][]interface{}{
		{"From", rep.Range.From.Format("2006-01-02")},
		{"To", rep.Range.To.Format("2006-01-02")},
		{"Total revenue", s.TotalRevenue},
		{"Sessions", s.TotalSessions},
		{"Average spend", s.AverageSpend},
		{"Unique customers", s.UniqueCustomers},
		{"Cast commission", s.Commission.CastShare},
		{"Staff commission", s.Commission.StaffShare},
		{"Store share", s.Commission.StoreShare},
	}
}

func dailyRows(days []DailySales) [][]interface{} {
	out := make([][]interface{}, 0, len(days))
	for _, d := range days {
		out = append(out, []interface{}{d.Date.Format("2006-01-02"), d.Sessions, d.Revenue})
	}
	return out
}

func menuRows(items []MenuRank) [][]interface{} {
	out := make([][]interface{}, 0, len(items))
	for _, m := range items {
		out = append(out, []interface{}{m.Name, m.Category, m.Quantity, m.Revenue})
	}
	return out
}

func personRows(people []PersonRank) [][]interface{} {
	out := make([][]interface{}, 0, len(people))
	for _, p := range people {
		out = append(out, []interface{}{p.Name, p.Sessions, p.Revenue, p.Commission})
	}
	return out
}

func tableRows(tables []TableUsage) [][]interface{} {
	out := make([][]interface{}, 0, len(tables))
	for _, t := range tables {
		out = append(out, []interface{}{t.TableNumber, t.Sessions, t.Revenue})
	}
	return out
}

func sessionRows(rows []SessionRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		rec := sessionRecord(r)
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		out = append(out, row)
	}
	return out
}

// ReceiptPDF renders the checkout breakdown of a priced session.
func ReceiptPDF(storeName string, sum *CheckoutSummary) ([]byte, error) {
	if storeName == "" {
		storeName = "Bill"
	}
	pdf := fpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	s := sum.Session
	customer, table := "", ""
	if s.Customer != nil {
		customer = s.Customer.Name
	}
	if s.Table != nil {
		table = s.Table.TableNumber
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Session #%d  Table %s", s.ID, table)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Customer: "+customer), "", 1, "L", false, 0, "")
	if s.Cast != nil {
		pdf.CellFormat(0, 6, tr("Cast: "+s.Cast.Name), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("%s - %s",
		sum.Bill.StartTime.Format("2006-01-02 15:04"), sum.Bill.ComputedAt.Format("15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(15, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 7, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, o := range sum.Orders {
		name := fmt.Sprintf("#%d", o.MenuItemID)
		if o.MenuItem != nil {
			name = o.MenuItem.Name
		}
		pdf.CellFormat(70, 6, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, strconv.Itoa(o.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, tr(utils.FormatCurrencyJPY(o.TotalPrice)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	b := sum.Bill
	line := func(label string, amount float64, style string) {
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(85, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(utils.FormatCurrencyJPY(amount)), "", 1, "R", false, 0, "")
	}
	line("Subtotal", b.Subtotal, "")
	line("Seat charge", b.SeatCharge, "")
	if b.ExtensionHours > 0 {
		line(fmt.Sprintf("Extension %dh x %s", b.ExtensionHours, utils.FormatCurrencyJPY(b.ExtensionFee)), b.ExtensionCharge, "")
	}
	line("Total", b.Total, "B")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
