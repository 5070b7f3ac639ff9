package payslip

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Line is one labelled amount. Amounts are pre-formatted by the caller.
type Line struct {
	Label  string
	Amount string
}

type Data struct {
	CompanyName     string
	EmployeeName    string
	EmployeeCode    string
	DepartmentName  string
	Period          string
	Frequency       string
	Status          string
	Earnings        []Line
	Deductions      []Line
	GrossPay        string
	TotalDeductions string
	NetPay          string
	BankName        string
	AccountNumber   string
	PaidAt          *time.Time
	GeneratedAt     time.Time
}

// Render writes a single-page A4 payslip to w.
func Render(w io.Writer, d Data) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", d.EmployeeName, d.Period), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, d.CompanyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Payslip for "+d.Period, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	header := []Line{
		{"Employee", d.EmployeeName},
		{"Employee code", d.EmployeeCode},
		{"Department", d.DepartmentName},
		{"Frequency", d.Frequency},
		{"Status", d.Status},
	}
	for _, l := range header {
		if l.Amount == "" {
			continue
		}
		pdf.CellFormat(45, 6, l.Label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, l.Amount, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Earnings", d.Earnings, "Gross pay", d.GrossPay)
	section(pdf, "Deductions", d.Deductions, "Total deductions", d.TotalDeductions)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 9, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, d.NetPay, "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 9)
	if d.BankName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Paid to %s, account %s", d.BankName, maskAccount(d.AccountNumber)), "", 1, "L", false, 0, "")
	}
	if d.PaidAt != nil {
		pdf.CellFormat(0, 5, "Paid on "+d.PaidAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Generated "+d.GeneratedAt.Format(time.RFC1123), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build payslip: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string, lines []Line, totalLabel, total string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(0, 8, title, "", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		pdf.CellFormat(130, 6, l.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, l.Amount, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 7, totalLabel, "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, total, "T", 1, "R", false, 0, "")
	pdf.Ln(3)
}

// maskAccount keeps the last four digits of an account number.
func maskAccount(n string) string {
	if len(n) <= 4 {
		return n
	}
	masked := make([]byte, len(n))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(n)-4:], n[len(n)-4:])
	return string(masked)
}
