package vehicle

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/money"
	"vehicle-admin/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportSheet = "Vehicles"

var exportHeader = []string{
	"Code", "Make", "Model", "Year", "Chassis ID", "Colour", "Mileage", "Grade",
	"Shipping Status", "Vessel", "Arrival Date",
	"LC Cost (JPY)", "Exchange Rate", "TT (LKR)", "Charges (LKR)", "Duty (LKR)", "Clearing (LKR)",
	"Other Expenses (LKR)", "Total Cost (LKR)",
	"Sale Status", "Sold Date", "Revenue (LKR)", "Profit (LKR)",
}

// ExportRow is one line of the stock and costing sheet.
type ExportRow struct {
	Vehicle    models.Vehicle
	Shipping   models.VehicleShipping
	Purchase   models.VehiclePurchase
	Financials models.VehicleFinancials
	Sales      models.VehicleSales
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func amountCell(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// BuildWorkbook writes rows into a single-sheet workbook.
func BuildWorkbook(rows []ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
		f.SetCellStyle(exportSheet, "A1", last, style)
	}

	for r, row := range rows {
		values := []any{
			row.Vehicle.Code, row.Vehicle.Make, row.Vehicle.Model, row.Vehicle.Year,
			row.Vehicle.ChassisID, row.Vehicle.Color, row.Vehicle.Mileage, row.Vehicle.AuctionGrade,
			string(row.Shipping.Status), row.Shipping.VesselName, dateCell(row.Shipping.ArrivalDate),
			amountCell(row.Purchase.LCCostJPY), row.Purchase.ExchangeRate.String(),
			amountCell(row.Financials.TTLKR), amountCell(row.Financials.ChargesLKR),
			amountCell(row.Financials.DutyLKR), amountCell(row.Financials.ClearingLKR),
			amountCell(row.Financials.OtherExpenses.Sum()), amountCell(row.Financials.TotalCostLKR),
			string(row.Sales.SaleStatus), dateCell(row.Sales.SoldDate),
			amountCell(row.Sales.Revenue), amountCell(row.Sales.Profit),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func loadExportRows(db *gorm.DB) ([]ExportRow, error) {
	var vehicles []models.Vehicle
	if err := db.Order("id").Find(&vehicles).Error; err != nil {
		return nil, err
	}

	var shipping []models.VehicleShipping
	var purchases []models.VehiclePurchase
	var financials []models.VehicleFinancials
	var sales []models.VehicleSales
	for _, dst := range []any{&shipping, &purchases, &financials, &sales} {
		if err := db.Find(dst).Error; err != nil {
			return nil, err
		}
	}

	rows := make([]ExportRow, len(vehicles))
	index := make(map[uint]int, len(vehicles))
	for i, v := range vehicles {
		rows[i].Vehicle = v
		index[v.ID] = i
	}
	for _, s := range shipping {
		if i, ok := index[s.VehicleID]; ok {
			rows[i].Shipping = s
		}
	}
	for _, p := range purchases {
		if i, ok := index[p.VehicleID]; ok {
			rows[i].Purchase = p
		}
	}
	for _, f := range financials {
		if i, ok := index[f.VehicleID]; ok {
			rows[i].Financials = f
		}
	}
	for _, s := range sales {
		if i, ok := index[s.VehicleID]; ok {
			rows[i].Sales = s
		}
	}
	return rows, nil
}

// GET /api/vehicles/export
func ExportVehiclesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := loadExportRows(database.DB)
		if err != nil {
			log.Println("export query failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicles could not be exported")
		}

		f, err := BuildWorkbook(rows)
		if err != nil {
			log.Println("export workbook failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicles could not be exported")
		}
		defer f.Close()

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicles could not be exported")
		}

		name := fmt.Sprintf("vehicles-%s.xlsx", time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Send(buf.Bytes())
	}
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// Columns: Code, Make, Model, Year, Chassis ID, Colour, Mileage, Grade,
// Quoted Price, Auction Price, Currency.
type ImportResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
	Errors  []string `json:"errors"`
}

// ParseImportRows turns sheet rows into vehicles. A first row whose first
// cell is "code" is treated as a header. Rows that fail validation are
// reported by their 1-based sheet row number.
func ParseImportRows(rows [][]string) ([]models.Vehicle, []string) {
	var out []models.Vehicle
	var problems []string

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), "code") {
		start = 1
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		col := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if strings.Join(row, "") == "" {
			continue
		}

		year, _ := strconv.Atoi(col(3))
		mileage := int(money.Parse(col(6)).IntPart())
		v := models.Vehicle{
			Code:         col(0),
			Make:         col(1),
			Model:        col(2),
			Year:         year,
			ChassisID:    col(4),
			Color:        col(5),
			Mileage:      mileage,
			AuctionGrade: col(7),
			QuotedPrice:  money.Parse(col(8)),
			AuctionPrice: money.Parse(col(9)),
			Currency:     col(10),
		}
		if err := NormalizeVehicle(&v); err != nil {
			problems = append(problems, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		out = append(out, v)
	}
	return out, problems
}

// POST /api/vehicles/import (multipart "file", xlsx)
// Vehicles whose code already exists are skipped.
func ImportVehiclesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file is required")
		}
		file, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file could not be opened")
		}
		defer file.Close()

		book, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file could not be read: "+err.Error())
		}
		defer book.Close()

		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file has no sheet")
		}
		rows, err := book.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet could not be read: "+err.Error())
		}

		vehicles, problems := ParseImportRows(rows)
		result := ImportResult{Created: []string{}, Skipped: []string{}, Errors: problems}
		if result.Errors == nil {
			result.Errors = []string{}
		}

		for i := range vehicles {
			v := vehicles[i]
			err := database.DB.Transaction(func(tx *gorm.DB) error {
				if err := ensureUniqueCode(tx, v.Code, 0); err != nil {
					return err
				}
				if err := repository.CreateVehicle(tx, &v); err != nil {
					return err
				}
				return audit.WriteLog(tx, audit.LogOptions{
					UserID:      actor.ID,
					UserName:    actor.Name,
					EntityType:  audit.EntityVehicle,
					EntityID:    v.ID,
					VehicleID:   &v.ID,
					Action:      models.AuditActionCreate,
					Description: "Vehicle " + v.Code + " imported",
					After:       v,
				})
			})
			var fe *fiber.Error
			switch {
			case err == nil:
				result.Created = append(result.Created, v.Code)
			case errors.As(err, &fe) && fe.Code == fiber.StatusConflict:
				result.Skipped = append(result.Skipped, v.Code)
			default:
				log.Printf("import of %s failed: %v", v.Code, err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: could not be saved", v.Code))
			}
		}

		return c.JSON(result)
	}
}
