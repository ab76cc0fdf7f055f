package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"vehicle-admin/internal/admin"
	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/config"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/database/dbtest"
	"vehicle-admin/internal/media"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/vehicle"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const testSecret = "test-secret-with-at-least-32-characters"

type testEnv struct {
	app   *fiber.App
	store *media.Storage
	token string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dbtest.Open(t)

	cfg := &config.Config{
		JWTSecret:     testSecret,
		CORSOrigins:   "http://localhost:5173",
		PublicBaseURL: "http://files.test",
		SignedURLTTL:  time.Minute,
	}
	store, err := media.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{
		app:   New(cfg, store, media.NewSigner(cfg.JWTSecret, cfg.SignedURLTTL, cfg.PublicBaseURL)),
		store: store,
	}

	status, body := env.call(t, http.MethodPost, "/api/auth/register-admin", "", map[string]string{
		"name": "Nimal", "email": "admin@example.com", "password": "secret-pass",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("register admin: %d %s", status, body)
	}
	env.token = env.login(t, "admin@example.com", "secret-pass")
	return env
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (e *testEnv) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) upload(t *testing.T, path, field string, files map[string][]byte, fields map[string]string) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(t, req, e.token)
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if status != fiber.StatusOK {
		t.Fatalf("login %s: %d %s", email, status, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, body, &out)
	return out.Token
}

func (e *testEnv) createVehicle(t *testing.T, code string) models.VehicleAggregate {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/vehicles", e.token, map[string]any{
		"code": code, "make": "Toyota", "model": "Aqua", "year": 2018, "chassis_id": "nhp10-123",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create vehicle: %d %s", status, body)
	}
	var agg models.VehicleAggregate
	decode(t, body, &agg)
	return agg
}

func (e *testEnv) aggregate(t *testing.T, id uint) models.VehicleAggregate {
	t.Helper()
	status, body := e.call(t, http.MethodGet, fmt.Sprintf("/api/vehicles/%d", id), e.token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("get vehicle: %d %s", status, body)
	}
	var agg models.VehicleAggregate
	decode(t, body, &agg)
	return agg
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

func mustStatus(t *testing.T, what string, got, want int, body []byte) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: status %d, want %d (%s)", what, got, want, body)
	}
}

func TestAuth(t *testing.T) {
	env := newEnv(t)

	status, body := env.call(t, http.MethodPost, "/api/auth/register-admin", "", map[string]string{
		"name": "Other", "email": "other@example.com", "password": "secret-pass",
	})
	mustStatus(t, "second register", status, fiber.StatusForbidden, body)

	status, body = env.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong-pass",
	})
	mustStatus(t, "bad password", status, fiber.StatusUnauthorized, body)

	status, body = env.call(t, http.MethodGet, "/api/auth/me", "", nil)
	mustStatus(t, "no token", status, fiber.StatusUnauthorized, body)

	status, body = env.call(t, http.MethodGet, "/api/auth/me", env.token, nil)
	mustStatus(t, "me", status, fiber.StatusOK, body)
	var me struct {
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	decode(t, body, &me)
	if me.Email != "admin@example.com" || me.Role != "admin" || len(me.Permissions) != 1 || me.Permissions[0] != "*" {
		t.Fatalf("me = %+v", me)
	}
}

func TestSectionUpdatesRecomputeTotals(t *testing.T) {
	env := newEnv(t)
	agg := env.createVehicle(t, "V-100")
	id := agg.Vehicle.ID

	if agg.Shipping.Status != models.ShippingProcessing || agg.Sales.SaleStatus != models.SaleAvailable {
		t.Fatalf("new vehicle sub-records = %+v / %+v", agg.Shipping, agg.Sales)
	}
	if agg.Vehicle.ChassisID != "NHP10-123" || agg.Vehicle.Currency != "JPY" {
		t.Fatalf("vehicle not normalized: %+v", agg.Vehicle)
	}

	path := fmt.Sprintf("/api/vehicles/%d", id)
	status, body := env.call(t, http.MethodPut, path+"/purchase", env.token, map[string]any{
		"lc_cost_jpy": "1000000", "exchange_rate": "2.5",
	})
	mustStatus(t, "purchase", status, fiber.StatusOK, body)

	status, body = env.call(t, http.MethodPut, path+"/financials", env.token, map[string]any{
		"tt_lkr": "100000", "charges_lkr": "50000", "duty_lkr": "300000", "clearing_lkr": "25000",
		"other_expenses": map[string]string{"transport": "15000"},
		"total_cost_lkr": "1",
	})
	mustStatus(t, "financials", status, fiber.StatusOK, body)

	status, body = env.call(t, http.MethodPut, path+"/sales", env.token, map[string]any{
		"sale_status": "sold", "revenue": "3200000", "sold_date": "2024-03-10T00:00:00Z", "profit": "5",
	})
	mustStatus(t, "sales", status, fiber.StatusOK, body)

	agg = env.aggregate(t, id)
	if !agg.Financials.TotalCostLKR.Equal(decimal.NewFromInt(2990000)) {
		t.Errorf("total cost = %s, want 2990000", agg.Financials.TotalCostLKR)
	}
	if !agg.Sales.Profit.Equal(decimal.NewFromInt(210000)) {
		t.Errorf("profit = %s, want 210000", agg.Sales.Profit)
	}
	if agg.Sales.SaleStatus != models.SaleSold {
		t.Errorf("sale status = %s", agg.Sales.SaleStatus)
	}

	status, body = env.call(t, http.MethodPut, path+"/shipping", env.token, map[string]any{
		"status": "SHIPPED", "shipment_date": "2024-02-10T00:00:00Z", "arrival_date": "2024-02-01T00:00:00Z",
	})
	mustStatus(t, "shipping dates out of order", status, fiber.StatusBadRequest, body)

	status, body = env.call(t, http.MethodPut, path+"/sales", env.token, map[string]any{"customer_id": 99})
	mustStatus(t, "unknown customer", status, fiber.StatusBadRequest, body)

	status, body = env.call(t, http.MethodPut, "/api/vehicles/999/shipping", env.token, map[string]any{})
	mustStatus(t, "missing vehicle", status, fiber.StatusNotFound, body)
}

func TestUndoRestoresSectionAndTotals(t *testing.T) {
	env := newEnv(t)
	id := env.createVehicle(t, "V-200").Vehicle.ID
	path := fmt.Sprintf("/api/vehicles/%d", id)

	env.call(t, http.MethodPut, path+"/purchase", env.token, map[string]any{"lc_cost_jpy": "1000000", "exchange_rate": "2.5"})
	env.call(t, http.MethodPut, path+"/financials", env.token, map[string]any{"duty_lkr": "300000"})
	env.call(t, http.MethodPut, path+"/sales", env.token, map[string]any{"sale_status": "SOLD", "revenue": "3200000"})

	status, body := env.call(t, http.MethodGet,
		fmt.Sprintf("/api/audit-logs?entity_type=%s&vehicle_id=%d", audit.EntityFinancials, id), env.token, nil)
	mustStatus(t, "audit list", status, fiber.StatusOK, body)
	var logs []audit.AuditLogResponse
	decode(t, body, &logs)
	if len(logs) != 1 || logs[0].Action != models.AuditActionUpdate {
		t.Fatalf("financials logs = %+v", logs)
	}

	undo := fmt.Sprintf("/api/audit-logs/%d/undo", logs[0].ID)
	status, body = env.call(t, http.MethodPost, undo, env.token, nil)
	mustStatus(t, "undo", status, fiber.StatusOK, body)

	agg := env.aggregate(t, id)
	if !agg.Financials.DutyLKR.IsZero() {
		t.Errorf("duty after undo = %s", agg.Financials.DutyLKR)
	}
	if !agg.Financials.TotalCostLKR.Equal(decimal.NewFromInt(2500000)) {
		t.Errorf("total after undo = %s, want 2500000", agg.Financials.TotalCostLKR)
	}
	if !agg.Sales.Profit.Equal(decimal.NewFromInt(700000)) {
		t.Errorf("profit after undo = %s, want 700000", agg.Sales.Profit)
	}

	status, body = env.call(t, http.MethodPost, undo, env.token, nil)
	mustStatus(t, "second undo", status, fiber.StatusConflict, body)
}

func TestPermissionsGateSections(t *testing.T) {
	env := newEnv(t)
	id := env.createVehicle(t, "V-300").Vehicle.ID

	status, body := env.call(t, http.MethodPost, "/api/admin/roles", env.token, map[string]any{
		"name": "yard", "permissions": []string{"shipping.*"},
	})
	mustStatus(t, "create role", status, fiber.StatusCreated, body)
	var role admin.RoleResponse
	decode(t, body, &role)

	status, body = env.call(t, http.MethodPost, "/api/admin/users", env.token, map[string]any{
		"name": "Kamal", "email": "kamal@example.com", "password": "yard-pass-1", "role_id": role.ID,
	})
	mustStatus(t, "create user", status, fiber.StatusCreated, body)
	var user admin.UserResponse
	decode(t, body, &user)

	token := env.login(t, "kamal@example.com", "yard-pass-1")
	path := fmt.Sprintf("/api/vehicles/%d", id)

	status, body = env.call(t, http.MethodPut, path+"/shipping", token, map[string]any{"status": "SHIPPED", "vessel_name": "Morning Cara"})
	mustStatus(t, "shipping with shipping.*", status, fiber.StatusOK, body)

	status, body = env.call(t, http.MethodPut, path+"/sales", token, map[string]any{"revenue": "1"})
	mustStatus(t, "sales without permission", status, fiber.StatusForbidden, body)

	status, body = env.call(t, http.MethodGet, "/api/admin/users", token, nil)
	mustStatus(t, "admin routes", status, fiber.StatusForbidden, body)

	status, body = env.call(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", user.ID), env.token, map[string]any{"active": false})
	mustStatus(t, "deactivate", status, fiber.StatusOK, body)

	status, body = env.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "kamal@example.com", "password": "yard-pass-1",
	})
	mustStatus(t, "login disabled", status, fiber.StatusForbidden, body)
}

func TestFinancialsOnlyUserChangesPricesNotIdentity(t *testing.T) {
	env := newEnv(t)
	created := env.createVehicle(t, "V-310").Vehicle
	path := fmt.Sprintf("/api/vehicles/%d", created.ID)

	status, body := env.call(t, http.MethodPost, "/api/admin/roles", env.token, map[string]any{
		"name": "accounts", "permissions": []string{"financials.update"},
	})
	mustStatus(t, "create role", status, fiber.StatusCreated, body)
	var role admin.RoleResponse
	decode(t, body, &role)

	status, body = env.call(t, http.MethodPost, "/api/admin/users", env.token, map[string]any{
		"name": "Sunil", "email": "sunil@example.com", "password": "accounts-pass-1", "role_id": role.ID,
	})
	mustStatus(t, "create user", status, fiber.StatusCreated, body)
	token := env.login(t, "sunil@example.com", "accounts-pass-1")

	status, body = env.call(t, http.MethodPut, path+"/vehicle", token, map[string]any{
		"code": "HIJACK", "make": "Nissan", "model": "Leaf", "chassis_id": "ZZZ-1",
		"currency": "usd", "quoted_price": "9000", "auction_price": "8500",
	})
	mustStatus(t, "vehicle update with financials.update", status, fiber.StatusOK, body)

	var saved models.Vehicle
	decode(t, body, &saved)
	if saved.Code != created.Code || saved.Make != created.Make || saved.Model != created.Model || saved.ChassisID != created.ChassisID {
		t.Fatalf("identity changed: got %s %s %s %s, want %s %s %s %s",
			saved.Code, saved.Make, saved.Model, saved.ChassisID,
			created.Code, created.Make, created.Model, created.ChassisID)
	}
	if saved.Currency != "USD" || !saved.AuctionPrice.Equal(decimal.NewFromInt(8500)) || !saved.QuotedPrice.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("prices not applied: %s %s %s", saved.Currency, saved.QuotedPrice, saved.AuctionPrice)
	}

	agg := env.aggregate(t, created.ID)
	if agg.Vehicle.Code != created.Code || agg.Vehicle.Make != created.Make {
		t.Fatalf("stored vehicle = %+v", agg.Vehicle)
	}

	status, body = env.call(t, http.MethodPut, path+"/vehicle", env.token, map[string]any{
		"code": "V-311", "make": "Nissan", "model": "Leaf", "currency": "USD",
	})
	mustStatus(t, "vehicle update with vehicle.update", status, fiber.StatusOK, body)
	decode(t, body, &saved)
	if saved.Code != "V-311" || saved.Make != "Nissan" {
		t.Fatalf("full update = %+v", saved)
	}
}

func TestDocumentsAndImages(t *testing.T) {
	env := newEnv(t)
	id := env.createVehicle(t, "V-400").Vehicle.ID
	path := fmt.Sprintf("/api/vehicles/%d", id)

	status, body := env.upload(t, path+"/documents", "file",
		map[string][]byte{"invoice.pdf": []byte("%PDF-1.4 invoice")}, map[string]string{"type": "invoice"})
	mustStatus(t, "upload document", status, fiber.StatusCreated, body)
	var doc models.VehicleDocument
	decode(t, body, &doc)
	if doc.Type != models.DocumentInvoice || doc.Size != int64(len("%PDF-1.4 invoice")) {
		t.Fatalf("document = %+v", doc)
	}

	status, body = env.upload(t, path+"/documents", "file",
		map[string][]byte{"x.pdf": []byte("x")}, map[string]string{"type": "passport"})
	mustStatus(t, "unknown document type", status, fiber.StatusBadRequest, body)

	status, body = env.call(t, http.MethodGet, fmt.Sprintf("%s/documents/%d/url", path, doc.ID), env.token, nil)
	mustStatus(t, "document url", status, fiber.StatusOK, body)
	var signed media.SignedURL
	decode(t, body, &signed)
	u, err := url.Parse(signed.URL)
	if err != nil || u.Host != "files.test" {
		t.Fatalf("signed url = %q", signed.URL)
	}

	status, body = env.call(t, http.MethodGet, u.Path, "", nil)
	mustStatus(t, "fetch file", status, fiber.StatusOK, body)
	if string(body) != "%PDF-1.4 invoice" {
		t.Fatalf("file body = %q", body)
	}

	status, body = env.call(t, http.MethodGet, "/api/files/not-a-token", "", nil)
	mustStatus(t, "bad file token", status, fiber.StatusForbidden, body)

	// a signed file token is not a login token
	status, body = env.call(t, http.MethodGet, "/api/auth/me", u.Path[len("/api/files/"):], nil)
	mustStatus(t, "file token as login", status, fiber.StatusUnauthorized, body)

	status, body = env.upload(t, path+"/images", "images", map[string][]byte{"front.jpg": []byte("front")}, nil)
	mustStatus(t, "upload first image", status, fiber.StatusCreated, body)
	status, body = env.upload(t, path+"/images", "images", map[string][]byte{"rear.png": []byte("rear")}, nil)
	mustStatus(t, "upload second image", status, fiber.StatusCreated, body)

	status, body = env.upload(t, path+"/images", "images", map[string][]byte{"notes.txt": []byte("x")}, nil)
	mustStatus(t, "non-image upload", status, fiber.StatusBadRequest, body)

	agg := env.aggregate(t, id)
	if len(agg.Documents) != 1 || len(agg.Images) != 2 {
		t.Fatalf("aggregate media = %d docs, %d images", len(agg.Documents), len(agg.Images))
	}
	front, rear := agg.Images[0], agg.Images[1]
	if !front.IsPrimary || rear.IsPrimary || front.DisplayOrder != 0 || rear.DisplayOrder != 1 {
		t.Fatalf("images = %+v", agg.Images)
	}

	status, body = env.call(t, http.MethodPut, fmt.Sprintf("%s/images/%d/primary", path, rear.ID), env.token, nil)
	mustStatus(t, "set primary", status, fiber.StatusOK, body)
	agg = env.aggregate(t, id)
	for _, img := range agg.Images {
		if img.IsPrimary != (img.ID == rear.ID) {
			t.Fatalf("primary not moved: %+v", agg.Images)
		}
	}

	status, body = env.call(t, http.MethodPut, fmt.Sprintf("%s/images/999/primary", path), env.token, nil)
	mustStatus(t, "unknown image", status, fiber.StatusNotFound, body)

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("%s/images/%d", path, rear.ID), env.token, nil)
	mustStatus(t, "delete primary image", status, fiber.StatusNoContent, body)
	agg = env.aggregate(t, id)
	if len(agg.Images) != 1 || !agg.Images[0].IsPrimary {
		t.Fatalf("remaining image not promoted: %+v", agg.Images)
	}

	var stored models.VehicleDocument
	if err := database.DB.First(&stored, doc.ID).Error; err != nil {
		t.Fatal(err)
	}
	full, _ := env.store.Path(stored.StoragePath)
	if _, err := os.Stat(full); err != nil {
		t.Fatalf("document file missing before delete: %v", err)
	}

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("%s/documents/%d", path, doc.ID), env.token, nil)
	mustStatus(t, "delete document", status, fiber.StatusNoContent, body)
	if _, err := os.Stat(full); err == nil {
		t.Fatal("document file still on disk")
	}
}

func TestDeleteVehicleRemovesFiles(t *testing.T) {
	env := newEnv(t)
	id := env.createVehicle(t, "V-500").Vehicle.ID
	path := fmt.Sprintf("/api/vehicles/%d", id)

	env.upload(t, path+"/images", "images", map[string][]byte{"a.jpg": []byte("a")}, nil)

	var images []models.VehicleImage
	if err := database.DB.Where("vehicle_id = ?", id).Find(&images).Error; err != nil || len(images) != 1 {
		t.Fatalf("images = %v, %v", images, err)
	}
	full, _ := env.store.Path(images[0].StoragePath)

	status, body := env.call(t, http.MethodDelete, path, env.token, nil)
	mustStatus(t, "delete vehicle", status, fiber.StatusNoContent, body)

	if _, err := os.Stat(full); err == nil {
		t.Fatal("image file still on disk")
	}
	status, body = env.call(t, http.MethodGet, path, env.token, nil)
	mustStatus(t, "get deleted", status, fiber.StatusNotFound, body)
}

func TestCustomersAndListing(t *testing.T) {
	env := newEnv(t)
	id := env.createVehicle(t, "V-600").Vehicle.ID
	env.createVehicle(t, "V-601")

	status, body := env.call(t, http.MethodPost, "/api/customers", env.token, map[string]any{
		"name": "Sunil Perera", "phone": "0771234567", "nic": "851234567v",
	})
	mustStatus(t, "create customer", status, fiber.StatusCreated, body)
	var cu struct {
		ID  uint   `json:"id"`
		NIC string `json:"nic"`
	}
	decode(t, body, &cu)
	if cu.NIC != "851234567V" {
		t.Errorf("nic = %q", cu.NIC)
	}

	status, body = env.call(t, http.MethodPut, fmt.Sprintf("/api/vehicles/%d/sales", id), env.token, map[string]any{
		"sale_status": "RESERVED", "customer_id": cu.ID,
	})
	mustStatus(t, "sales with customer", status, fiber.StatusOK, body)

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("/api/customers/%d", cu.ID), env.token, nil)
	mustStatus(t, "delete linked customer", status, fiber.StatusConflict, body)

	status, body = env.call(t, http.MethodGet, "/api/vehicles?sale_status=reserved", env.token, nil)
	mustStatus(t, "list", status, fiber.StatusOK, body)
	var list vehicle.ListResponse
	decode(t, body, &list)
	if list.Total != 1 || len(list.Items) != 1 || list.Items[0].Code != "V-600" {
		t.Fatalf("list = %+v", list)
	}

	status, body = env.call(t, http.MethodGet, "/api/vehicles?search=v-60", env.token, nil)
	mustStatus(t, "search", status, fiber.StatusOK, body)
	decode(t, body, &list)
	if list.Total != 2 {
		t.Fatalf("search total = %d", list.Total)
	}

	status, body = env.call(t, http.MethodPost, "/api/vehicles", env.token, map[string]any{
		"code": "V-600", "make": "Honda", "model": "Fit",
	})
	mustStatus(t, "duplicate code", status, fiber.StatusConflict, body)
}

func TestExportAndImport(t *testing.T) {
	env := newEnv(t)
	env.createVehicle(t, "V-700")

	status, body := env.call(t, http.MethodGet, "/api/vehicles/export", env.token, nil)
	mustStatus(t, "export", status, fiber.StatusOK, body)
	book, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	rows, err := book.GetRows("Vehicles")
	book.Close()
	if err != nil || len(rows) != 2 || rows[1][0] != "V-700" {
		t.Fatalf("export rows = %v, %v", rows, err)
	}

	in := excelize.NewFile()
	sheet := in.GetSheetName(0)
	for i, row := range [][]any{
		{"Code", "Make", "Model", "Year"},
		{"V-701", "Nissan", "Leaf", 2019},
		{"V-700", "Toyota", "Aqua", 2018},
		{"V-702", "", "Vezel", 2017},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		in.SetSheetRow(sheet, cell, &row)
	}
	var xlsx bytes.Buffer
	if err := in.Write(&xlsx); err != nil {
		t.Fatal(err)
	}
	in.Close()

	status, body = env.upload(t, "/api/vehicles/import", "file", map[string][]byte{"stock.xlsx": xlsx.Bytes()}, nil)
	mustStatus(t, "import", status, fiber.StatusOK, body)
	var result vehicle.ImportResult
	decode(t, body, &result)
	if len(result.Created) != 1 || result.Created[0] != "V-701" {
		t.Errorf("created = %v", result.Created)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "V-700" {
		t.Errorf("skipped = %v", result.Skipped)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestDashboard(t *testing.T) {
	env := newEnv(t)
	id := env.createVehicle(t, "V-800").Vehicle.ID
	env.createVehicle(t, "V-801")

	env.call(t, http.MethodPut, fmt.Sprintf("/api/vehicles/%d/sales", id), env.token, map[string]any{
		"sale_status": "SOLD", "revenue": "1000", "sold_date": time.Now().UTC().Format(time.RFC3339),
	})

	status, body := env.call(t, http.MethodGet, "/api/dashboard/summary", env.token, nil)
	mustStatus(t, "summary", status, fiber.StatusOK, body)
	var summary struct {
		Vehicles     int            `json:"vehicles"`
		BySaleStatus map[string]int `json:"by_sale_status"`
	}
	decode(t, body, &summary)
	if summary.Vehicles != 2 || summary.BySaleStatus["SOLD"] != 1 || summary.BySaleStatus["AVAILABLE"] != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	status, body = env.call(t, http.MethodGet, "/api/dashboard/profit-chart?months=3", env.token, nil)
	mustStatus(t, "profit chart", status, fiber.StatusOK, body)
	var chart struct {
		Points []struct {
			Sold int `json:"sold"`
		} `json:"points"`
	}
	decode(t, body, &chart)
	if len(chart.Points) != 3 || chart.Points[2].Sold != 1 {
		t.Fatalf("chart = %+v", chart)
	}

	status, body = env.call(t, http.MethodGet, "/api/dashboard/profit-chart?months=0", env.token, nil)
	mustStatus(t, "bad months", status, fiber.StatusBadRequest, body)
}
