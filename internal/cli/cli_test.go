package cli

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vehicle-admin/internal/apiclient"
	"vehicle-admin/internal/config"
	"vehicle-admin/internal/database/dbtest"
	"vehicle-admin/internal/editor"
	"vehicle-admin/internal/media"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/server"

	"github.com/shopspring/decimal"
)

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		field   string
		value   any
		wantErr bool
	}{
		{in: "duty_lkr=350000", field: "duty_lkr", value: "350000"},
		{in: " Vessel_Name = Morning Cara ", field: "vessel_name", value: "Morning Cara"},
		{in: "other_expenses.transport=15,000", field: "other_expenses.transport", value: "15,000"},
		{in: "remarks=a=b", field: "remarks", value: "a=b"},
		{in: "sold_date=", field: "sold_date", value: nil},
		{in: "customer_id=NULL", field: "customer_id", value: nil},
		{in: "duty_lkr", wantErr: true},
		{in: "=5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAssignment(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Field != tt.field || got.Value != tt.value {
				t.Fatalf("got %+v, want %s=%v", got, tt.field, tt.value)
			}
		})
	}
}

func TestSectionValuesFinancials(t *testing.T) {
	a := models.VehicleAggregate{
		Vehicle: models.Vehicle{Currency: "JPY", AuctionPrice: decimal.NewFromInt(1200000)},
		Financials: models.VehicleFinancials{
			DutyLKR: decimal.NewFromInt(300000),
			OtherExpenses: models.OtherExpenses{
				"transport": decimal.NewFromInt(15000),
				"repairs":   decimal.NewFromInt(5000),
			},
			TotalCostLKR: decimal.NewFromInt(320000),
		},
	}
	rows := SectionValues(a, editor.SectionFinancials)

	var keys []string
	for _, r := range rows {
		keys = append(keys, r[0])
	}
	want := "currency quoted_price auction_price tt_lkr charges_lkr duty_lkr clearing_lkr other_expenses.repairs other_expenses.transport total_cost_lkr"
	if strings.Join(keys, " ") != want {
		t.Fatalf("fields = %v", keys)
	}
	if rows[len(rows)-1][1] != "320000.00" {
		t.Fatalf("total = %q", rows[len(rows)-1][1])
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	dbtest.Open(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	base := "http://" + ln.Addr().String()
	cfg := &config.Config{
		JWTSecret:     "cli-test-secret-with-at-least-32-chars",
		CORSOrigins:   "*",
		PublicBaseURL: base,
		SignedURLTTL:  time.Minute,
	}
	store, err := media.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	app := server.New(cfg, store, media.NewSigner(cfg.JWTSecret, cfg.SignedURLTTL, cfg.PublicBaseURL))
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })
	return base
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestLoginEditAndShow(t *testing.T) {
	base := startServer(t)
	ctx := context.Background()

	c := apiclient.New(base, "", 5*time.Second)
	if _, err := c.RegisterAdmin(ctx, "Nimal", "admin@example.com", "secret-pass"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Login(ctx, "admin@example.com", "secret-pass"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateVehicle(ctx, models.Vehicle{Code: "V-1", Make: "Toyota", Model: "Aqua"}); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(t.TempDir(), "vehiclectl.yaml")
	global := []string{"--config", cfgPath, "--server", base}

	out, _, err := run(t, append(global, "login", "--email", "admin@example.com", "--password", "secret-pass")...)
	if err != nil || !strings.Contains(out, "Logged in as Nimal (admin)") {
		t.Fatalf("login: %q, %v", out, err)
	}
	saved, err := config.LoadClient(cfgPath)
	if err != nil || saved.Token == "" {
		t.Fatalf("token not stored: %+v, %v", saved, err)
	}

	out, _, err = run(t, append(global, "edit", "1", "--section", "financials",
		"--set", "duty_lkr=300000", "--set", "other_expenses.transport=15000", "--dry-run")...)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "315000.00") || !strings.Contains(out, "Dry run") {
		t.Fatalf("dry run output:\n%s", out)
	}

	agg, _ := c.FetchVehicle(ctx, 1)
	if !agg.Financials.DutyLKR.IsZero() {
		t.Fatalf("dry run saved duty %s", agg.Financials.DutyLKR)
	}

	_, errOut, err := run(t, append(global, "edit", "1", "--section", "financials", "--set", "duty_lkr=300000")...)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(errOut, "Financial Summary updated successfully") {
		t.Errorf("no success notification in %q", errOut)
	}

	out, _, err = run(t, append(global, "show", "1")...)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"== Vehicle Details", "V-1", "== Financial Summary", "300000.00", "== Documents (0)"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output lacks %q:\n%s", want, out)
		}
	}

	_, _, err = run(t, append(global, "edit", "1", "--section", "sales", "--set", "profit=1")...)
	if err == nil {
		t.Fatal("editing a derived field should fail")
	}

	_, _, err = run(t, append(global, "edit", "1", "--section", "boats", "--set", "x=1")...)
	if err == nil {
		t.Fatal("unknown section should fail")
	}
}

func TestVersionNeedsNoConfig(t *testing.T) {
	out, _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing", "x.yaml"), "version")
	if err != nil || !strings.HasPrefix(out, "vehiclectl ") {
		t.Fatalf("version = %q, %v", out, err)
	}
}
