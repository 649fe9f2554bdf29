package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/oneinfo/affiliate-backend/internal/constants"

	"github.com/xuri/excelize/v2"
)

func TestImportCSVReportEnqueuesValidRows(t *testing.T) {
	env := setupServiceTest(t)
	svc := NewReportImportService(env.orderRepo, env.queue)

	csvBody := strings.Join([]string{
		"orderId,shortCode,creatorId,productName,orderValue,category",
		"FLIP-1,OI-AAA111,creator-1,Shoes,\"2,500\",Fashion",
		"FLIP-2,OI-BBB222,creator-2,Shirt,abc,fashion",
		",,,,,",
		"FLIP-3,,creator-3,Bag,1200,fashion",
	}, "\n")

	result, err := svc.Import(t.Context(), "Flipkart", "report.csv", strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.TotalRows != 3 || result.Enqueued != 2 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Errors[0].Row != 3 || result.Errors[0].OrderID != "FLIP-2" {
		t.Fatalf("unexpected row error: %+v", result.Errors[0])
	}
	first := env.queue.orders[0]
	if first.Platform != "flipkart" || first.Category != "fashion" || first.Source != constants.OrderSourceReport {
		t.Fatalf("unexpected payload: %+v", first)
	}
	assertMoney(t, "order_value", first.OrderValue, "2500")
}

func TestImportReportSkipsExistingOrders(t *testing.T) {
	env := setupServiceTest(t)
	seedRule(t, env, "meesho", "fashion", "10", "7")
	ingestAndAggregate(t, env, IngestOrderInput{
		OrderID:    "MEE-1",
		Platform:   "meesho",
		Category:   "fashion",
		OrderValue: mustMoney(t, "100"),
		CreatorID:  "creator-1",
	})
	svc := NewReportImportService(env.orderRepo, env.queue)

	csvBody := "order_id,creator_id,order_value,category,status\nMEE-1,creator-1,100,fashion,\nMEE-1,creator-1,100,fashion,approved\n"
	result, err := svc.Import(t.Context(), "meesho", "meesho.csv", strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Duplicates != 1 || result.Enqueued != 1 {
		t.Fatalf("status rows should pass through, plain duplicates skipped: %+v", result)
	}
	if env.queue.orders[0].Status != constants.OrderStatusApproved {
		t.Fatalf("unexpected status: %s", env.queue.orders[0].Status)
	}
}

func TestImportXLSXReport(t *testing.T) {
	env := setupServiceTest(t)
	svc := NewReportImportService(env.orderRepo, env.queue)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{"Order ID", "Short Code", "Order Value", "Category"},
		{"X-1", "OI-XLS001", "450.50", "fashion"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row failed: %v", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx failed: %v", err)
	}

	result, err := svc.Import(t.Context(), "flipkart", "report.xlsx", buf)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Enqueued != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	assertMoney(t, "order_value", env.queue.orders[0].OrderValue, "450.50")
	if env.queue.orders[0].ShortCode != "OI-XLS001" {
		t.Fatalf("unexpected short code: %s", env.queue.orders[0].ShortCode)
	}
}

func TestImportReportRejectsBadInput(t *testing.T) {
	env := setupServiceTest(t)
	svc := NewReportImportService(env.orderRepo, env.queue)

	if _, err := svc.Import(t.Context(), "flipkart", "report.pdf", strings.NewReader("x")); !errors.Is(err, ErrReportFormatInvalid) {
		t.Fatalf("expected ErrReportFormatInvalid, got %v", err)
	}
	if _, err := svc.Import(t.Context(), "flipkart", "report.csv", strings.NewReader("order_id,category\nA,fashion\n")); !errors.Is(err, ErrReportHeaderInvalid) {
		t.Fatalf("expected ErrReportHeaderInvalid, got %v", err)
	}
}
