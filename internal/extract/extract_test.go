package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-extractor/internal/oracle"
	"github.com/dvloznov/statement-extractor/internal/schema"
)

func testSchema() *schema.ColumnSchema {
	sch := &schema.ColumnSchema{Columns: []schema.ColumnDescriptor{
		{Position: 1, HeaderName: "Date", DataType: schema.DataTypeDate, StandardizedField: "date"},
		{Position: 2, HeaderName: "Particulars", DataType: schema.DataTypeDescription, StandardizedField: "description"},
		{Position: 3, HeaderName: "Withdrawal", DataType: schema.DataTypeDebit, StandardizedField: "debit"},
		{Position: 4, HeaderName: "Deposit", DataType: schema.DataTypeCredit, StandardizedField: "credit"},
		{Position: 5, HeaderName: "Balance", DataType: schema.DataTypeBalance, StandardizedField: "running_balance"},
	}}
	sch.TotalColumns = len(sch.Columns)
	return sch
}

// recordingObserver captures observer notifications.
type recordingObserver struct {
	attempts []int
}

func (r *recordingObserver) PageResponse(pageIndex, attempt int, raw string) {
	r.attempts = append(r.attempts, attempt)
}

func TestPageFirstPageShape(t *testing.T) {
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		return `{"transactions": [
			{"date": "01-Apr-2024", "description": "SALARY CREDIT", "debit": null, "credit": "50,000.00", "running_balance": "1,42,432.00Cr"}
		]}`, nil
	})

	ex := New(orc, 2, 0)
	records, err := ex.Page(context.Background(), "page text", testSchema(), 1, true, nil)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec["date"] != "2024-04-01" {
		t.Errorf("date = %v, want 2024-04-01", rec["date"])
	}
	if rec["debit"] != nil {
		t.Errorf("debit = %v, want nil", rec["debit"])
	}
	credit, ok := rec["credit"].(decimal.Decimal)
	if !ok || credit.String() != "50000" {
		t.Errorf("credit = %v, want 50000", rec["credit"])
	}
	balance, ok := rec["running_balance"].(decimal.Decimal)
	if !ok || balance.String() != "142432" {
		t.Errorf("running_balance = %v, want 142432", rec["running_balance"])
	}
}

func TestPageNextPageShape(t *testing.T) {
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		if !strings.Contains(instructions, "Column 3 -> debit") {
			t.Error("instructions missing positional column mapping")
		}
		return `[{"date": "02/04/2024", "description": "ATM WDL", "debit": "500.00 Dr", "credit": null, "running_balance": null}]`, nil
	})

	ex := New(orc, 2, 0)
	records, err := ex.Page(context.Background(), "page text", testSchema(), 2, false, nil)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	debit, ok := records[0]["debit"].(decimal.Decimal)
	if !ok || debit.String() != "500" {
		t.Errorf("debit = %v, want 500", records[0]["debit"])
	}
	if records[0]["date"] != "2024-04-02" {
		t.Errorf("date = %v, want 2024-04-02", records[0]["date"])
	}
}

func TestPageRetriesThenSucceeds(t *testing.T) {
	calls := 0
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		calls++
		if calls == 1 {
			return "the model rambles instead of answering", nil
		}
		return `[]`, nil
	})

	obs := &recordingObserver{}
	ex := New(orc, 2, 0)
	ex.SetObserver(obs)

	records, err := ex.Page(context.Background(), "text", testSchema(), 3, false, nil)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
	if len(obs.attempts) != 2 || obs.attempts[0] != 1 || obs.attempts[1] != 2 {
		t.Errorf("observer attempts = %v, want [1 2]", obs.attempts)
	}
}

func TestPageExhaustsRetries(t *testing.T) {
	tests := []struct {
		name     string
		response string
		callErr  error
	}{
		{name: "persistent garbage", response: "not json at all"},
		{name: "wrong shape object for next page", response: `{"oops": true}`},
		{name: "scalar elements", response: `[1, 2, 3]`},
		{name: "call failures", callErr: errors.New("deadline exceeded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
				calls++
				return tt.response, tt.callErr
			})

			ex := New(orc, 2, 0)
			_, err := ex.Page(context.Background(), "text", testSchema(), 4, false, nil)
			if err == nil {
				t.Fatal("Page succeeded, want page-level failure")
			}
			if calls != 3 {
				t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls)
			}
		})
	}
}

func TestPageFirstShapeRejectedOnNextPage(t *testing.T) {
	// An object response on a subsequent page violates the array contract
	// even though it would decode fine.
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		return `{"transactions": []}`, nil
	})

	ex := New(orc, 0, 0)
	if _, err := ex.Page(context.Background(), "text", testSchema(), 2, false, nil); err == nil {
		t.Fatal("object-shaped response accepted on a subsequent page")
	}
}

func TestPageDropsUnknownKeysAndFillsMissing(t *testing.T) {
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		return `[{"date": "2024-04-03", "description": "FEE", "invented_key": "x"}]`, nil
	})

	ex := New(orc, 0, 0)
	records, err := ex.Page(context.Background(), "text", testSchema(), 2, false, nil)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	rec := records[0]
	if _, ok := rec["invented_key"]; ok {
		t.Error("unknown key survived")
	}
	for _, field := range []string{"debit", "credit", "running_balance"} {
		v, ok := rec[field]
		if !ok {
			t.Errorf("field %s missing, want explicit nil", field)
		}
		if v != nil {
			t.Errorf("field %s = %v, want nil", field, v)
		}
	}
}

func TestPageUnparsableCellsBecomeNil(t *testing.T) {
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		return `[{"date": "sometime in April", "description": "X", "debit": "pending", "credit": "N/A", "running_balance": "--"}]`, nil
	})

	ex := New(orc, 0, 0)
	records, err := ex.Page(context.Background(), "text", testSchema(), 2, false, nil)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	rec := records[0]
	for _, field := range []string{"date", "debit", "credit", "running_balance"} {
		if rec[field] != nil {
			t.Errorf("field %s = %v, want nil", field, rec[field])
		}
	}
	if rec["description"] != "X" {
		t.Errorf("description = %v, want X", rec["description"])
	}
}

func TestPageRequiresSchema(t *testing.T) {
	ex := New(oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		t.Error("oracle must not be called without a schema")
		return "", nil
	}), 0, 0)

	_, err := ex.Page(context.Background(), "text", nil, 1, false, nil)
	if !errors.Is(err, ErrSchemaRequired) {
		t.Fatalf("err = %v, want ErrSchemaRequired", err)
	}
}

func TestPageCallTimeout(t *testing.T) {
	orc := oracle.Func(func(ctx context.Context, instructions, input string) (string, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("per-call context has no deadline")
		} else if time.Until(deadline) > time.Minute {
			t.Errorf("deadline too far out: %v", time.Until(deadline))
		}
		return `[]`, nil
	})

	ex := New(orc, 0, 30*time.Second)
	if _, err := ex.Page(context.Background(), "text", testSchema(), 2, false, nil); err != nil {
		t.Fatalf("Page failed: %v", err)
	}
}
