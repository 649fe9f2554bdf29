package repository

import (
	"testing"
)

func TestBuildKeywordConditionByDialect(t *testing.T) {
	condition, argCount := buildKeywordConditionByDialect("sqlite", []string{"short_code", " ", "product_title"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "short_code LIKE ? OR product_title LIKE ?" {
		t.Fatalf("unexpected sqlite condition: %s", condition)
	}

	condition, _ = buildKeywordConditionByDialect("postgres", []string{"order_id"})
	if condition != "order_id ILIKE ?" {
		t.Fatalf("unexpected postgres condition: %s", condition)
	}
}

func TestDBDialectNameDefaultsToSQLite(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
