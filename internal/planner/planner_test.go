package planner

import (
	"strings"
	"testing"

	"github.com/akelsh/seek/internal/query"
)

func planString(t *testing.T, q string) (string, []interface{}) {
	t.Helper()
	expr, err := query.Parse(q)
	if err != nil {
		t.Fatalf("query.Parse(%q) returned error: %v", q, err)
	}
	plan, err := Build(expr)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return plan.Where, plan.Bindings
}

func TestSingleBareTermBecomesPrefixLike(t *testing.T) {
	where, bindings := planString(t, "report")
	if where != "name LIKE ?" {
		t.Fatalf("expected name LIKE ?, got %q", where)
	}
	if len(bindings) != 1 || bindings[0] != "report%" {
		t.Fatalf("expected prefix binding, got %v", bindings)
	}
}

func TestQuotedTermIsExactMatch(t *testing.T) {
	where, bindings := planString(t, `"readme.txt"`)
	if where != "name = ?" {
		t.Fatalf("expected name = ?, got %q", where)
	}
	if len(bindings) != 1 || bindings[0] != "readme.txt" {
		t.Fatalf("expected exact binding, got %v", bindings)
	}
}

func TestMultiTokenSimpleQueryIsVerbatimAnd(t *testing.T) {
	where, bindings := planString(t, "quarterly report")
	if !strings.Contains(where, " AND ") {
		t.Fatalf("expected AND composition, got %q", where)
	}
	if len(bindings) != 2 || bindings[0] != "%quarterly%" || bindings[1] != "%report%" {
		t.Fatalf("expected verbatim substring bindings, got %v", bindings)
	}
}

func TestBooleanOrComposesParenthesizedClauses(t *testing.T) {
	where, bindings := planString(t, "invoice | receipt")
	if !strings.Contains(where, " OR ") {
		t.Fatalf("expected OR composition, got %q", where)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %v", bindings)
	}
}

func TestNotWrapsInnerClause(t *testing.T) {
	where, _ := planString(t, "!draft")
	if !strings.HasPrefix(where, "NOT (") {
		t.Fatalf("expected NOT-prefixed clause, got %q", where)
	}
}

func TestExtensionKeyValue(t *testing.T) {
	where, bindings := planString(t, "ext:pdf")
	if where != "file_extension = ?" {
		t.Fatalf("expected file_extension = ?, got %q", where)
	}
	if len(bindings) != 1 || bindings[0] != "pdf" {
		t.Fatalf("expected pdf binding, got %v", bindings)
	}
}

func TestSizeKeyValueWithUnit(t *testing.T) {
	where, bindings := planString(t, "size:>10MB")
	if where != "size > ?" {
		t.Fatalf("expected size > ?, got %q", where)
	}
	if len(bindings) != 1 || bindings[0] != int64(10*1024*1024) {
		t.Fatalf("expected 10MB in bytes, got %v", bindings)
	}
}

func TestSizeKeyValueMalformedFallsBackToSubstring(t *testing.T) {
	where, bindings := planString(t, "size:huge")
	if where != "name LIKE ?" {
		t.Fatalf("expected fallback substring match, got %q", where)
	}
	if len(bindings) != 1 || bindings[0] != "%huge%" {
		t.Fatalf("expected substring binding, got %v", bindings)
	}
}

func TestTypeKeyValueExpandsCategory(t *testing.T) {
	where, bindings := planString(t, "type:image")
	if !strings.HasPrefix(where, "file_extension IN (") {
		t.Fatalf("expected IN clause, got %q", where)
	}
	if len(bindings) != len(categoryExtensions["image"]) {
		t.Fatalf("expected one binding per extension, got %d", len(bindings))
	}
}

func TestTypeKeyValueFolder(t *testing.T) {
	where, bindings := planString(t, "type:folder")
	if where != "is_directory = 1" {
		t.Fatalf("expected is_directory = 1, got %q", where)
	}
	if len(bindings) != 0 {
		t.Fatalf("expected no bindings, got %v", bindings)
	}
}

func TestModifiedKeyValueRelativeKeyword(t *testing.T) {
	where, bindings := planString(t, "modified:today")
	if where != "date_modified >= ?" {
		t.Fatalf("expected date_modified >= ?, got %q", where)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected one binding, got %v", bindings)
	}
}

func TestCreatedKeyValueExactDateRange(t *testing.T) {
	where, bindings := planString(t, "created:2024-01-15")
	if where != "date_added >= ? AND date_added < ?" {
		t.Fatalf("expected half-open day range, got %q", where)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %v", bindings)
	}
}

func TestModifiedKeyValueMalformedMatchesNothing(t *testing.T) {
	where, bindings := planString(t, "modified:notadate")
	if where != "1=0" {
		t.Fatalf("expected 1=0, got %q", where)
	}
	if len(bindings) != 0 {
		t.Fatalf("expected no bindings, got %v", bindings)
	}
}

func TestAliasesResolveToCanonicalKey(t *testing.T) {
	where1, bindings1 := planString(t, "filesize:>1KB")
	where2, bindings2 := planString(t, "size:>1KB")
	if where1 != where2 {
		t.Fatalf("expected alias to resolve identically, got %q vs %q", where1, where2)
	}
	if bindings1[0] != bindings2[0] {
		t.Fatalf("expected identical bindings, got %v vs %v", bindings1, bindings2)
	}
}
