package query

import "testing"

func TestTokenizeBareWordsProduceTermTokens(t *testing.T) {
	tokens, err := Tokenize("report draft")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Kind != TERM || tokens[0].Value != "report" ||
		tokens[1].Kind != TERM || tokens[1].Value != "draft" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestTokenizeQuotedTermKeepsQuotes(t *testing.T) {
	tokens, err := Tokenize(`"annual report"`)
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != QUOTED || tokens[0].Value != `"annual report"` {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestTokenizeUnclosedQuoteIsSyntaxError(t *testing.T) {
	_, err := Tokenize(`"report`)
	qerr, ok := err.(*Error)
	if !ok || qerr.Kind != ErrSyntax {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
}

func TestTokenizeWordOperatorsAreCaseInsensitive(t *testing.T) {
	tokens, err := Tokenize("report and draft OR final")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	wantKinds := []Kind{TERM, AND, TERM, OR, TERM}
	if len(tokens) != len(wantKinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(wantKinds), len(tokens), tokens)
	}
	for i, k := range wantKinds {
		if tokens[i].Kind != k {
			t.Fatalf("token %d: expected kind %v, got %v", i, k, tokens[i].Kind)
		}
	}
}

func TestTokenizeSymbolicOperatorsAndParens(t *testing.T) {
	tokens, err := Tokenize("a & (b | !c)")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	wantKinds := []Kind{TERM, AND, OPEN_PAREN, TERM, OR, NOT, TERM, CLOSE_PAREN}
	if len(tokens) != len(wantKinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(wantKinds), len(tokens), tokens)
	}
	for i, k := range wantKinds {
		if tokens[i].Kind != k {
			t.Fatalf("token %d: expected kind %v, got %v", i, k, tokens[i].Kind)
		}
	}
}

func TestTokenizeKeyValuePair(t *testing.T) {
	tokens, err := Tokenize("ext:pdf")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != KEYVALUE || tokens[0].Value != "ext:pdf" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestTokenizeKeyValueWithQuotedValueStopsAtClosingQuote(t *testing.T) {
	tokens, err := Tokenize(`name:"quarterly report"`)
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != KEYVALUE || tokens[0].Value != `name:"quarterly report"` {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestTokenizeEmptyInputIsTokenizationError(t *testing.T) {
	_, err := Tokenize("   ")
	qerr, ok := err.(*Error)
	if !ok || qerr.Kind != ErrTokenization {
		t.Fatalf("expected ErrTokenization, got %v", err)
	}
}
