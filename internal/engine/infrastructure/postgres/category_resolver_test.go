package postgres

import (
	"context"
	"errors"
	"testing"

	"scenario-cloud/internal/engine/domain"
)

func TestCategoryResolverExplicitColumnWins(t *testing.T) {
	resolver := NewCategoryResolver(nil)

	category, err := resolver.Resolve(context.Background(), boqLineRef{LineID: 1, Category: "AN", ProductID: 9})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if category != domain.CategoryAN {
		t.Fatalf("category = %s, want AN", category)
	}
}

func TestCategoryResolverRejectsUnknownExplicit(t *testing.T) {
	resolver := NewCategoryResolver(nil)

	if _, err := resolver.Resolve(context.Background(), boqLineRef{LineID: 1, Category: "Fuel"}); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestCategoryResolverUnresolvedIsError(t *testing.T) {
	resolver := NewCategoryResolver(nil)

	if _, err := resolver.Resolve(context.Background(), boqLineRef{LineID: 1}); err == nil {
		t.Fatal("expected error when no strategy matches")
	}
}

func TestCategoryResolverChainOrder(t *testing.T) {
	calls := []string{}
	resolver := &CategoryResolver{strategies: []categoryStrategy{
		func(context.Context, boqLineRef) (domain.Category, bool, error) {
			calls = append(calls, "first")
			return "", false, nil
		},
		func(context.Context, boqLineRef) (domain.Category, bool, error) {
			calls = append(calls, "second")
			return domain.CategoryEM, true, nil
		},
		func(context.Context, boqLineRef) (domain.Category, bool, error) {
			calls = append(calls, "third")
			return "", false, errors.New("must not be reached")
		},
	}}

	category, err := resolver.Resolve(context.Background(), boqLineRef{LineID: 1})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if category != domain.CategoryEM {
		t.Fatalf("category = %s, want EM", category)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected strategy calls: %v", calls)
	}
}
