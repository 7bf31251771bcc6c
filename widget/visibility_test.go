package widget

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

func TestVisible(t *testing.T) {
	cart := func(v string) *models.PageContext {
		return &models.PageContext{CartValue: decimal.RequireFromString(v)}
	}

	tests := []struct {
		name  string
		rules models.VisibilityRules
		path  string
		pc    *models.PageContext
		want  bool
	}{
		{"no rules", models.VisibilityRules{}, "/anything", nil, true},
		{"excluded exact", models.VisibilityRules{ExcludePaths: []string{"/checkout"}}, "/checkout/", nil, false},
		{"excluded prefix", models.VisibilityRules{ExcludePaths: []string{"/admin*"}}, "/admin/boats", nil, false},
		{"exact does not match child", models.VisibilityRules{ExcludePaths: []string{"/admin"}}, "/admin/boats", nil, true},
		{"included", models.VisibilityRules{IncludePaths: []string{"/yachts*", "/contact"}}, "/contact", nil, true},
		{"not included", models.VisibilityRules{IncludePaths: []string{"/yachts*"}}, "/blog", nil, false},
		{"exclude wins", models.VisibilityRules{IncludePaths: []string{"/yachts*"}, ExcludePaths: []string{"/yachts/sold"}}, "/yachts/sold", nil, false},
		{"root only", models.VisibilityRules{IncludePaths: []string{"/"}}, "/", nil, true},
		{"blank pattern ignored", models.VisibilityRules{ExcludePaths: []string{" "}}, "/", nil, true},
		{"cart below min", models.VisibilityRules{MinCartValue: decimal.NewFromInt(50)}, "/", cart("49.99"), false},
		{"cart at min", models.VisibilityRules{MinCartValue: decimal.NewFromInt(50)}, "/", cart("50"), true},
		{"missing cart counts as zero", models.VisibilityRules{MinCartValue: decimal.NewFromInt(1)}, "/", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Visible(tc.rules, tc.path, tc.pc); got != tc.want {
				t.Errorf("Visible(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}
