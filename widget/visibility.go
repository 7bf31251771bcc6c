package widget

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tech-monarch/schepen-kring-sub003/models"
)

// Visible решает по правилам видимости, отображать ли виджет на странице.
// Отсутствующий контекст страницы считается корзиной с нулевой суммой.
func Visible(rules models.VisibilityRules, path string, pc *models.PageContext) bool {
	for _, p := range rules.ExcludePaths {
		if matchPath(p, path) {
			return false
		}
	}

	if len(rules.IncludePaths) > 0 {
		included := false
		for _, p := range rules.IncludePaths {
			if matchPath(p, path) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	if rules.MinCartValue.GreaterThan(decimal.Zero) {
		cart := decimal.Zero
		if pc != nil {
			cart = pc.CartValue
		}
		if cart.LessThan(rules.MinCartValue) {
			return false
		}
	}
	return true
}

// matchPath: шаблон с '*' на конце задаёт префикс, иначе точное совпадение без завершающего '/'.
func matchPath(pattern, path string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return trimSlash(pattern) == trimSlash(path)
}

func trimSlash(p string) string {
	if len(p) > 1 {
		return strings.TrimRight(p, "/")
	}
	return p
}
