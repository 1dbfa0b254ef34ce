package rbac

import (
	"strings"

	"branchpos/internal/core/security"
)

// CatalogEntry is a resource the application knows how to protect.
type CatalogEntry struct {
	Key         string
	Type        security.ResourceType
	Description string
}

// Resource keys referenced from code.
const (
	ResourceProducts    = "products.page"
	ResourcePermissions = "permissions.page"
	ResourceBranches    = "branches.page"
)

// pageBases are the application areas that get a page resource and a menu entry.
var pageBases = []struct {
	base        string
	description string
}{
	{"orders", "Orders"},
	{"products", "Products"},
	{"queue", "Kitchen queue"},
	{"shifts", "Cashier shifts"},
	{"payments", "Payments"},
	{"category", "Product categories"},
	{"delivery", "Delivery"},
	{"discounts", "Discounts"},
	{"payment_methods", "Payment methods"},
	{"tables", "Tables"},
	{"shop_profile", "Shop profile"},
	{"branches", "Branches"},
	{"users", "Users"},
	{"reports", "Reports"},
	{"stock", "Stock"},
	{"stock_orders", "Stock orders"},
	{"permissions", "Permissions"},
	{"roles", "Roles"},
	{"audit_log", "Audit log"},
}

// posMenus are the point-of-sale shortcuts shown on the cashier screen.
var posMenus = []string{"orders", "queue", "payments", "shifts", "tables"}

// Catalog returns the static resource catalog seeded by bootstrap.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(pageBases)*2+len(posMenus))
	for _, p := range pageBases {
		out = append(out,
			CatalogEntry{Key: p.base + ".page", Type: security.ResourcePage, Description: p.description},
			CatalogEntry{Key: p.base + ".menu", Type: security.ResourceMenu, Description: p.description + " menu"},
		)
	}
	for _, m := range posMenus {
		out = append(out, CatalogEntry{Key: "pos." + m + ".menu", Type: security.ResourceMenu, Description: "POS " + m})
	}
	return out
}

// baseName strips the type suffix: "payment_methods.page" -> "payment_methods",
// "pos.orders.menu" -> "pos.orders".
func baseName(key string) string {
	if i := strings.LastIndexByte(key, '.'); i > 0 {
		return key[:i]
	}
	return key
}
