package blueprint

import "blueprints.ai/internal/catalogs"

// subtractCosts takes paid off total item by item, keeping total's order and
// leaving out items that are paid in full.
func subtractCosts(total []catalogs.ItemCount, paid map[string]int) []catalogs.ItemCount {
	var left []catalogs.ItemCount
	for _, ic := range total {
		if ic.Item == "" {
			continue
		}
		if n := ic.Count - max(paid[ic.Item], 0); n > 0 {
			left = append(left, catalogs.ItemCount{Item: ic.Item, Count: n})
		}
	}
	return left
}
