// internal/domain/cart/merge.go
package cart

// Merge reconciles the device cart with the remote cart when an identity attaches.
//
//   - an item present on both sides keeps the remote snapshot fields and the larger quantity
//   - an item present on one side only is kept unchanged
//
// Remote lines come first in remote order, then local-only lines in local order.
// The larger quantity wins so that items added on either side are never silently lost.
func Merge(local, remote Cart) Cart {
	out := make([]Line, 0, len(local.Lines)+len(remote.Lines))
	seen := make(map[string]struct{}, len(remote.Lines))

	for _, r := range remote.Lines {
		seen[r.ItemID] = struct{}{}
		if l, ok := local.Find(r.ItemID); ok && l.Quantity > r.Quantity {
			r.Quantity = l.Quantity
		}
		out = append(out, r)
	}

	for _, l := range local.Lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		out = append(out, l)
	}

	return Cart{Lines: out}
}
