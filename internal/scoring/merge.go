package scoring

// Merge combines a freshly computed score set with the previously stored one.
// The output covers exactly the requirements of fresh, in fresh's order. Any
// buyer override present on a matching stale entry is carried forward as an
// unmodified copy; fresh entries never gain an override from anywhere else.
func Merge(stale, fresh []RequirementScore) []RequirementScore {
	overrides := make(map[string]*BuyerOverride, len(stale))
	for _, rs := range stale {
		if rs.BuyerOverride != nil {
			overrides[rs.RequirementID] = rs.BuyerOverride
		}
	}

	out := make([]RequirementScore, len(fresh))
	for i, rs := range fresh {
		if o, ok := overrides[rs.RequirementID]; ok {
			cp := *o
			rs.BuyerOverride = &cp
		}
		out[i] = rs
	}
	return out
}
