package dto

// FlowWindow is one capital class's net-inflow percentage over the three
// standard windows. The 5-day and 10-day samples may be absent; scoring then
// degrades to the windows that are present.
type FlowWindow struct {
	Today   *float64 `json:"today"`
	FiveDay *float64 `json:"five_day"`
	TenDay  *float64 `json:"ten_day"`
}

// MoneyFlowWindow carries the flow samples for the two capital classes the
// scorer looks at: main capital and super-large orders.
type MoneyFlowWindow struct {
	Main       FlowWindow `json:"main"`
	SuperLarge FlowWindow `json:"super_large"`
}

// HasData reports whether at least one sample is present.
func (w MoneyFlowWindow) HasData() bool {
	for _, f := range []FlowWindow{w.Main, w.SuperLarge} {
		if f.Today != nil || f.FiveDay != nil || f.TenDay != nil {
			return true
		}
	}
	return false
}
