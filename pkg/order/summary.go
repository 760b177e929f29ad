package order

import "github.com/shopspring/decimal"

// Summary is the admin dashboard's view over all orders.
type Summary struct {
	TotalOrders  int             `json:"totalOrders"`
	ActiveOrders int             `json:"activeOrders"`
	ByStatus     map[Status]int  `json:"byStatus"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Summarize counts orders per status. Revenue excludes cancelled orders.
func Summarize(orders []Order) Summary {
	s := Summary{
		ByStatus: make(map[Status]int, len(happyPath)+1),
		Revenue:  decimal.Zero,
	}
	for _, st := range Statuses() {
		s.ByStatus[st] = 0
	}

	for _, o := range orders {
		s.TotalOrders++
		s.ByStatus[o.Status]++
		if o.Status.Active() {
			s.ActiveOrders++
		}
		if o.Status != StatusCancelled {
			s.Revenue = s.Revenue.Add(o.Total)
		}
	}
	return s
}
