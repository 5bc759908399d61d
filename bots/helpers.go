package bots

import "matchcore/runtime"

func midPrice(view runtime.BookView) uint32 {
	switch {
	case view.HasBid && view.HasAsk:
		return (view.BestBid + view.BestAsk) / 2
	case view.HasBid:
		return view.BestBid
	case view.HasAsk:
		return view.BestAsk
	default:
		return 0
	}
}
