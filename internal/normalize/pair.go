package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"MarketLens/internal/model"
)

// ParsePair extracts point-in-time pair data from a DEX pair payload. The
// bare pair object, {"pair": {...}} and {"pairs": [{...}]} wrappers are accepted;
// with several pairs the most liquid one wins.
func ParsePair(payload []byte) (model.PairInfo, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return model.PairInfo{}, fmt.Errorf("parse pair: %w: %v", model.ErrUnknownPayload, err)
	}
	pair, ok := pairObject(doc)
	if !ok {
		return model.PairInfo{}, fmt.Errorf("parse pair: %w", model.ErrUnknownPayload)
	}
	return pairInfo(pair), nil
}

func pairObject(doc map[string]any) (map[string]any, bool) {
	if _, ok := doc["priceChange"]; ok {
		return doc, true
	}
	if p, ok := doc["pair"].(map[string]any); ok {
		return pairObject(p)
	}
	list, ok := doc["pairs"].([]any)
	if !ok {
		return nil, false
	}
	var best map[string]any
	bestLiq := -1.0
	for _, item := range list {
		p, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := p["priceChange"]; !ok {
			continue
		}
		liq, _ := nestedFloat(p, "liquidity", "usd")
		if liq > bestLiq {
			best, bestLiq = p, liq
		}
	}
	return best, best != nil
}

func pairInfo(p map[string]any) model.PairInfo {
	info := model.PairInfo{}
	info.ChainID, _ = p["chainId"].(string)
	info.PairAddress, _ = p["pairAddress"].(string)
	if base, ok := p["baseToken"].(map[string]any); ok {
		info.BaseSymbol, _ = base["symbol"].(string)
	}
	info.PriceUSD, _ = lookupFloat(p, "priceUsd", "price")
	info.LiquidityUSD, _ = nestedFloat(p, "liquidity", "usd")
	info.Volume24h, _ = nestedFloat(p, "volume", "h24")
	info.FDV, _ = lookupFloat(p, "fdv")
	info.MarketCap, _ = lookupFloat(p, "marketCap")
	info.PriceChange.M5, _ = nestedFloat(p, "priceChange", "m5")
	info.PriceChange.H1, _ = nestedFloat(p, "priceChange", "h1")
	info.PriceChange.H6, _ = nestedFloat(p, "priceChange", "h6")
	info.PriceChange.H24, _ = nestedFloat(p, "priceChange", "h24")
	return info
}

func nestedFloat(obj map[string]any, outer, inner string) (float64, bool) {
	sub, ok := obj[outer].(map[string]any)
	if !ok {
		return 0, false
	}
	return lookupFloat(sub, inner)
}

// pairAnchors rebuilds close-only rows from the trailing percentage changes:
// the price x ago is price / (1 + change/100).
func pairAnchors(info model.PairInfo, at time.Time) []row {
	anchors := []struct {
		ago    time.Duration
		change float64
	}{
		{24 * time.Hour, info.PriceChange.H24},
		{6 * time.Hour, info.PriceChange.H6},
		{time.Hour, info.PriceChange.H1},
		{5 * time.Minute, info.PriceChange.M5},
	}
	var mcap *float64
	if info.MarketCap > 0 {
		mc := info.MarketCap
		mcap = &mc
	}
	rows := make([]row, 0, len(anchors)+1)
	for _, a := range anchors {
		if a.change <= -100 {
			continue
		}
		rows = append(rows, row{t: at.Add(-a.ago), close: info.PriceUSD / (1 + a.change/100)})
	}
	rows = append(rows, row{t: at, close: info.PriceUSD, volume: info.Volume24h, marketCap: mcap})
	return rows
}
