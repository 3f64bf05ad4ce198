// Package brands maps brand names to a coarse price tier.
// The table is fixed at build time and only ever read.
package brands

import "strings"

// Tier is a coarse price tier
type Tier string

const (
	TierLuxury     Tier = "奢侈"
	TierAffordable Tier = "轻奢"
	TierMass       Tier = "大众"
)

// Match is a brand found in the table
type Match struct {
	Brand string
	Tier  Tier
}

// tiers lists brand names per tier, lower-case, with Chinese aliases
var tiers = map[Tier][]string{
	TierLuxury: {
		"hermes", "hermès", "爱马仕",
		"chanel", "香奈儿",
		"louis vuitton", "lv", "路易威登",
		"gucci", "古驰",
		"prada", "普拉达",
		"dior", "迪奥",
		"balenciaga", "巴黎世家",
		"burberry", "博柏利",
		"cartier", "卡地亚",
		"rolex", "劳力士",
		"tiffany", "蒂芙尼",
		"porsche", "保时捷",
	},
	TierAffordable: {
		"coach", "蔻驰",
		"michael kors", "mk",
		"kate spade",
		"longchamp", "珑骧",
		"apple", "苹果",
		"dyson", "戴森",
		"sk-ii", "la mer", "海蓝之谜",
		"estee lauder", "雅诗兰黛",
		"lululemon",
		"bmw", "宝马",
		"mercedes-benz", "benz", "奔驰",
	},
	TierMass: {
		"nike", "耐克",
		"adidas", "阿迪达斯",
		"uniqlo", "优衣库",
		"zara",
		"h&m",
		"muji", "无印良品",
		"ikea", "宜家",
		"xiaomi", "小米",
		"huawei", "华为",
		"starbucks", "星巴克",
		"li-ning", "李宁",
		"anta", "安踏",
	},
}

var table = func() map[string]Tier {
	m := make(map[string]Tier)
	for tier, names := range tiers {
		for _, n := range names {
			m[n] = tier
		}
	}
	return m
}()

// Lookup returns the tier of a brand, ignoring case and surrounding space
func Lookup(name string) (Tier, bool) {
	t, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Classify returns the known brands among names, in input order, without duplicates
func Classify(names []string) []Match {
	out := make([]Match, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if seen[key] {
			continue
		}
		if t, ok := Lookup(n); ok {
			seen[key] = true
			out = append(out, Match{Brand: strings.TrimSpace(n), Tier: t})
		}
	}
	return out
}
