// Package checkout は商品の価格表と数量から会計金額を計算します。
package checkout

import (
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

// CalculateTotal は Σ prices[item] × items[item] を返す
// 価格表にない商品は0円として扱い、UnpricedItemWarning を発生させる
//
// 使用例:
//
//	total := checkout.CalculateTotal(
//	    map[string]int{"ANPAN": 200, "PEN": 100},
//	    map[string]int{"ANPAN": 2, "PEN": 1},
//	) // 500
func CalculateTotal(prices map[string]int, items map[string]int) int {
	total := 0
	for item, quantity := range items {
		price, ok := prices[item]
		if !ok {
			errors.Warn(errors.NewUnpricedItemWarning(item, quantity))
			continue
		}
		total += price * quantity
	}

	log.Named("checkout").Debug("Total calculated",
		log.OperationKey, log.OperationTotal,
		"checkout.items", len(items),
		log.TotalKey, total,
	)
	return total
}
