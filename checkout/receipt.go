package checkout

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Line は会計明細の1行
type Line struct {
	Item      string
	Quantity  int
	UnitPrice int
	Subtotal  int
	// Priced が false の商品は価格表になく、小計は0
	Priced bool
}

// Receipt は会計結果（明細と合計）
type Receipt struct {
	Lines []Line
	Total int
}

// NewReceipt は数量表から明細を作成する
// 明細は商品名順に並び、合計は CalculateTotal と一致する
func NewReceipt(prices map[string]int, items map[string]int) *Receipt {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	r := &Receipt{Lines: make([]Line, 0, len(names))}
	for _, name := range names {
		price, ok := prices[name]
		line := Line{Item: name, Quantity: items[name], UnitPrice: price, Priced: ok}
		if ok {
			line.Subtotal = price * line.Quantity
		}
		r.Lines = append(r.Lines, line)
	}
	r.Total = CalculateTotal(prices, items)
	return r
}

// CountItems は認識された商品ラベルの列を数量表に変換する
// 画像分類の結果をそのまま会計に渡すために使う
func CountItems(labels []string) map[string]int {
	items := make(map[string]int, len(labels))
	for _, l := range labels {
		items[l]++
	}
	return items
}

// WriteTo は明細を表形式で w に書き出す
func (r *Receipt) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %8s %6s %10s\n", "ITEM", "PRICE", "QTY", "SUBTOTAL")
	for _, l := range r.Lines {
		price := fmt.Sprint(l.UnitPrice)
		if !l.Priced {
			price = "-"
		}
		fmt.Fprintf(&b, "%-16s %8s %6d %10d\n", l.Item, price, l.Quantity, l.Subtotal)
	}
	fmt.Fprintf(&b, "%-16s %8s %6s %10d\n", "TOTAL", "", "", r.Total)
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (r *Receipt) String() string {
	var b strings.Builder
	_, _ = r.WriteTo(&b)
	return b.String()
}
