package recognize

import (
	"strings"
	"unicode"
)

// headerAliases maps known header spellings to canonical fields. Keys are
// stored normalized (lower-case, punctuation stripped); exact lookups use
// the raw header first, so both stages share one table.
var headerAliases = map[string]Field{
	// customer code
	"customercode": FieldCustomerCode,
	"custcode":     FieldCustomerCode,
	"客户编码":         FieldCustomerCode,
	"客户编号":         FieldCustomerCode,

	// customer name
	"customer":     FieldCustomerName,
	"customername": FieldCustomerName,
	"client":       FieldCustomerName,
	"buyer":        FieldCustomerName,
	"客户":           FieldCustomerName,
	"客户名称":         FieldCustomerName,
	"购买方":          FieldCustomerName,

	// customer phone
	"phone":         FieldCustomerPhone,
	"tel":           FieldCustomerPhone,
	"telephone":     FieldCustomerPhone,
	"mobile":        FieldCustomerPhone,
	"customerphone": FieldCustomerPhone,
	"电话":            FieldCustomerPhone,
	"手机":            FieldCustomerPhone,
	"手机号":           FieldCustomerPhone,
	"联系电话":          FieldCustomerPhone,

	// sku
	"sku":         FieldSKU,
	"itemcode":    FieldSKU,
	"productcode": FieldSKU,
	"货号":          FieldSKU,
	"商品编码":        FieldSKU,
	"产品编号":        FieldSKU,

	// product name
	"product":     FieldProductName,
	"productname": FieldProductName,
	"item":        FieldProductName,
	"itemname":    FieldProductName,
	"goods":       FieldProductName,
	"商品":          FieldProductName,
	"商品名称":        FieldProductName,
	"产品名称":        FieldProductName,
	"品名":          FieldProductName,

	// quantity
	"qty":      FieldQuantity,
	"quantity": FieldQuantity,
	"count":    FieldQuantity,
	"数量":       FieldQuantity,
	"订购数量":     FieldQuantity,

	// unit price
	"price":     FieldUnitPrice,
	"unitprice": FieldUnitPrice,
	"单价":        FieldUnitPrice,
	"价格":        FieldUnitPrice,

	// order date
	"date":      FieldOrderDate,
	"orderdate": FieldOrderDate,
	"日期":        FieldOrderDate,
	"下单日期":      FieldOrderDate,
	"订单日期":      FieldOrderDate,

	// address
	"address":         FieldAddress,
	"shippingaddress": FieldAddress,
	"地址":              FieldAddress,
	"收货地址":            FieldAddress,

	// remark
	"remark":  FieldRemark,
	"remarks": FieldRemark,
	"note":    FieldRemark,
	"notes":   FieldRemark,
	"comment": FieldRemark,
	"备注":      FieldRemark,
}

// lookupExact resolves a header exactly as written (confidence 1.0 on hit)
func lookupExact(header string) (Field, bool) {
	f, ok := headerAliases[strings.ToLower(header)]
	return f, ok
}

// lookupNormalized resolves a header after trimming, case folding and
// stripping punctuation and inner whitespace (confidence 0.9 on hit)
func lookupNormalized(header string) (Field, bool) {
	f, ok := headerAliases[normalizeHeader(header)]
	return f, ok
}

// normalizeHeader strips everything that is not a letter or digit and
// lower-cases the rest
func normalizeHeader(header string) string {
	var sb strings.Builder
	for _, r := range header {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
