package recognize

// Field is a canonical order/item field a spreadsheet column can map to
type Field string

const (
	FieldCustomerCode  Field = "customerCode"
	FieldCustomerName  Field = "customerName"
	FieldCustomerPhone Field = "customerPhone"
	FieldSKU           Field = "sku"
	FieldProductName   Field = "productName"
	FieldQuantity      Field = "quantity"
	FieldUnitPrice     Field = "unitPrice"
	FieldOrderDate     Field = "orderDate"
	FieldAddress       Field = "address"
	FieldRemark        Field = "remark"
	// FieldUnknown marks a column the pipeline could not resolve. Its values
	// stay in the raw payload only.
	FieldUnknown Field = "UNKNOWN"
)

// FieldType tags the coercion applied to cells of a recognized column
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypePhone   FieldType = "phone"
	TypeUnknown FieldType = "unknown"
)

// KnownFields lists every canonical field with its type
var KnownFields = map[Field]FieldType{
	FieldCustomerCode:  TypeText,
	FieldCustomerName:  TypeText,
	FieldCustomerPhone: TypePhone,
	FieldSKU:           TypeText,
	FieldProductName:   TypeText,
	FieldQuantity:      TypeDecimal,
	FieldUnitPrice:     TypeDecimal,
	FieldOrderDate:     TypeDate,
	FieldAddress:       TypeText,
	FieldRemark:        TypeText,
}

// IsKnown reports whether f is a canonical field
func (f Field) IsKnown() bool {
	_, ok := KnownFields[f]
	return ok
}

// TypeOf returns the coercion type of a field, TypeUnknown for unresolved ones
func (f Field) TypeOf() FieldType {
	if t, ok := KnownFields[f]; ok {
		return t
	}
	return TypeUnknown
}
