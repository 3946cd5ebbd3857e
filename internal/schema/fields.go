// Package schema maps arbitrary spreadsheet column names onto a fixed set of
// semantic fields. ERP and accounting exports do not share a schema; the same
// business concept ships under dozens of header spellings, so recognition is
// driven by ordered synonym fragments and substring matching rather than
// exact names.
package schema

// Field identifies one canonical semantic column.
type Field string

const (
	FieldPartnerCode  Field = "partner_code"
	FieldPartnerName  Field = "partner_name"
	FieldDocNumber    Field = "doc_number"
	FieldDate         Field = "date"
	FieldTotalAmount  Field = "total_amount"
	FieldQuantity     Field = "quantity"
	FieldItem         Field = "item"
	FieldTax          Field = "tax"
	FieldDiscount     Field = "discount"
	FieldCurrency     Field = "currency"
	FieldWarehouse    Field = "warehouse"
	FieldCostCenter   Field = "cost_center"
	FieldPartnerType  Field = "partner_type"
	FieldCustomFields Field = "custom_fields"
)

// CanonicalOrder is the enumeration order used for fields_detected output
// and anywhere a stable field ordering is needed.
var CanonicalOrder = []Field{
	FieldPartnerCode,
	FieldPartnerName,
	FieldDocNumber,
	FieldDate,
	FieldTotalAmount,
	FieldQuantity,
	FieldItem,
	FieldTax,
	FieldDiscount,
	FieldCurrency,
	FieldWarehouse,
	FieldCostCenter,
	FieldPartnerType,
	FieldCustomFields,
}

// synonyms holds the ordered fragment lists per field. Order encodes business
// priority: a fragment earlier in the list beats every later fragment, so a
// literal "cardcode" column wins over a generic "vendor" column. Fragments
// are lowercase because headers are normalized before matching.
//
// The lists cover both supplier (AP) and customer (AR) export vocabularies.
var synonyms = map[Field][]string{
	FieldPartnerCode: {
		"cardcode", "vendor", "bpcode", "supplierid", "customer", "clientcode", "debitor", "partnercode",
	},
	FieldPartnerName: {
		"cardname", "vendorname", "bpname", "suppliername", "customername", "clientname", "debitorname", "partnername",
	},
	FieldDocNumber: {
		"docnum", "docentry", "invoice", "invno", "invnum", "documentnumber", "po_no",
		"po number", "doc no", "order", "salesorder", "purchaseorder",
	},
	FieldDate: {
		"docdate", "taxdate", "postingdate", "posting", "duedate", "createdate", "date", "trandate",
	},
	FieldTotalAmount: {
		"linetotal", "doctotal", "totalamount", "amount", "grandtotal", "total", "netvalue",
		"grossamount", "debit", "credit", "balance", "priceaftervat", "netamt",
	},
	FieldQuantity: {
		"quantity", "qty", "openqty", "baseqty", "shipqty", "delqty", "invoicedqty", "orderedqty",
	},
	FieldItem: {
		"itemcode", "item", "dscription", "description", "material", "sku", "product", "partnumber", "materialcode",
	},
	FieldTax: {
		"tax", "vat", "gst", "taxamt", "taxamount",
	},
	FieldDiscount: {
		"disc", "discount", "discperc", "discamt", "discountamount",
	},
	FieldCurrency: {
		"currency", "curr", "currcode",
	},
	FieldWarehouse: {
		"whscode", "warehouse", "location",
	},
	FieldCostCenter: {
		"costcenter", "profitcenter", "costctr", "pc", "division",
	},
	FieldPartnerType: {
		"cardtype", "bptype", "businesspartner", "bpgroup",
	},
}

// Synonyms returns the ordered fragment list for a field. custom_fields has
// no synonym list; it is recognized by the "u_" prefix convention instead.
func Synonyms(f Field) []string {
	return synonyms[f]
}
