package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/pagination"
)

// exportPageSize is the page size used while walking all orders.
const exportPageSize = pagination.MaxEntries

// maxExportPages bounds an export against a backend that never stops paging.
const maxExportPages = 500

var orderColumns = []string{
	"Order ID", "Customer Name", "Email", "Mobile", "Payment Method", "Payment Status",
	"Order Status", "Delivery Type", "Order Date", "Expected Delivery", "Amount", "Items",
}

// ExportOrdersCSV pages through every order matching p and writes one CSV
// row per order. It returns the number of rows written.
func (c *Client) ExportOrdersCSV(ctx context.Context, w io.Writer, p ListParams) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderColumns); err != nil {
		return 0, err
	}

	p.Entries = exportPageSize
	p.Page = 1
	written := 0
	for ; p.Page <= maxExportPages; p.Page++ {
		page, err := c.Orders.List(ctx, p)
		if err != nil {
			return written, fmt.Errorf("export orders page %d: %w", p.Page, err)
		}
		for _, o := range page.Items {
			if err := cw.Write(orderRow(o)); err != nil {
				return written, err
			}
			written++
		}
		if !page.Pagination.HasNext || len(page.Items) == 0 {
			break
		}
	}

	cw.Flush()
	return written, cw.Error()
}

func orderRow(o Order) []string {
	items := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, fmt.Sprintf("%s (x%d)", it.Name, it.Quantity))
	}
	return []string{
		cell(o.MerchantOrderID),
		cell(strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)),
		cell(o.Customer.Email),
		cell(o.Customer.Mobile),
		cell(o.PayMode),
		cell(o.PayStatus),
		cell(o.Status),
		cell(o.DeliveryType),
		cell(formatTimestamp(o.OrderDate)),
		cell(formatTimestamp(o.ExpectedDelivery)),
		strconv.FormatFloat(o.Amount, 'f', 2, 64),
		cell(strings.Join(items, ", ")),
	}
}

// cell quotes text that a spreadsheet would otherwise evaluate as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// formatTimestamp renders backend ISO timestamps as "2006-01-02 15:04" UTC
// and passes anything else through.
func formatTimestamp(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.UTC().Format("2006-01-02 15:04")
}
