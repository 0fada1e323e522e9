package nlq

import "strings"

// fallbackTemplate maps phrase keywords to a hand-authored query. All
// keywords must appear in the lower-cased question for the template to match.
type fallbackTemplate struct {
	keywords []string
	query    string
}

const topCustomersByRevenue = `SELECT c.name AS customer, SUM(i.total_amount) AS revenue
FROM invoices i
JOIN customers c ON c.id = i.customer_id
GROUP BY c.name
ORDER BY SUM(i.total_amount) DESC
LIMIT 5`

// mysqlFallbacks cover the common reporting questions. They exist so the
// MySQL path keeps answering during transient model unavailability; order
// matters, first match wins.
var mysqlFallbacks = []fallbackTemplate{
	{
		keywords: []string{"top", "account"},
		query: `SELECT name, balance
FROM accounts
ORDER BY balance DESC
LIMIT 5`,
	},
	{
		keywords: []string{"highest", "customer", "invoice"},
		query: `SELECT c.name AS customer, i.total_amount
FROM invoices i
JOIN customers c ON c.id = i.customer_id
ORDER BY i.total_amount DESC
LIMIT 1`,
	},
	{
		keywords: []string{"sales", "month"},
		query: `SELECT DATE_FORMAT(order_date, '%Y-%m') AS month, SUM(total_amount) AS sales
FROM orders
GROUP BY DATE_FORMAT(order_date, '%Y-%m')
ORDER BY month`,
	},
	{keywords: []string{"top", "customer"}, query: topCustomersByRevenue},
	{keywords: []string{"customer", "revenue"}, query: topCustomersByRevenue},
}

// FallbackQuery returns a canned MySQL query matching the question's
// phrasing, if any. Used only when the model call itself fails.
func FallbackQuery(question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, tmpl := range mysqlFallbacks {
		matched := true
		for _, kw := range tmpl.keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if matched {
			return tmpl.query, true
		}
	}
	return "", false
}
