package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildLinkHeader returns an RFC 8288 Link header value with next and prev
// relations for the offset window p over total rows. Existing offset and
// limit parameters in query are replaced; all others are preserved.
// It returns "" when there is neither a next nor a previous page.
func BuildLinkHeader(baseURL string, query url.Values, p Params, total int64) string {
	var links []string
	if p.HasNext(total) {
		links = append(links, formatLink(baseURL, query, p.Next(), "next"))
	}
	if prev, ok := p.Prev(); ok {
		links = append(links, formatLink(baseURL, query, prev, "prev"))
	}
	return strings.Join(links, ", ")
}

func formatLink(baseURL string, query url.Values, p Params, rel string) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("offset", strconv.Itoa(p.Offset))
	q.Set("limit", strconv.Itoa(p.Limit))
	return fmt.Sprintf("<%s?%s>; rel=%q", baseURL, q.Encode(), rel)
}
