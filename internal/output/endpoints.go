package output

import "regexp"

var endpointRe = regexp.MustCompile(`(?m)\b(GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)\s+/\S*`)

// CountEndpoints scans an API reference section for HTTP method + path
// mentions. Best effort: it feeds a metadata count, nothing depends on it
// being exact.
func CountEndpoints(apiReference string) int {
	return len(endpointRe.FindAllString(apiReference, -1))
}
