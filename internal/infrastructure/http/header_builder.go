package httpinfra

// MergeHeaders returns base overlaid with extra. Neither input is modified.
func MergeHeaders(base map[string]string, extra map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
