package roster

import "strings"

// FilterOptions narrows a roster. Empty fields match everything.
type FilterOptions struct {
	IDs       []string
	Countries []string
}

func containsFold(hay []string, needle string) bool {
	for _, h := range hay {
		if strings.EqualFold(strings.TrimSpace(h), needle) {
			return true
		}
	}
	return false
}

// Filter keeps rows whose participant matches opt. With no options set the
// rows are returned as is, malformed ones included, so they still get reported.
func Filter(rows []Row, opt FilterOptions) []Row {
	if len(opt.IDs) == 0 && len(opt.Countries) == 0 {
		return rows
	}
	var out []Row
	for _, r := range rows {
		if r.Err != nil {
			continue
		}
		if len(opt.IDs) > 0 && !containsFold(opt.IDs, r.Participant.ID) {
			continue
		}
		if len(opt.Countries) > 0 && !containsFold(opt.Countries, r.Participant.Country) {
			continue
		}
		out = append(out, r)
	}
	return out
}
