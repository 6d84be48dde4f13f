package layout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxHostlistSize caps the expansion of a single expression.
const maxHostlistSize = 1 << 16

// rangeRegex matches one bracket term, e.g. `07` or `01-16`.
var rangeRegex = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// ExpandHostlist expands a compressed host list expression such as
// `gpu[01-03,07],login1` into its hosts, in order. Zero padding of the lower
// bound is preserved, so `n[08-10]` yields n08, n09, n10.
func ExpandHostlist(expr string) ([]string, error) {
	items, err := splitHostlist(expr)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for _, item := range items {
		expanded, err := expandHostlistItem(item, maxHostlistSize-len(hosts))
		if err != nil {
			return nil, fmt.Errorf("hostlist %q: %w", expr, err)
		}
		hosts = append(hosts, expanded...)
	}
	return hosts, nil
}

// splitHostlist splits on the commas that sit outside brackets.
func splitHostlist(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("hostlist cannot be empty")
	}

	var items []string
	depth, start := 0, 0
	for i, r := range expr {
		switch r {
		case '[':
			depth++
			if depth > 1 {
				return nil, fmt.Errorf("hostlist %q has nested brackets", expr)
			}
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("hostlist %q has unbalanced brackets", expr)
			}
		case ',':
			if depth == 0 {
				items = append(items, expr[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("hostlist %q has unbalanced brackets", expr)
	}
	items = append(items, expr[start:])

	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return nil, fmt.Errorf("hostlist %q contains an empty host", expr)
		}
	}
	return items, nil
}

// expandHostlistItem expands one comma-free item into at most budget hosts.
func expandHostlistItem(item string, budget int) ([]string, error) {
	item = strings.TrimSpace(item)
	if budget < 1 {
		return nil, fmt.Errorf("expands to more than %d hosts", maxHostlistSize)
	}
	open := strings.IndexByte(item, '[')
	if open < 0 {
		return []string{item}, nil
	}
	end := open + strings.IndexByte(item[open:], ']')
	prefix, body, rest := item[:open], item[open+1:end], item[end+1:]

	suffixes := []string{""}
	if rest != "" {
		var err error
		if suffixes, err = expandHostlistItem(rest, budget); err != nil {
			return nil, err
		}
	}

	var hosts []string
	for _, term := range strings.Split(body, ",") {
		m := rangeRegex.FindStringSubmatch(term)
		if m == nil {
			return nil, fmt.Errorf("invalid hostlist range %q in %q", term, item)
		}
		lo, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid hostlist bound %q: %w", m[1], err)
		}
		hi := lo
		if m[2] != "" {
			if hi, err = strconv.Atoi(m[2]); err != nil {
				return nil, fmt.Errorf("invalid hostlist bound %q: %w", m[2], err)
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("invalid hostlist range %q: upper bound below lower bound", term)
		}
		// Checked before allocating, against what is left of the budget.
		if hi-lo >= budget || (hi-lo+1)*len(suffixes) > budget-len(hosts) {
			return nil, fmt.Errorf("expands to more than %d hosts at range %q", maxHostlistSize, term)
		}

		width := len(m[1])
		for i := lo; i <= hi; i++ {
			for _, suffix := range suffixes {
				hosts = append(hosts, fmt.Sprintf("%s%0*d%s", prefix, width, i, suffix))
			}
		}
	}
	return hosts, nil
}
