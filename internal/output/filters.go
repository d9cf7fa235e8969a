// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"os"
	"regexp"
	"strings"

	"github.com/apex/log"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// It matches: key + operator + target, where operator can be negated with !
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~><@/])(.*)$`)

// Filter represents a single parsed --filter expression. Key is the column
// the filter applies to, either "key" or "value".
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a delimited list of filters into a slice of Filter.
// Invalid specs (unsupported operand, malformed expression or unknown column)
// are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("CACHEGUARD_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		if parts[1] != "key" && parts[1] != "value" {
			log.Errorf("filter key not found: %s", parts[1])
			continue
		}

		// parts[2] is the operand. It may have a leading negation.
		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// FilterKeys returns the subset of keys, in their original order, whose
// key/value pair passes every filter in spec.
func FilterKeys(data map[string]string, keys []string, spec string) []string {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return keys
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if applyFilters(k, data[k], filters) {
			out = append(out, k)
		}
	}
	return out
}

// applyFilters returns true if the pair matches all of the provided filters.
func applyFilters(key, value string, filters []Filter) bool {
	for _, filter := range filters {
		subject := key
		if filter.Key == "value" {
			subject = value
		}
		if !checkStringOperand(subject, filter) {
			return false
		}
	}
	return true
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
