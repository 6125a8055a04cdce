package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// F64ToS converts float to string using the maximum accuracy
func F64ToS(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseFloats parses a list of floats separated by sep (e.g. "1,2.5,-3")
func ParseFloats(s, sep string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("ParseFloats: empty list")
	}
	elems := strings.Split(s, sep)
	vs := make([]float64, len(elems))
	for i, e := range elems {
		var err error
		if vs[i], err = strconv.ParseFloat(strings.TrimSpace(e), 64); err != nil {
			return nil, fmt.Errorf("ParseFloats: %w", err)
		}
	}
	return vs, nil
}

/*
FindRegexGroups returns a map containing the group names as keys and the values matched as values, if the string value matches the regex.
*/
func FindRegexGroups(reg *regexp.Regexp, v string) (map[string]string, error) {
	matches := reg.FindStringSubmatch(v)
	if len(matches) == 0 {
		return nil, fmt.Errorf("failed to find submatch in regex %v for value %v", reg.String(), v)
	}

	groupNames := reg.SubexpNames()
	matches, groupNames = matches[1:], groupNames[1:]
	res := make(map[string]string, len(matches))
	for i := range groupNames {
		res[groupNames[i]] = matches[i]
	}

	return res, nil
}
