package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parsePageSelection expands a page selection string into a sorted,
// de-duplicated list of 1-based page numbers. Accepts "all" (or ""),
// single pages ("3"), ranges ("1-5") and comma-separated combinations
// ("1,3-4,7").
func parsePageSelection(pages string, maxPage int) ([]int, error) {
	if pages == "" || pages == "all" {
		result := make([]int, maxPage)
		for i := range maxPage {
			result[i] = i + 1
		}
		return result, nil
	}

	var result []int
	for part := range strings.SplitSeq(pages, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", part)
			}

			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
			}

			if start < 1 || end > maxPage || start > end {
				return nil, fmt.Errorf("invalid page range: %d-%d (max page: %d)", start, end, maxPage)
			}

			for i := start; i <= end; i++ {
				result = append(result, i)
			}
		} else {
			page, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", part)
			}
			if page < 1 || page > maxPage {
				return nil, fmt.Errorf("page number out of range: %d (max page: %d)", page, maxPage)
			}
			result = append(result, page)
		}
	}

	// De-duplicate and sort
	pageSet := make(map[int]bool, len(result))
	for _, page := range result {
		pageSet[page] = true
	}
	result = result[:0]
	for page := range pageSet {
		result = append(result, page)
	}
	sort.Ints(result)

	return result, nil
}
